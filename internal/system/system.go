package system

import (
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	} else {
		fmt.Printf("[*] Системный лимит открытых файлов увеличен до %d\n", rLimit.Cur)
	}
}

// DefaultWorkers picks a pool size: one worker per logical CPU, clamped
// so the decoded RGBA frames held in flight fit in available memory.
// Large stills (40+ megapixel timelapse shots) make the memory bound
// the binding one, not the CPU count.
func DefaultWorkers(frameW, frameH int) int {
	count, err := cpu.Counts(true)
	if err != nil || count < 1 {
		count = runtime.NumCPU()
	}

	vm, err := mem.VirtualMemory()
	if err != nil || frameW <= 0 || frameH <= 0 {
		return count
	}

	// Source frame + crop copy + output frame per worker, half of
	// available memory as the budget.
	perWorker := uint64(frameW) * uint64(frameH) * 4 * 3
	maxByMem := int(vm.Available / 2 / perWorker)
	if maxByMem < 1 {
		maxByMem = 1
	}
	if count > maxByMem {
		count = maxByMem
	}
	return count
}

func GetBestH264Encoder() (string, string) {
	// Приоритеты:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)

	encoders := []struct {
		name string
		args string
	}{
		{"h264_videotoolbox", ""},
		{"h264_nvenc", ""},
	}

	for _, enc := range encoders {
		cmd := exec.Command("ffmpeg", "-encoders")
		out, err := cmd.CombinedOutput()
		if err == nil && strings.Contains(string(out), enc.name) {
			return enc.name, enc.args
		}
	}

	return "libx264", ""
}
