// Package config holds the immutable render configuration and the YAML
// project file it is loaded from.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/frames2video/internal/keyframe"
)

// ErrBadSpec reports a malformed crop/bright entry in the project file.
var ErrBadSpec = errors.New("malformed keyframe specification")

// Config is the resolved, immutable configuration for one render.
// Nothing in the pipeline mutates it after construction.
type Config struct {
	InputPath   string
	OutputVideo string
	Filetype    string
	Width       int
	Height      int
	FrameRate   int
	BitRate     string
	Deflicker   bool
	DFWindow    int
	Crop        KeyframeSpec
	Bright      KeyframeSpec
	Workers     int
	DPI         int
	CachePath   string
	KeepFrames  bool
	NoEncode    bool
}

// Project is the on-disk YAML shape of a render project.
type Project struct {
	Filetype  string       `yaml:"filetype"`
	Size      []int        `yaml:"size"`
	FrameRate int          `yaml:"frame_rate"`
	BitRate   string       `yaml:"bit_rate"`
	Deflicker bool         `yaml:"deflicker"`
	DFWindow  int          `yaml:"df_window"`
	Crop      KeyframeSpec `yaml:"crop"`
	Bright    KeyframeSpec `yaml:"bright"`
}

// Load reads a project file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("project %q: %w", path, err)
	}
	if len(p.Size) != 0 && len(p.Size) != 2 {
		return nil, fmt.Errorf("project %q: size wants [width, height]: %w", path, ErrBadSpec)
	}
	if len(p.Size) == 2 && (p.Size[0] <= 0 || p.Size[1] <= 0) {
		return nil, fmt.Errorf("project %q: size %v must be positive: %w", path, p.Size, ErrBadSpec)
	}
	if p.DFWindow < 0 {
		return nil, fmt.Errorf("project %q: df_window must not be negative: %w", path, ErrBadSpec)
	}
	return &p, nil
}

// SpecKind tags the three shapes a crop/bright entry can take.
type SpecKind int

const (
	SpecNone      SpecKind = iota // field absent or null
	SpecStatic                    // single scalar or single box
	SpecKeyframes                 // list of [index, value...] entries
)

// KeyframeSpec is the tagged variant behind the crop and bright
// fields: nothing configured, one static value, or an animated
// keyframe list. Shape branching happens here, once, at load time.
type KeyframeSpec struct {
	Kind   SpecKind
	Static []float64
	Keys   []keyframe.Keyframe
}

// UnmarshalYAML accepts null, a bare scalar, a flat number list (a
// static box) or a list of [index, value...] lists.
func (s *KeyframeSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			s.Kind = SpecNone
			return nil
		}
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("%w: %v", ErrBadSpec, err)
		}
		s.Kind = SpecStatic
		s.Static = []float64{v}
		return nil

	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			return fmt.Errorf("%w: empty list", ErrBadSpec)
		}
		if node.Content[0].Kind == yaml.ScalarNode {
			var box []float64
			if err := node.Decode(&box); err != nil {
				return fmt.Errorf("%w: %v", ErrBadSpec, err)
			}
			s.Kind = SpecStatic
			s.Static = box
			return nil
		}

		for _, item := range node.Content {
			var row []float64
			if err := item.Decode(&row); err != nil {
				return fmt.Errorf("%w: %v", ErrBadSpec, err)
			}
			if len(row) < 2 {
				return fmt.Errorf("%w: keyframe wants [index, value...]", ErrBadSpec)
			}
			idx := int(row[0])
			if float64(idx) != row[0] {
				return fmt.Errorf("%w: keyframe index %v is not an integer", ErrBadSpec, row[0])
			}
			s.Keys = append(s.Keys, keyframe.Keyframe{Index: idx, Value: row[1:]})
		}
		s.Kind = SpecKeyframes
		return nil

	default:
		return fmt.Errorf("%w: unexpected YAML node", ErrBadSpec)
	}
}

// Resolve turns the spec into a validated keyframe set for a sequence
// of numFrames frames. ok is false when nothing is configured.
func (s KeyframeSpec) Resolve(arity, numFrames int) (set keyframe.Set, ok bool, err error) {
	switch s.Kind {
	case SpecNone:
		return keyframe.Set{}, false, nil
	case SpecStatic:
		if len(s.Static) != arity {
			return keyframe.Set{}, false, fmt.Errorf("static value has %d components, want %d: %w",
				len(s.Static), arity, keyframe.ErrWrongArity)
		}
		return keyframe.Constant(s.Static, numFrames), true, nil
	default:
		set, err = keyframe.NewSet(s.Keys, arity, numFrames)
		if err != nil {
			return keyframe.Set{}, false, err
		}
		return set, true, nil
	}
}
