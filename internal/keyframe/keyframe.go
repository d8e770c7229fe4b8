// Package keyframe expands sparse animation control points into dense
// per-frame parameter tracks.
package keyframe

import (
	"errors"
	"fmt"
	"slices"
)

// Arities of the tracks this pipeline animates.
const (
	ArityScalar = 1 // brightness factor
	ArityBox    = 4 // crop box [left, top, right, bottom]
)

// Validation errors, classified with errors.Is.
var (
	ErrEmptySet      = errors.New("keyframe set has no entries")
	ErrWrongArity    = errors.New("keyframe value has wrong arity")
	ErrIndexRange    = errors.New("keyframe index out of range")
	ErrNotIncreasing = errors.New("keyframe indices must be strictly increasing")
)

// Keyframe is one control point: a frame index and the parameter value
// at that frame. A negative index counts from the end of the sequence,
// Python-style: -1 is the last frame.
type Keyframe struct {
	Index int
	Value []float64
}

// Track is the dense expansion of a Set: one value vector per frame,
// length exactly the frame count the Set was resolved against.
type Track [][]float64

// Set is a validated keyframe collection. Negative indices have been
// resolved and the entries are strictly increasing within
// [0, numFrames-1]. Construct via NewSet or Constant.
type Set struct {
	keys      []Keyframe
	arity     int
	numFrames int
}

// NewSet resolves and validates keys against a sequence of numFrames
// frames. Resolution happens here, once: expansion never sees a
// negative index.
func NewSet(keys []Keyframe, arity, numFrames int) (Set, error) {
	if numFrames <= 0 {
		return Set{}, fmt.Errorf("frame count %d: %w", numFrames, ErrIndexRange)
	}
	if len(keys) == 0 {
		return Set{}, ErrEmptySet
	}

	resolved := make([]Keyframe, len(keys))
	for i, k := range keys {
		if len(k.Value) != arity {
			return Set{}, fmt.Errorf("keyframe %d has %d components, want %d: %w",
				i, len(k.Value), arity, ErrWrongArity)
		}
		idx := k.Index
		if idx < 0 {
			idx = numFrames + idx
		}
		if idx < 0 || idx >= numFrames {
			return Set{}, fmt.Errorf("keyframe %d resolves to index %d outside [0,%d]: %w",
				i, idx, numFrames-1, ErrIndexRange)
		}
		if i > 0 && idx <= resolved[i-1].Index {
			return Set{}, fmt.Errorf("keyframe %d resolves to index %d after index %d: %w",
				i, idx, resolved[i-1].Index, ErrNotIncreasing)
		}
		resolved[i] = Keyframe{Index: idx, Value: slices.Clone(k.Value)}
	}

	return Set{keys: resolved, arity: arity, numFrames: numFrames}, nil
}

// Constant builds a one-keyframe Set producing value at every frame.
// Used for static configuration (a bare brightness scalar, the
// auto-crop box).
func Constant(value []float64, numFrames int) Set {
	s, err := NewSet([]Keyframe{{Index: 0, Value: value}}, len(value), numFrames)
	if err != nil {
		// Only reachable with numFrames <= 0 or an empty vector, both
		// caller bugs.
		panic(err)
	}
	return s
}

// Len reports the number of control points in the set.
func (s Set) Len() int { return len(s.keys) }

// Expand produces the dense track: flat extrapolation before the first
// and after the last keyframe, independent per-component linear
// interpolation between consecutive pairs. Every keyframe's literal
// value appears unchanged at its resolved index.
func (s Set) Expand() Track {
	track := make(Track, s.numFrames)

	first := s.keys[0]
	for f := 0; f <= first.Index; f++ {
		track[f] = slices.Clone(first.Value)
	}

	for i := 1; i < len(s.keys); i++ {
		k0, k1 := s.keys[i-1], s.keys[i]
		span := float64(k1.Index - k0.Index)
		for f := k0.Index + 1; f < k1.Index; f++ {
			v := make([]float64, s.arity)
			for c := 0; c < s.arity; c++ {
				m := (k1.Value[c] - k0.Value[c]) / span
				b := k0.Value[c] - m*float64(k0.Index)
				v[c] = m*float64(f) + b
			}
			track[f] = v
		}
		// Pin the endpoint to the literal control value so rounding in
		// the slope never leaks into a keyframed frame.
		track[k1.Index] = slices.Clone(k1.Value)
	}

	last := s.keys[len(s.keys)-1]
	for f := last.Index + 1; f < s.numFrames; f++ {
		track[f] = slices.Clone(last.Value)
	}

	return track
}

// Scalars flattens an arity-1 track to a plain float slice.
func (t Track) Scalars() []float64 {
	out := make([]float64, len(t))
	for i, v := range t {
		out[i] = v[0]
	}
	return out
}
