// Package ordering computes dense display ranks for manually curated lists.
//
// A drag-and-drop client submits the complete desired sequence of ids; the
// server turns it into ranks 1..n with Rank and applies them in one
// transaction. Single-item moves are expressed as a list move (Move) followed
// by the same Rank step, so every write path produces a contiguous ranking.
package ordering

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned when an ordering contains no ids.
	ErrEmpty = errors.New("ordering: empty list")
	// ErrDuplicate is returned when an id appears more than once.
	ErrDuplicate = errors.New("ordering: duplicate id")
	// ErrUnknown is returned when an id is not part of the ordered set.
	ErrUnknown = errors.New("ordering: unknown id")
	// ErrMismatch is returned when a submitted set differs from the current one.
	ErrMismatch = errors.New("ordering: set mismatch")
)

// Validate checks that ids is non-empty and free of duplicates.
func Validate(ids []int64) error {
	if len(ids) == 0 {
		return ErrEmpty
	}
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicate, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Rank maps every id to its 1-based position in ids.
func Rank(ids []int64) (map[int64]int, error) {
	if err := Validate(ids); err != nil {
		return nil, err
	}
	ranks := make(map[int64]int, len(ids))
	for i, id := range ids {
		ranks[id] = i + 1
	}
	return ranks, nil
}

// SameSet reports whether want is a permutation of have. It returns
// ErrDuplicate, ErrUnknown or ErrMismatch describing the first difference.
func SameSet(have, want []int64) error {
	if err := Validate(want); err != nil {
		return err
	}
	current := make(map[int64]struct{}, len(have))
	for _, id := range have {
		current[id] = struct{}{}
	}
	for _, id := range want {
		if _, ok := current[id]; !ok {
			return fmt.Errorf("%w: %d", ErrUnknown, id)
		}
	}
	if len(want) != len(current) {
		return fmt.Errorf("%w: got %d ids, want %d", ErrMismatch, len(want), len(current))
	}
	return nil
}

// Move returns a copy of ids with id placed at the 1-based position newRank.
// Ranks beyond either end are clamped. If id is not in ids it is inserted.
func Move(ids []int64, id int64, newRank int) ([]int64, error) {
	out := make([]int64, 0, len(ids)+1)
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	if len(ids)-len(out) > 1 {
		return nil, fmt.Errorf("%w: %d", ErrDuplicate, id)
	}
	pos := newRank - 1
	if pos < 0 {
		pos = 0
	}
	if pos > len(out) {
		pos = len(out)
	}
	out = append(out, 0)
	copy(out[pos+1:], out[pos:])
	out[pos] = id
	return out, nil
}
