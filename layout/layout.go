// Package layout holds on-screen keyboard layouts: named grids of key slots
// together with the locales each layout serves, and a registry that starts
// from the built-in table and accepts application overrides.
package layout

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var (
	ErrInvalidLayout = errors.New("invalid layout")
	ErrInvalidSlot   = errors.New("invalid key slot")
	ErrOutOfRange    = errors.New("key position out of range")
)

// Layout is one keyboard layout.
type Layout struct {
	// Name is the human-readable label, e.g. "German".
	Name string `json:"name"`
	// Keys are the rows of key slots.
	Keys Grid `json:"keys"`
	// Lang lists the BCP 47 tags this layout is the default for.
	Lang []string `json:"lang,omitempty"`
	// DeadKeys lists the diacritics that act as dead keys on this layout.
	// Empty means the layout has no dead keys.
	DeadKeys string `json:"deadKeys,omitempty"`
}

// Clone returns a deep copy of l. Nothing is shared with the original.
func (l *Layout) Clone() *Layout {
	if l == nil {
		return nil
	}
	return &Layout{
		Name:     l.Name,
		Keys:     l.Keys.Clone(),
		Lang:     append([]string(nil), l.Lang...),
		DeadKeys: l.DeadKeys,
	}
}

// Validate checks the structural invariants of l and returns every problem
// found joined into one error.
func (l *Layout) Validate() error {
	var errs []error
	if strings.TrimSpace(l.Name) == "" {
		errs = append(errs, fmt.Errorf("%w: empty name", ErrInvalidLayout))
	}
	if len(l.Keys) == 0 {
		errs = append(errs, fmt.Errorf("%w: no rows", ErrInvalidLayout))
	}
	for r, row := range l.Keys {
		if len(row) == 0 {
			errs = append(errs, fmt.Errorf("%w: row %d is empty", ErrInvalidLayout, r))
		}
		for c, slot := range row {
			if len(slot) < 1 || len(slot) > MaxSlotKeys {
				errs = append(errs, fmt.Errorf("%w: row %d col %d has %d entries", ErrInvalidSlot, r, c, len(slot)))
			}
		}
	}
	for _, tag := range l.Lang {
		if _, err := language.Parse(tag); err != nil {
			errs = append(errs, fmt.Errorf("%w: lang %q: %v", ErrInvalidLayout, tag, err))
		}
	}
	return errors.Join(errs...)
}

// Slot returns the key slot at row, col.
func (l *Layout) Slot(row, col int) (KeySlot, error) {
	if row < 0 || row >= len(l.Keys) {
		return nil, fmt.Errorf("%w: row %d", ErrOutOfRange, row)
	}
	if col < 0 || col >= len(l.Keys[row]) {
		return nil, fmt.Errorf("%w: row %d col %d", ErrOutOfRange, row, col)
	}
	return l.Keys[row][col], nil
}

// Find returns the position of the first slot whose primary key is f.
func (l *Layout) Find(f FunctionKey) (row, col int, ok bool) {
	for r, rw := range l.Keys {
		for c, slot := range rw {
			if slot.Primary().Func == f {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// IsDeadKey reports whether text is one of the layout's dead keys.
func (l *Layout) IsDeadKey(text string) bool {
	if text == "" || l.DeadKeys == "" {
		return false
	}
	for _, r := range l.DeadKeys {
		if string(r) == text {
			return true
		}
	}
	return false
}

// SlotCount returns the number of key slots across all rows.
func (l *Layout) SlotCount() int {
	n := 0
	for _, row := range l.Keys {
		n += len(row)
	}
	return n
}
