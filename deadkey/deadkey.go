// Package deadkey implements two-stroke character entry: a diacritic typed on
// a dead key combines with the next base character into one precomposed
// character.
package deadkey

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/tidwall/jsonc"
	"golang.org/x/text/unicode/norm"
)

// Table maps a diacritic to the base characters it composes with and the
// resulting characters.
type Table map[string]map[string]string

//go:embed marks.jsonc
var marksData []byte

type marksFile struct {
	Marks map[string]string `json:"marks"`
	Extra Table             `json:"extra"`
}

// Compose returns the precomposed form of base under diacritic.
func (t Table) Compose(diacritic, base string) (string, bool) {
	m, ok := t[diacritic]
	if !ok {
		return "", false
	}
	c, ok := m[base]
	return c, ok
}

// IsDead reports whether s is a registered diacritic.
func (t Table) IsDead(s string) bool {
	_, ok := t[s]
	return ok
}

// Diacritics returns the registered diacritics, sorted.
func (t Table) Diacritics() []string {
	out := make([]string, 0, len(t))
	for d := range t {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for d, m := range t {
		cp := make(map[string]string, len(m))
		for k, v := range m {
			cp[k] = v
		}
		out[d] = cp
	}
	return out
}

// Merge returns a copy of t with the entries of o added. Entries in o win.
func (t Table) Merge(o Table) Table {
	out := t.Clone()
	for d, m := range o {
		dst, ok := out[d]
		if !ok {
			dst = make(map[string]string, len(m))
			out[d] = dst
		}
		for k, v := range m {
			dst[k] = v
		}
	}
	return out
}

// Parse reads a table from JSON with comments, shaped
// { "<diacritic>": { "<base>": "<composed>" } }.
func Parse(data []byte) (Table, error) {
	var t Table
	if err := json.Unmarshal(jsonc.ToJSON(data), &t); err != nil {
		return nil, fmt.Errorf("parsing dead key table: %w", err)
	}
	return t, nil
}

// FromMarks derives a table from diacritic → combining mark sequences. A pair
// is kept when the NFC form of base+marks is a single character.
func FromMarks(marks map[string]string, bases []rune) Table {
	t := make(Table, len(marks))
	for d, mark := range marks {
		m := map[string]string{}
		for _, b := range bases {
			composed := norm.NFC.String(string(b) + mark)
			if utf8.RuneCountInString(composed) == 1 {
				m[string(b)] = composed
			}
		}
		t[d] = m
	}
	return t
}

// Bases returns the base characters the default table composes: ASCII and
// Latin-1 letters and the Greek alphabet.
func Bases() []rune {
	var out []rune
	for r := 'A'; r <= 'Z'; r++ {
		out = append(out, r)
	}
	for r := 'a'; r <= 'z'; r++ {
		out = append(out, r)
	}
	for r := rune(0xC0); r <= 0xFF; r++ {
		if r != 0xD7 && r != 0xF7 {
			out = append(out, r)
		}
	}
	for r := rune(0x391); r <= 0x3A9; r++ {
		if r != 0x3A2 {
			out = append(out, r)
		}
	}
	for r := rune(0x3B1); r <= 0x3C9; r++ {
		out = append(out, r)
	}
	return out
}

var defaultTable = sync.OnceValue(func() Table {
	var f marksFile
	if err := json.Unmarshal(jsonc.ToJSON(marksData), &f); err != nil {
		panic(fmt.Sprintf("embedded dead key marks: %v", err))
	}
	return FromMarks(f.Marks, Bases()).Merge(f.Extra)
})

// Default returns a copy of the built-in table.
func Default() Table {
	return defaultTable().Clone()
}
