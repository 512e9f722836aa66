package layout

import (
	"errors"
	"fmt"
	"strings"
)

// FunctionKey identifies a non-printing key on the on-screen keyboard.
type FunctionKey uint8

// Function keys. FuncNone marks a printable (or blank) Key.
const (
	FuncNone FunctionKey = iota
	KeyTab
	KeyCaps
	KeyShift
	KeyEnter
	KeyBksp
	KeyAlt
	KeyAltGr
	KeyAltLk
	KeySpace
)

// FunctionKeyName maps function keys to their canonical token names.
var FunctionKeyName = map[FunctionKey]string{
	KeyTab:   "Tab",
	KeyCaps:  "Caps",
	KeyShift: "Shift",
	KeyEnter: "Enter",
	KeyBksp:  "Bksp",
	KeyAlt:   "Alt",
	KeyAltGr: "AltGr",
	KeyAltLk: "AltLk",
	KeySpace: "Space",
}

var functionKeyByName = func() map[string]FunctionKey {
	m := make(map[string]FunctionKey, len(FunctionKeyName))
	for k, v := range FunctionKeyName {
		m[v] = k
	}
	return m
}()

// ErrUnknownFunctionKey is returned when a braced token does not name a FunctionKey.
var ErrUnknownFunctionKey = errors.New("unknown function key")

func (f FunctionKey) String() string {
	if n, ok := FunctionKeyName[f]; ok {
		return n
	}
	return "None"
}

// ParseFunctionKey looks up a function key by its token name ("Bksp", "AltGr", ...).
func ParseFunctionKey(name string) (FunctionKey, error) {
	if f, ok := functionKeyByName[name]; ok {
		return f, nil
	}
	return FuncNone, fmt.Errorf("%w: %q", ErrUnknownFunctionKey, name)
}

// Key is the output of one key slot position: either printable text or a
// function key. The zero Key is blank.
type Key struct {
	Text string
	Func FunctionKey
}

// Char returns a printable Key.
func Char(s string) Key { return Key{Text: s} }

// Fn returns a function Key.
func Fn(f FunctionKey) Key { return Key{Func: f} }

// IsBlank reports whether k produces nothing.
func (k Key) IsBlank() bool { return k.Func == FuncNone && k.Text == "" }

// IsFunction reports whether k is a function key.
func (k Key) IsFunction() bool { return k.Func != FuncNone }

// String returns the data-file form of k: printable text as-is, function keys
// as a braced token such as "{Bksp}".
func (k Key) String() string {
	if k.IsFunction() {
		return "{" + k.Func.String() + "}"
	}
	return k.Text
}

// Label returns a short human-readable caption for k.
func (k Key) Label() string {
	switch k.Func {
	case FuncNone:
		return k.Text
	case KeySpace:
		return "␣"
	default:
		return k.Func.String()
	}
}

// ParseKey parses the data-file form of a key. A token wrapped in braces with
// at least one character inside must name a FunctionKey.
func ParseKey(s string) (Key, error) {
	if len(s) > 2 && strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		f, err := ParseFunctionKey(s[1 : len(s)-1])
		if err != nil {
			return Key{}, err
		}
		return Fn(f), nil
	}
	return Char(s), nil
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// KeySlot lists the keys produced by one physical key for the modifier
// combinations none, Shift, AltGr and Shift+AltGr, in that order. Missing
// trailing entries are blank.
type KeySlot []Key

// MaxSlotKeys is the number of modifier combinations a slot can address.
const MaxSlotKeys = 4

// At returns the key at index i, or a blank Key if i is out of range.
func (s KeySlot) At(i int) Key {
	if i < 0 || i >= len(s) {
		return Key{}
	}
	return s[i]
}

// Primary returns the unmodified key of the slot.
func (s KeySlot) Primary() Key { return s.At(0) }

// Row is one horizontal row of key slots.
type Row []KeySlot

// Grid is the ordered rows of a layout.
type Grid []Row

// Clone returns a deep copy of g.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, row := range g {
		r := make(Row, len(row))
		for j, slot := range row {
			r[j] = append(KeySlot(nil), slot...)
		}
		out[i] = r
	}
	return out
}
