package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"
	toml "github.com/pelletier/go-toml"
	"github.com/tidwall/jsonc"
	yaml "gopkg.in/yaml.v3"
)

// Document is the serialized form of a layout. Keys hold the data-file form
// of each key (see Key.String). Alias names another layout whose keys are
// copied when Keys is empty.
type Document struct {
	Name     string       `json:"name" yaml:"name" toml:"name" cbor:"name"`
	Keys     [][][]string `json:"keys,omitempty" yaml:"keys,omitempty" toml:"keys,omitempty" cbor:"keys,omitempty"`
	Lang     []string     `json:"lang,omitempty" yaml:"lang,omitempty,flow" toml:"lang,omitempty" cbor:"lang,omitempty"`
	DeadKeys string       `json:"deadKeys,omitempty" yaml:"deadKeys,omitempty" toml:"deadKeys,omitempty" cbor:"deadKeys,omitempty"`
	Alias    string       `json:"alias,omitempty" yaml:"alias,omitempty" toml:"alias,omitempty" cbor:"alias,omitempty"`
}

// Pack maps layout keys (native layout names) to documents.
type Pack map[string]Document

// Format is a serialization format for layout packs.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatCBOR Format = "cbor"
)

// Formats lists every supported pack format.
var Formats = []Format{FormatJSON, FormatYAML, FormatTOML, FormatCBOR}

var ErrUnsupportedFormat = errors.New("unsupported layout format")

// ParseFormat normalizes a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "jsonc":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "cbor":
		return FormatCBOR, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ToDocument converts l to its serialized form.
func ToDocument(l *Layout) Document {
	keys := make([][][]string, len(l.Keys))
	for i, row := range l.Keys {
		r := make([][]string, len(row))
		for j, slot := range row {
			s := make([]string, len(slot))
			for k, key := range slot {
				s[k] = key.String()
			}
			r[j] = s
		}
		keys[i] = r
	}
	return Document{
		Name:     l.Name,
		Keys:     keys,
		Lang:     append([]string(nil), l.Lang...),
		DeadKeys: l.DeadKeys,
	}
}

// Layout converts d to a Layout without resolving aliases or validating.
func (d Document) Layout() (*Layout, error) {
	l := &Layout{
		Name:     d.Name,
		Lang:     append([]string(nil), d.Lang...),
		DeadKeys: d.DeadKeys,
	}
	var errs []error
	if len(d.Keys) > 0 {
		l.Keys = make(Grid, len(d.Keys))
	}
	for i, row := range d.Keys {
		r := make(Row, len(row))
		for j, slot := range row {
			s := make(KeySlot, len(slot))
			for k, raw := range slot {
				key, err := ParseKey(raw)
				if err != nil {
					errs = append(errs, fmt.Errorf("row %d col %d: %w", i, j, err))
					continue
				}
				s[k] = key
			}
			r[j] = s
		}
		l.Keys[i] = r
	}
	return l, errors.Join(errs...)
}

// Decode reads a pack in the given format. JSON input may carry comments and
// trailing commas.
func Decode(data []byte, format Format) (Pack, error) {
	var p Pack
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(jsonc.ToJSON(data), &p)
	case FormatYAML:
		err = yaml.Unmarshal(data, &p)
	case FormatTOML:
		err = toml.Unmarshal(data, &p)
	case FormatCBOR:
		err = cbor.Unmarshal(data, &p)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s layouts: %w", format, err)
	}
	return p, nil
}

// Encode writes p in the given format.
func Encode(w io.Writer, p Pack, format Format) error {
	var data []byte
	var err error
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		err = enc.Encode(p)
		data = buf.Bytes()
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err = enc.Encode(p); err == nil {
			err = enc.Close()
		}
		data = buf.Bytes()
	case FormatTOML:
		data, err = toml.Marshal(p)
	case FormatCBOR:
		data, err = cbor.Marshal(p)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("encode %s layouts: %w", format, err)
	}
	_, err = w.Write(data)
	return err
}

// Build turns a pack into validated layouts. Alias entries receive a deep
// copy of their source's keys; sources are looked up in the pack first and
// then through external, which may be nil.
func Build(p Pack, external func(name string) (*Layout, bool)) (map[string]*Layout, error) {
	out := make(map[string]*Layout, len(p))
	var errs []error

	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)

	var resolve func(name string, seen map[string]bool) (*Layout, error)
	resolve = func(name string, seen map[string]bool) (*Layout, error) {
		if l, ok := out[name]; ok {
			return l, nil
		}
		doc, ok := p[name]
		if !ok {
			if external != nil {
				if l, ok := external(name); ok {
					return l, nil
				}
			}
			return nil, fmt.Errorf("%w: alias source %q not found", ErrInvalidLayout, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: alias cycle at %q", ErrInvalidLayout, name)
		}
		seen[name] = true

		l, err := doc.Layout()
		if err != nil {
			return nil, err
		}
		if doc.Alias != "" && len(l.Keys) == 0 {
			src, err := resolve(doc.Alias, seen)
			if err != nil {
				return nil, err
			}
			l.Keys = src.Keys.Clone()
			if l.DeadKeys == "" {
				l.DeadKeys = src.DeadKeys
			}
		}
		if err := l.Validate(); err != nil {
			return nil, err
		}
		out[name] = l
		return l, nil
	}

	for _, name := range names {
		if _, err := resolve(name, map[string]bool{}); err != nil {
			errs = append(errs, fmt.Errorf("layout %q: %w", name, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Parse decodes and builds a JSONC layout pack.
func Parse(data []byte) (map[string]*Layout, error) {
	p, err := Decode(data, FormatJSON)
	if err != nil {
		return nil, err
	}
	return Build(p, nil)
}
