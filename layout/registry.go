package layout

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnknownLayout = errors.New("unknown layout")
	ErrLayoutExists  = errors.New("layout already registered")
)

// Registry holds the layout table. Layouts are stored and handed out as deep
// copies, so no caller can mutate the table or another caller's layout.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	layouts map[string]*Layout
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{layouts: make(map[string]*Layout)}
}

// NewRegistryFrom returns a registry holding copies of layouts.
func NewRegistryFrom(layouts map[string]*Layout) *Registry {
	r := NewRegistry()
	for name, l := range layouts {
		r.layouts[name] = l.Clone()
	}
	return r
}

// Register adds a layout under name. Name lookup is case-insensitive.
func (r *Registry) Register(name string, l *Layout) error {
	if err := l.Validate(); err != nil {
		return fmt.Errorf("layout %q: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing := r.keyLocked(name); existing != "" {
		return fmt.Errorf("%w: %s", ErrLayoutExists, existing)
	}
	r.layouts[name] = l.Clone()
	return nil
}

// Override adds or replaces the layout registered under name.
func (r *Registry) Override(name string, l *Layout) error {
	if err := l.Validate(); err != nil {
		return fmt.Errorf("layout %q: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing := r.keyLocked(name); existing != "" {
		delete(r.layouts, existing)
	}
	r.layouts[name] = l.Clone()
	return nil
}

// Remove deletes a layout. It reports whether the layout existed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.keyLocked(name)
	if key == "" {
		return false
	}
	delete(r.layouts, key)
	return true
}

// Alias registers alias with a deep copy of source's keys and dead keys,
// and the given display label and locale tags.
func (r *Registry) Alias(alias, source, label string, lang ...string) error {
	src, err := r.Get(source)
	if err != nil {
		return err
	}
	src.Name = label
	src.Lang = lang
	return r.Register(alias, src)
}

// Get returns a copy of the layout registered under name.
func (r *Registry) Get(name string) (*Layout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := r.keyLocked(name)
	if key == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLayout, name)
	}
	return r.layouts[key].Clone(), nil
}

// Has reports whether a layout is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keyLocked(name) != ""
}

// Names returns the registered layout names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

// All returns copies of every registered layout keyed by name.
func (r *Registry) All() map[string]*Layout {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Layout, len(r.layouts))
	for name, l := range r.layouts {
		out[name] = l.Clone()
	}
	return out
}

// Len returns the number of registered layouts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.layouts)
}

// Merge registers every layout of a pack, replacing layouts with the same
// name. Aliases in the pack may refer to layouts already in the registry.
func (r *Registry) Merge(p Pack) error {
	built, err := Build(p, func(name string) (*Layout, bool) {
		l, err := r.Get(name)
		return l, err == nil
	})
	if err != nil {
		return err
	}
	names := make([]string, 0, len(built))
	for name := range built {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := r.Override(name, built[name]); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile merges a layout pack file. The format follows the extension.
func (r *Registry) LoadFile(path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	p, err := Decode(data, format)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := r.Merge(p); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadDir merges every layout pack file in dir in lexical order. Files with
// unsupported extensions are skipped.
func (r *Registry) LoadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var loaded []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := FormatFromPath(e.Name()); err != nil {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := r.LoadFile(path); err != nil {
			return loaded, err
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// Pack returns the registry contents in serialized form.
func (r *Registry) Pack() Pack {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := make(Pack, len(r.layouts))
	for name, l := range r.layouts {
		p[name] = ToDocument(l)
	}
	return p
}

// Export writes the registry in the given format.
func (r *Registry) Export(w io.Writer, format Format) error {
	return Encode(w, r.Pack(), format)
}

func (r *Registry) keyLocked(name string) string {
	if _, ok := r.layouts[name]; ok {
		return name
	}
	lower := strings.ToLower(name)
	for k := range r.layouts {
		if strings.ToLower(k) == lower {
			return k
		}
	}
	return ""
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
