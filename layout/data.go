package layout

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync"
)

//go:embed data/*.jsonc
var dataFS embed.FS

// Builtin decodes the embedded layout table. Every call returns fresh layouts.
func Builtin() (map[string]*Layout, error) {
	files, err := fs.Glob(dataFS, "data/*.jsonc")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	pack := Pack{}
	for _, f := range files {
		data, err := dataFS.ReadFile(f)
		if err != nil {
			return nil, err
		}
		p, err := Decode(data, FormatJSON)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(f), err)
		}
		for name, doc := range p {
			if _, dup := pack[name]; dup {
				return nil, fmt.Errorf("%s: %w: %s", path.Base(f), ErrLayoutExists, name)
			}
			pack[name] = doc
		}
	}
	return Build(pack, nil)
}

var builtinOnce = sync.OnceValue(func() map[string]*Layout {
	layouts, err := Builtin()
	if err != nil {
		panic(fmt.Sprintf("embedded keyboard layouts: %v", err))
	}
	return layouts
})

// Default returns a new registry holding the built-in layout table.
// Applications extend or override layouts on the returned registry.
func Default() *Registry {
	return NewRegistryFrom(builtinOnce())
}
