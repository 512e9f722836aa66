package layout

import (
	"fmt"
	"strings"
)

// Issue is a data-quality finding that does not make a layout invalid.
type Issue struct {
	Layout string `json:"layout"`
	Detail string `json:"detail"`
}

func (i Issue) String() string { return i.Layout + ": " + i.Detail }

// Check lints the registry: locale tags claimed by more than one layout and
// printable keys spelled like a function key token without braces.
func (r *Registry) Check() []Issue {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var issues []Issue
	claims := map[string][]string{}
	for _, name := range r.namesLocked() {
		l := r.layouts[name]
		for _, tag := range l.Lang {
			key := strings.ToLower(tag)
			claims[key] = append(claims[key], name)
		}
		for ri, row := range l.Keys {
			for ci, slot := range row {
				for _, k := range slot {
					if k.IsFunction() {
						continue
					}
					if looksLikeFunctionKey(k.Text) {
						issues = append(issues, Issue{
							Layout: name,
							Detail: fmt.Sprintf("row %d col %d: text %q looks like a function key", ri, ci, k.Text),
						})
					}
				}
			}
		}
	}
	for _, name := range r.namesLocked() {
		for _, tag := range r.layouts[name].Lang {
			owners := claims[strings.ToLower(tag)]
			if len(owners) > 1 && owners[0] == name {
				issues = append(issues, Issue{
					Layout: name,
					Detail: fmt.Sprintf("lang %q also claimed by %s", tag, strings.Join(owners[1:], ", ")),
				})
			}
		}
	}
	return issues
}

func looksLikeFunctionKey(s string) bool {
	t := strings.Trim(s, "{}")
	if len(t) < 2 {
		return false
	}
	for _, name := range FunctionKeyName {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}
