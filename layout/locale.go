package layout

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var (
	ErrNoLayoutForLocale = errors.New("no layout for locale")
	ErrInvalidLocale     = errors.New("invalid locale")
)

// ForLocale returns the layout that serves tag. An exact match on a layout's
// lang list wins; otherwise the closest language match is used, e.g. "de-AT"
// picks the layout declaring "de". Ties go to the first name in sorted order.
//
// Scripts count: a layout whose tag implies a different script than tag is
// only used when the matcher is highly confident, so "sr" (Cyrillic by
// default) does not fall back to a layout declaring "sr-Latn".
func (r *Registry) ForLocale(tag string) (name string, l *Layout, err error) {
	want, err := language.Parse(tag)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %q: %v", ErrInvalidLocale, tag, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.namesLocked()
	for _, n := range names {
		for _, lang := range r.layouts[n].Lang {
			if strings.EqualFold(lang, tag) {
				return n, r.layouts[n].Clone(), nil
			}
		}
	}

	var supported []language.Tag
	var owners []string
	for _, n := range names {
		for _, lang := range r.layouts[n].Lang {
			t, err := language.Parse(lang)
			if err != nil {
				continue
			}
			supported = append(supported, t)
			owners = append(owners, n)
		}
	}
	if len(supported) == 0 {
		return "", nil, fmt.Errorf("%w: %s", ErrNoLayoutForLocale, tag)
	}

	_, idx, conf := language.NewMatcher(supported).Match(want)
	if conf == language.No || idx < 0 || idx >= len(owners) {
		return "", nil, fmt.Errorf("%w: %s", ErrNoLayoutForLocale, tag)
	}
	if conf < language.High && !sameScript(want, supported[idx]) {
		return "", nil, fmt.Errorf("%w: %s", ErrNoLayoutForLocale, tag)
	}
	n := owners[idx]
	return n, r.layouts[n].Clone(), nil
}

func sameScript(a, b language.Tag) bool {
	sa, _ := a.Script()
	sb, _ := b.Script()
	return sa == sb
}
