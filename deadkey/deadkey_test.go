package deadkey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/vkbd/deadkey"
)

func TestDefaultCompose(t *testing.T) {
	table := deadkey.Default()

	tests := []struct {
		diacritic string
		base      string
		want      string
		ok        bool
	}{
		{diacritic: "^", base: "a", want: "â", ok: true},
		{diacritic: "^", base: "E", want: "Ê", ok: true},
		{diacritic: "´", base: "e", want: "é", ok: true},
		{diacritic: "`", base: "u", want: "ù", ok: true},
		{diacritic: "¨", base: "o", want: "ö", ok: true},
		{diacritic: "~", base: "n", want: "ñ", ok: true},
		{diacritic: "~", base: "l", want: "ł", ok: true},
		{diacritic: "ˇ", base: "c", want: "č", ok: true},
		{diacritic: "˛", base: "a", want: "ą", ok: true},
		{diacritic: "°", base: "a", want: "å", ok: true},
		{diacritic: "¸", base: "c", want: "ç", ok: true},
		{diacritic: "˝", base: "o", want: "ő", ok: true},
		{diacritic: "΄", base: "α", want: "ά", ok: true},
		{diacritic: "¨", base: "ι", want: "ϊ", ok: true},
		{diacritic: "΅", base: "ι", want: "ΐ", ok: true},
		{diacritic: "^", base: "q", ok: false},
		{diacritic: "x", base: "a", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.diacritic+tt.base, func(t *testing.T) {
			got, ok := table.Compose(tt.diacritic, tt.base)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultIsCopy(t *testing.T) {
	a := deadkey.Default()
	a["^"]["a"] = "x"
	delete(a, "´")

	b := deadkey.Default()
	c, ok := b.Compose("^", "a")
	assert.True(t, ok)
	assert.Equal(t, "â", c)
	assert.True(t, b.IsDead("´"))
}

func TestParseAndMerge(t *testing.T) {
	extra, err := deadkey.Parse([]byte(`{
  // Vietnamese horn
  "̛": { "o": "ơ", "u": "ư" },
  "^": { "q": "ꝗ" },
}`))
	require.NoError(t, err)

	merged := deadkey.Default().Merge(extra)
	c, ok := merged.Compose("̛", "o")
	assert.True(t, ok)
	assert.Equal(t, "ơ", c)
	c, ok = merged.Compose("^", "q")
	assert.True(t, ok)
	assert.Equal(t, "ꝗ", c)
	c, ok = merged.Compose("^", "a")
	assert.True(t, ok)
	assert.Equal(t, "â", c)

	_, err = deadkey.Parse([]byte(`{"^": "a"}`))
	assert.Error(t, err)
}

func TestFromMarks(t *testing.T) {
	table := deadkey.FromMarks(map[string]string{"'": "́"}, []rune("aqé"))
	assert.Equal(t, map[string]string{"a": "á"}, table["'"])
	assert.Equal(t, []string{"'"}, table.Diacritics())
}
