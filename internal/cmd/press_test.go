package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/vkbd/internal/log"
	"github.com/Alia5/vkbd/keyboard"
	"github.com/Alia5/vkbd/layout"
)

func TestPressCommand(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Press
		want    string
		wantErr error
	}{
		{
			name: "shift is one-shot",
			cmd:  Press{Layout: "Deutsch", Keys: []string{"{Shift}", "2,6", "1,8"}},
			want: "Hi\n",
		},
		{
			name: "dead key composes",
			cmd:  Press{Layout: "Deutsch", Keys: []string{"0,12", "1 3"}},
			want: "é\n",
		},
		{
			name: "dead keys disabled",
			cmd:  Press{Layout: "Deutsch", Keys: []string{"0,12", "1,3"}, NoDeadKeys: true},
			want: "´e\n",
		},
		{
			name: "backspace edits initial text",
			cmd:  Press{Layout: "US Standard", Text: "ab", Keys: []string{"{Bksp}", "2,1"}},
			want: "aa\n",
		},
		{
			name: "single line stops at enter",
			cmd:  Press{Layout: "US Standard", Keys: []string{"2,1", "{Enter}", "2,2"}, SingleLine: true},
			want: "a\n",
		},
		{
			name:    "out of range",
			cmd:     Press{Layout: "Deutsch", Keys: []string{"9,9"}},
			wantErr: layout.ErrOutOfRange,
		},
		{
			name:    "missing function key",
			cmd:     Press{Layout: "US Standard", Keys: []string{"{AltGr}"}},
			wantErr: keyboard.ErrUnreachable,
		},
		{
			name:    "unknown function key",
			cmd:     Press{Layout: "US Standard", Keys: []string{"{Hyper}"}},
			wantErr: layout.ErrUnknownFunctionKey,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.cmd.LayoutSource = builtinOnly
			err := tt.cmd.run(&buf, log.Discard())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPressCommandJSON(t *testing.T) {
	var buf bytes.Buffer
	c := Press{Layout: "Deutsch", Keys: []string{"{Caps}", "2,1", "0,12"}, JSON: true, LayoutSource: builtinOnly}
	require.NoError(t, c.run(&buf, log.Discard()))
	assert.JSONEq(t, `{"buffer":"A","caret":1,"caps":true,"shift":false,"alt":false,"altLock":false,"pending":"´"}`, buf.String())
}

func TestKeyPosition(t *testing.T) {
	l, err := layout.Default().Get("Deutsch")
	require.NoError(t, err)

	r, c, err := keyPosition(l, "{Enter}")
	require.NoError(t, err)
	assert.Equal(t, [2]int{1, 13}, [2]int{r, c})

	r, c, err = keyPosition(l, "3,0")
	require.NoError(t, err)
	assert.Equal(t, [2]int{3, 0}, [2]int{r, c})

	_, _, err = keyPosition(l, "{}")
	assert.Error(t, err)
	_, _, err = keyPosition(l, "x")
	assert.Error(t, err)
}
