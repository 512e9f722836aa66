package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/vkbd/internal/log"
	"github.com/Alia5/vkbd/keyboard"
	"github.com/Alia5/vkbd/layout"
)

func TestTypeCommand(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Type
		want    string
		wantErr error
	}{
		{
			name: "plain",
			cmd:  Type{Layout: "Deutsch", Text: "Hi", Verify: true},
			want: "Shift+H@2,6\ni@1,8\n",
		},
		{
			name: "by locale",
			cmd:  Type{Layout: "de-CH", Text: "i"},
			want: "i@1,8\n",
		},
		{
			name: "altgr",
			cmd:  Type{Layout: "Deutsch", Text: "@", Verify: true},
			want: "AltGr+@@1,1\n",
		},
		{
			name:    "dead keys disabled",
			cmd:     Type{Layout: "Deutsch", Text: "â", NoDeadKeys: true},
			wantErr: keyboard.ErrUnreachable,
		},
		{
			name:    "unknown layout",
			cmd:     Type{Layout: "Nope", Text: "a"},
			wantErr: layout.ErrUnknownLayout,
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

func TestTypeCommandJSON(t *testing.T) {
	var buf bytes.Buffer
	c := Type{Layout: "Deutsch", Text: "é", JSON: true, Verify: true, LayoutSource: builtinOnly}
	require.NoError(t, c.run(&buf, log.Discard()))

	var strokes []keyboard.Stroke
	require.NoError(t, json.Unmarshal(buf.Bytes(), &strokes))
	require.Len(t, strokes, 2)
	assert.Equal(t, layout.Char("´"), strokes[0].Key)
	assert.Equal(t, layout.Char("e"), strokes[1].Key)
}
