package handler_test

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/vkbd/apiclient"
	"github.com/Alia5/vkbd/apitypes"
	"github.com/Alia5/vkbd/internal/server/api"
	"github.com/Alia5/vkbd/internal/server/api/handler"
	handlerTest "github.com/Alia5/vkbd/internal/testing"
	"github.com/Alia5/vkbd/layout"
)

func registerLayoutRoutes(r *api.Router, reg *layout.Registry, apiSrv *api.Server) {
	r.Register("layout/list", handler.LayoutList(reg))
	r.Register("layout/get", handler.LayoutGet(reg))
	r.Register("layout/locale", handler.LayoutLocale(reg))
	r.Register("layout/check", handler.LayoutCheck(reg))
	r.Register("layout/{name}", handler.LayoutGet(reg))
}

func TestLayoutList(t *testing.T) {
	addr, reg, done := handlerTest.StartAPIServer(t, registerLayoutRoutes)
	defer done()

	line, err := apiclient.NewTransport(addr).Do("layout/list", nil, nil)
	require.NoError(t, err)

	var resp apitypes.LayoutListResponse
	require.NoError(t, json.Unmarshal([]byte(line), &resp))
	require.Len(t, resp.Layouts, reg.Len())

	names := make([]string, len(resp.Layouts))
	for i, l := range resp.Layouts {
		names[i] = l.Name
		if l.Name == "US Standard" {
			assert.Equal(t, "US Standard", l.Label)
			assert.Equal(t, []string{"en-US"}, l.Lang)
			assert.Equal(t, 5, l.Rows)
			assert.Empty(t, l.DeadKeys)
		}
		if l.Name == "Deutsch" {
			assert.Equal(t, "German", l.Label)
			assert.NotEmpty(t, l.DeadKeys)
		}
	}
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "Русский")
}

func TestLayoutGet(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		payload   any
		params    map[string]string
		wantName  string
		wantLabel string
		wantErr   string
	}{
		{name: "by payload", path: "layout/get", payload: "Deutsch", wantName: "Deutsch", wantLabel: "German"},
		{name: "by route", path: "layout/{name}", params: map[string]string{"name": "US Standard"}, wantName: "US Standard", wantLabel: "US Standard"},
		{name: "non-ascii route", path: "layout/{name}", params: map[string]string{"name": "Ελληνικά"}, wantName: "Ελληνικά", wantLabel: "Greek"},
		{name: "unknown", path: "layout/get", payload: "Klingon", wantErr: `{"status":404,"title":"Not Found","detail":"unknown layout: Klingon"}`},
		{name: "missing", path: "layout/get", wantErr: `{"status":400,"title":"Bad Request","detail":"missing layout name"}`},
		{name: "locale", path: "layout/locale", payload: "de-AT", wantName: "Deutsch", wantLabel: "German"},
		{name: "locale missing", path: "layout/locale", wantErr: `{"status":400,"title":"Bad Request","detail":"missing locale"}`},
		{name: "locale unmatched", path: "layout/locale", payload: "am", wantErr: `{"status":404,"title":"Not Found","detail":"no layout for locale: am"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, _, done := handlerTest.StartAPIServer(t, registerLayoutRoutes)
			defer done()

			line, err := apiclient.NewTransport(addr).Do(tt.path, tt.payload, tt.params)
			require.NoError(t, err)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, line)
				return
			}
			var l apitypes.Layout
			require.NoError(t, json.Unmarshal([]byte(line), &l))
			assert.Equal(t, tt.wantName, l.Name)
			assert.Equal(t, tt.wantLabel, l.Label)
			assert.NotEmpty(t, l.Keys)
		})
	}
}

func TestLayoutGetKeysRoundTrip(t *testing.T) {
	addr, reg, done := handlerTest.StartAPIServer(t, registerLayoutRoutes)
	defer done()

	line, err := apiclient.NewTransport(addr).Do("layout/get", "Deutsch", nil)
	require.NoError(t, err)
	var got apitypes.Layout
	require.NoError(t, json.Unmarshal([]byte(line), &got))

	doc := layout.Document{Name: got.Label, Keys: got.Keys, Lang: got.Lang, DeadKeys: got.DeadKeys}
	l, err := doc.Layout()
	require.NoError(t, err)
	want, err := reg.Get("Deutsch")
	require.NoError(t, err)
	assert.Equal(t, want, l)
}

func TestLayoutCheck(t *testing.T) {
	addr, reg, done := handlerTest.StartAPIServer(t, registerLayoutRoutes)
	defer done()

	line, err := apiclient.NewTransport(addr).Do("layout/check", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"issues":[]}`, line)

	require.NoError(t, reg.Register("Broken", &layout.Layout{
		Name: "Broken",
		Keys: layout.Grid{{{layout.Char("Enter")}}},
		Lang: []string{"en-US"},
	}))
	line, err = apiclient.NewTransport(addr).Do("layout/check", nil, nil)
	require.NoError(t, err)
	var resp apitypes.LayoutCheckResponse
	require.NoError(t, json.Unmarshal([]byte(line), &resp))
	assert.NotEmpty(t, resp.Issues)
}
