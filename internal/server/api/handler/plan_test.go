package handler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/vkbd/apiclient"
	"github.com/Alia5/vkbd/internal/server/api"
	"github.com/Alia5/vkbd/internal/server/api/handler"
	handlerTest "github.com/Alia5/vkbd/internal/testing"
	"github.com/Alia5/vkbd/layout"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name             string
		payload          string
		expectedResponse string
	}{
		{
			name:             "shifted and plain",
			payload:          `{"layout":"US Standard","text":"Hi"}`,
			expectedResponse: `{"layout":"US Standard","strokes":[{"row":2,"col":6,"shift":true,"key":"H"},{"row":1,"col":8,"key":"i"}]}`,
		},
		{
			name:             "space maps to function key",
			payload:          `{"layout":"US Standard","text":"a b"}`,
			expectedResponse: `{"layout":"US Standard","strokes":[{"row":2,"col":1,"key":"a"},{"row":4,"col":0,"key":"{Space}"},{"row":3,"col":5,"key":"b"}]}`,
		},
		{
			name:             "dead key composition",
			payload:          `{"layout":"Deutsch","text":"â"}`,
			expectedResponse: `{"layout":"Deutsch","strokes":[{"row":0,"col":0,"key":"^"},{"row":2,"col":1,"key":"a"}]}`,
		},
		{
			name:             "composition disabled",
			payload:          `{"layout":"Deutsch","text":"â","noDeadKeys":true}`,
			expectedResponse: `{"status":422,"title":"Unprocessable Entity","detail":"character not reachable on layout: \"â\" on German"}`,
		},
		{
			name:             "empty text",
			payload:          `{"layout":"US Standard","text":""}`,
			expectedResponse: `{"layout":"US Standard","strokes":[]}`,
		},
		{
			name:             "unknown layout",
			payload:          `{"layout":"Nope","text":"a"}`,
			expectedResponse: `{"status":404,"title":"Not Found","detail":"unknown layout: Nope"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, _, done := handlerTest.StartAPIServer(t, func(r *api.Router, reg *layout.Registry, apiSrv *api.Server) {
				r.Register("plan", handler.Plan(reg, apiSrv.DeadKeys()))
			})
			defer done()

			line, err := apiclient.NewTransport(addr).Do("plan", tt.payload, nil)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedResponse, line)
		})
	}
}
