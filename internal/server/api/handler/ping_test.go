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

func TestPing(t *testing.T) {
	addr, _, done := handlerTest.StartAPIServer(t, func(r *api.Router, reg *layout.Registry, apiSrv *api.Server) {
		r.Register("ping", handler.Ping("1.2.3"))
	})
	defer done()

	line, err := apiclient.NewTransport(addr).Do("ping", nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, `{"server":"vkbd","version":"1.2.3"}`, line)
}
