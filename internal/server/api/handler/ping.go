package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/Alia5/vkbd/apitypes"
	"github.com/Alia5/vkbd/internal/server/api"
)

// ServerName identifies this server in ping responses.
const ServerName = "vkbd"

// Ping returns a handler that reports server identity and version.
func Ping(version string) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		b, err := json.Marshal(apitypes.PingResponse{Server: ServerName, Version: version})
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
