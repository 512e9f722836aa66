//go:build windows

package main

import (
	"log/slog"
	"os"
	"slices"

	"github.com/Alia5/vkbd/internal/util"
)

// A double-clicked vkbd.exe has no arguments; start the server.
func init() {
	if !util.IsRunFromGUI() || slices.Contains(os.Args[1:], "serve") {
		return
	}
	slog.Info("Detected GUI startup, running 'serve'")
	os.Args = slices.Insert(os.Args, 1, "serve")
}
