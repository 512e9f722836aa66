//go:build !windows

// Package util holds platform helpers for double-click launches of the
// server binary.
package util

// IsRunFromGUI reports whether the process was started from a file manager
// rather than a shell. Only Windows can tell.
func IsRunFromGUI() bool { return false }

func HideConsoleWindow() {}
