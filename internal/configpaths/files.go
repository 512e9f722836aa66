// Package configpaths locates vkbd configuration files and layout packs.
package configpaths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	appName   = "vkbd"
	systemDir = "/etc/vkbd"
)

// configBases are the file stems tried for CLI configuration.
var configBases = []string{"config", "serve"}

// DefaultConfigDir returns the per-user configuration directory.
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		if appdata := os.Getenv("AppData"); appdata != "" {
			return filepath.Join(appdata, appName), nil
		}
		return "", errors.New("AppData not set")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", appName), nil
	}
	return "", errors.New("HOME not set")
}

// DefaultNamedConfigPath returns <config dir>/<baseName>.<ext> for format.
func DefaultNamedConfigPath(baseName, format string) (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, baseName+"."+Ext(format)), nil
}

// Ext maps a format name to its canonical file extension.
func Ext(format string) string {
	switch format {
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return "json"
	}
}

// NormalizeFormat maps a config format name or alias to "json", "yaml" or
// "toml". Unknown formats yield "".
func NormalizeFormat(f string) string {
	switch strings.ToLower(f) {
	case "json":
		return "json"
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	}
	return ""
}

// EnsureDir creates the parent directory of filePath.
func EnsureDir(filePath string) error {
	return os.MkdirAll(filepath.Dir(filePath), 0o755)
}

// LayoutDirs returns the directories searched for user layout packs, lowest
// priority first: the system directory, then the per-user one.
func LayoutDirs() []string {
	var dirs []string
	if runtime.GOOS != "windows" {
		dirs = append(dirs, filepath.Join(systemDir, "layouts"))
	}
	if dir, err := DefaultConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, "layouts"))
	}
	return dirs
}

// ConfigCandidatePaths returns config file candidates per loader, highest
// priority first. userPath, when set, is routed to the loader matching its
// extension and tried before everything else.
func ConfigCandidatePaths(userPath string) (jsonPaths, yamlPaths, tomlPaths []string) {
	if userPath != "" {
		switch filepath.Ext(userPath) {
		case ".yaml", ".yml":
			yamlPaths = append(yamlPaths, userPath)
		case ".toml":
			tomlPaths = append(tomlPaths, userPath)
		default:
			jsonPaths = append(jsonPaths, userPath)
		}
	}

	addDir := func(dir string, bases ...string) {
		for _, base := range bases {
			p := filepath.Join(dir, base)
			jsonPaths = append(jsonPaths, p+".json")
			yamlPaths = append(yamlPaths, p+".yaml", p+".yml")
			tomlPaths = append(tomlPaths, p+".toml")
		}
	}

	if wd, err := os.Getwd(); err == nil {
		addDir(wd, append([]string{appName}, configBases...)...)
	}
	if dir, err := DefaultConfigDir(); err == nil {
		addDir(dir, configBases...)
	}
	if runtime.GOOS != "windows" {
		addDir(systemDir, configBases...)
	}
	return jsonPaths, yamlPaths, tomlPaths
}
