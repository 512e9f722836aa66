// Package config declares the vkbd command line. Every flag can also come
// from a JSON, YAML or TOML config file or from its VKBD_* environment
// variable.
package config

import "github.com/Alia5/vkbd/internal/cmd"

type CLI struct {
	ConfigFile string `name:"config" help:"Path to a config file (json, yaml or toml)" env:"VKBD_CONFIG" type:"path"`

	Log struct {
		Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"VKBD_LOG_LEVEL"`
		File    string `help:"Also write logs to this file" env:"VKBD_LOG_FILE"`
		RawFile string `help:"Write raw API frames to this file" env:"VKBD_LOG_RAW_FILE"`
	} `embed:"" prefix:"log."`

	Serve   cmd.Serve         `cmd:"" help:"Run the layout API server"`
	Layouts cmd.Layouts       `cmd:"" help:"Inspect and convert keyboard layouts"`
	Type    cmd.Type          `cmd:"" help:"Print the key presses that type a text"`
	Press   cmd.Press         `cmd:"" help:"Run key presses through a session and print the result"`
	Config  cmd.ConfigCommand `cmd:"" help:"Configuration helpers"`

	Install   cmd.Install   `cmd:"" help:"Install vkbd serve as a system service"`
	Uninstall cmd.Uninstall `cmd:"" help:"Remove the vkbd system service"`
}
