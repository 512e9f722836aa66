package api

import "time"

// ServerConfig represents the serve subcommand API configuration.
type ServerConfig struct {
	Addr                 string        `help:"API server listen address" default:":3243" env:"VKBD_API_ADDR"`
	RequireLocalhostAuth bool          `help:"Require the password handshake for loopback clients too" default:"false" env:"VKBD_API_REQUIRE_LOCALHOST_AUTH"`
	SessionIdleTimeout   time.Duration `help:"Close a session stream after this long without input (0 disables)" default:"10m" env:"VKBD_API_SESSION_IDLE_TIMEOUT"`
	Password             string        `kong:"-"`
	ConnectionTimeout    time.Duration `kong:"-"`
}
