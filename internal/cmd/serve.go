package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/Alia5/vkbd/internal/configpaths"
	"github.com/Alia5/vkbd/internal/log"
	"github.com/Alia5/vkbd/internal/server/api"
	"github.com/Alia5/vkbd/internal/server/api/auth"
	"github.com/Alia5/vkbd/internal/server/api/handler"
	"github.com/Alia5/vkbd/internal/util"
)

const keyFileName = "vkbd.key.txt"

// Version is set at build time with -ldflags "-X github.com/Alia5/vkbd/internal/cmd.Version=...".
var Version = ""

func version() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

type Serve struct {
	ApiServerConfig   api.ServerConfig `embed:"" prefix:"api."`
	ConnectionTimeout time.Duration    `help:"Timeout for one request/response exchange" default:"30s" env:"VKBD_CONNECTION_TIMEOUT"`
	NoAuth            bool             `help:"Do not load or generate the API password" default:"false" env:"VKBD_NO_AUTH"`
	LayoutSource      `embed:""`
}

// Run is called by Kong when the serve command is executed.
func (s *Serve) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.StartServer(ctx, logger, rawLogger)
}

// StartServer serves the API until ctx is done.
func (s *Serve) StartServer(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	s.ApiServerConfig.ConnectionTimeout = s.ConnectionTimeout

	if s.ApiServerConfig.Addr == "" {
		return fmt.Errorf("API server address must be set (default :3243)")
	}

	reg, err := s.Registry(logger)
	if err != nil {
		return fmt.Errorf("loading layouts: %w", err)
	}
	for _, issue := range reg.Check() {
		logger.Warn("layout check", "layout", issue.Layout, "detail", issue.Detail)
	}
	table, err := s.DeadKeys()
	if err != nil {
		return err
	}

	if !s.NoAuth {
		pwd, err := loadOrCreateKey(logger)
		if err != nil {
			return err
		}
		s.ApiServerConfig.Password = pwd
	}

	apiSrv := api.New(reg, table, s.ApiServerConfig.Addr, s.ApiServerConfig, logger, rawLogger)
	r := apiSrv.Router()
	r.Register("ping", handler.Ping(version()))
	r.Register("layout/list", handler.LayoutList(reg))
	r.Register("layout/get", handler.LayoutGet(reg))
	r.Register("layout/locale", handler.LayoutLocale(reg))
	r.Register("layout/check", handler.LayoutCheck(reg))
	r.Register("layout/{name}", handler.LayoutGet(reg))
	r.Register("resolve", handler.Resolve(reg))
	r.Register("plan", handler.Plan(reg, table))
	r.RegisterStream("session/{layout}", api.SessionStreamHandler(apiSrv))

	if err := apiSrv.Start(); err != nil {
		logger.Error("failed to start API server", "error", err)
		if util.IsRunFromGUI() {
			fmt.Println("Press any key to exit...")
			b := make([]byte, 1)
			_, _ = os.Stdin.Read(b)
		}
		return err
	}
	logger.Info("vkbd API server listening", "addr", apiSrv.Addr(), "layouts", reg.Len(), "auth", s.ApiServerConfig.Password != "")

	if util.IsRunFromGUI() {
		go func() {
			time.Sleep(250 * time.Millisecond)
			util.HideConsoleWindow()
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	apiSrv.Close()
	return nil
}

// loadOrCreateKey reads the API password from the key file in the default
// config directory, generating and storing a new one if there is none.
func loadOrCreateKey(logger *slog.Logger) (string, error) {
	keyFileDir, err := configpaths.DefaultConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve key file path: %w", err)
	}
	keyFilePath := filepath.Join(keyFileDir, keyFileName)
	if pwd, err := os.ReadFile(keyFilePath); err == nil {
		if p := strings.TrimSpace(string(pwd)); p != "" {
			return p, nil
		}
	}

	newPwd, err := auth.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate new API password: %w", err)
	}
	if err := os.MkdirAll(keyFileDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config dir for key file: %w", err)
	}
	if err := os.WriteFile(keyFilePath, []byte(newPwd), 0o600); err != nil {
		return "", fmt.Errorf("failed to write new API password to file: %w", err)
	}
	logger.Info("Generated API server password", "path", keyFilePath)
	logger.Info("-------------------------------------")
	logger.Info("Your vkbd API server password is:")
	logger.Info("-------------------------------------")
	logger.Info(newPwd)
	logger.Info("-------------------------------------")
	logger.Info("You can change this password at any time by editing the file")
	return newPwd, nil
}
