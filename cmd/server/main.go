// Package main provides the entry point for the spframe server, which
// exposes photos from a SharePoint document library as a rotating slideshow
// over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/spframe/spframe/internal/api"
	"github.com/spframe/spframe/internal/buildinfo"
	"github.com/spframe/spframe/internal/config"
	"github.com/spframe/spframe/internal/logging"
	"github.com/spframe/spframe/internal/sharepoint"
	"github.com/spframe/spframe/internal/slideshow"
	"github.com/spframe/spframe/internal/watcher"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	var configPath string
	var testOnly bool
	flag.StringVar(&configPath, "config", "", "Configure File Path")
	flag.BoolVar(&testOnly, "test", false, "Validate the configuration and SharePoint connectivity, then exit")
	flag.Parse()

	fmt.Printf("spframe Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	wd, err := os.Getwd()
	if err != nil {
		log.Errorf("failed to get working directory: %v", err)
		return
	}

	// Load environment variables from .env if present.
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	if configPath == "" {
		configPath = filepath.Join(wd, "config.yaml")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return
	}

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	if err = logging.ConfigureFileOutput(cfg.LoggingToFile, filepath.Join(wd, "logs")); err != nil {
		log.Errorf("failed to configure log output: %v", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newClient(cfg)
	if testOnly {
		if err = client.TestConnection(ctx); err != nil {
			log.Errorf("connection test failed: %v", err)
			os.Exit(1)
		}
		log.Info("connection test passed")
		return
	}

	coordinator := slideshow.New(client, cfg.RefreshInterval.Std(), cfg.RotationSeconds)
	go coordinator.Run(ctx)

	configWatcher, err := watcher.NewWatcher(configPath, func(newCfg *config.Config) {
		coordinator.SwapClient(newClient(newCfg))
		if errRefresh := coordinator.Refresh(ctx); errRefresh != nil {
			log.Errorf("refresh after config reload failed: %v", errRefresh)
		}
	})
	if err != nil {
		log.Errorf("failed to create config watcher: %v", err)
		return
	}
	if err = configWatcher.Start(ctx); err != nil {
		log.Errorf("failed to start config watcher: %v", err)
		return
	}

	server := api.NewServer(cfg, coordinator)
	if err = server.Start(ctx); err != nil {
		log.Errorf("server error: %v", err)
	}
}

// newClient builds a SharePoint client from the configuration.
func newClient(cfg *config.Config) *sharepoint.Client {
	return sharepoint.New(
		sharepoint.Credentials{
			TenantID:     cfg.TenantID,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
		},
		cfg.SiteURL,
		cfg.LibraryName,
		cfg.BaseFolderPath,
		cfg.HistorySize(),
		sharepoint.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout.Std()}),
	)
}
