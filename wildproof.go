package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/wildproof/wildproof/logging"
	"github.com/wildproof/wildproof/server"
)

// wildproof binary version.
// It should be passed during the build with '-ldflags "-X main.version="'.
var version = "unknown"

// loadConfig applies defaults, then the config file, then the command line.
func loadConfig() (*server.Config, error) {
	cfg := server.DefaultConfig()
	// Pre-parse the command line to check for an alternative config file.
	cfg, err := server.ParseFlags(cfg)
	if err != nil {
		return nil, err
	}
	cfg, err = server.ReadConfigFile(cfg)
	if err != nil {
		return nil, err
	}
	cfg, err = server.SetupConfig(cfg)
	if err != nil {
		return nil, err
	}
	// Command line options take precedence over the config file.
	return server.ParseFlags(cfg)
}

// wildproofMain is the true entry point. Defers in main do not run when
// os.Exit is called.
func wildproofMain() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	if cfg.DebugLog {
		logCfg.Level = zap.DebugLevel
	}
	logCfg.JSON = cfg.JSONLog
	logCfg.Filename = filepath.Join(cfg.LogDir, "wildproof.log")
	logCfg.MaxSizeMB = cfg.MaxLogFileSize
	logCfg.MaxBackups = cfg.MaxLogFiles
	logger := logging.New(logCfg)
	ctx := logging.NewContext(context.Background(), logger)

	defer func() {
		logger.Info("shutdown complete")
	}()

	logger.Info("starting wildproof", zap.String("version", version), zap.Object("config", cfg))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	srv, err := server.New(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("failed to close server", zap.Error(err))
		}
	}()
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failure in server: %w", err)
	}

	return nil
}

func main() {
	if err := wildproofMain(); err != nil {
		// flags already printed its own errors
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
