package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"vodforge/config"
	"vodforge/credentials"
	"vodforge/engine"
	"vodforge/job"
	"vodforge/lease"
	"vodforge/logger"
	"vodforge/models"
	"vodforge/status"
	writerbackends "vodforge/writerBackends"

	"github.com/spf13/cobra"
)

// app holds state shared by the subcommands.
type app struct {
	configFlag   string
	logLevelFlag string
	cfg          config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "vodforge",
		Short:         "Video-on-demand HLS transcoding service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configFlag, "config", "c", "", "Configuration file path (overrides VODFORGE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&a.logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newTranscodeCommand(a))
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newCredentialsCommand(a))
	return rootCmd
}

func (a *app) load() error {
	if a.configFlag != "" {
		os.Setenv("VODFORGE_CONFIG", a.configFlag)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.logLevelFlag != "" {
		cfg.LogLevel = a.logLevelFlag
	}
	a.cfg = cfg

	if cfg.LogFile != "" {
		if err := logger.Init(cfg.LogFile, true); err != nil {
			return err
		}
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	return nil
}

// openCredentials opens the credentials store under the data dir.
func (a *app) openCredentials() (*credentials.Store, error) {
	if err := os.MkdirAll(a.cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return credentials.Open(a.cfg.CredentialsDBPath())
}

// services is everything a conversion needs, built from the config.
type services struct {
	orch    *job.Orchestrator
	status  *status.Register
	gateway writerbackends.Gateway
	closers []io.Closer
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			logger.Warnf("Close failed: %v", err)
		}
	}
}

func (a *app) buildServices(ctx context.Context) (*services, error) {
	svc := &services{}

	stored := map[string]string{}
	if key := a.cfg.Storage.CredentialsKey; key != "" {
		store, err := a.openCredentials()
		if err != nil {
			return nil, err
		}
		stored, err = store.Get(key)
		store.Close()
		if err != nil {
			return nil, err
		}
		logger.Infof("Using stored credentials %q for %s", key, a.cfg.Storage.Backend)
	}

	gw, err := writerbackends.New(ctx, a.cfg.Storage.Backend, a.cfg.AccessInfo(stored))
	if err != nil {
		return nil, err
	}
	svc.gateway = gw
	if c, ok := gw.(io.Closer); ok {
		svc.closers = append(svc.closers, c)
	}

	ff := engine.NewFFmpeg(a.cfg.FFmpegPath, a.cfg.FFprobePath)
	if err := ff.CheckAvailable(); err != nil {
		svc.Close()
		return nil, err
	}

	layout := models.Layout{Root: a.cfg.WorkDir}
	if err := os.MkdirAll(layout.Root, 0755); err != nil {
		svc.Close()
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	svc.status = status.NewRegister(a.cfg.StatusTTLDuration(), a.cfg.StatusMaxEntries)
	svc.orch = &job.Orchestrator{
		Engine:        ff,
		Gateway:       gw,
		Bucket:        a.cfg.Storage.Bucket,
		Layout:        layout,
		Status:        svc.status,
		Leases:        lease.NewManager(layout.LocksDir()),
		EncodeWorkers: a.cfg.EncodeWorkers,
		Complexity:    a.cfg.Complexity,
	}
	return svc, nil
}
