package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-caskdb/caskdb"
	"github.com/0xRadioAc7iv/go-caskdb/internal/config"
	"github.com/0xRadioAc7iv/go-caskdb/internal/keydir"
	"github.com/0xRadioAc7iv/go-caskdb/internal/logging"
	"github.com/0xRadioAc7iv/go-caskdb/internal/server"
	"github.com/0xRadioAc7iv/go-caskdb/internal/utils"
)

type serveFlags struct {
	configPath  string
	path        string
	host        string
	port        int
	logLevel    string
	index       string
	syncOnWrite bool
}

func newRootCmd() *cobra.Command {
	flags := &serveFlags{}

	c := &cobra.Command{
		Use:          "caskdb",
		Short:        "Serve a caskdb log over TCP",
		Example:      "caskdb --path ./books.db --port 6969",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	c.Flags().StringVarP(&flags.configPath, "config", "c", config.DefaultConfigFilePath, "path to the YAML configuration file")
	c.Flags().StringVar(&flags.path, "path", config.DefaultPath, "log file to serve")
	c.Flags().StringVar(&flags.host, "host", config.DefaultHost, "address to listen on")
	c.Flags().IntVarP(&flags.port, "port", "p", config.DefaultPort, "port for the TCP server")
	c.Flags().StringVar(&flags.logLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error")
	c.Flags().StringVar(&flags.index, "index", "hash", "key directory kind: hash or ordered")
	c.Flags().BoolVar(&flags.syncOnWrite, "sync", false, "fsync the log after every write")

	c.AddCommand(newCheckCmd())

	return c
}

// loadConfig reads the config file, then applies every flag the user set
// explicitly on top of it.
func loadConfig(cmd *cobra.Command, flags *serveFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("path") {
		cfg.Path = flags.path
	}
	if changed("host") {
		cfg.Host = flags.host
	}
	if changed("port") {
		cfg.Port = flags.port
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if changed("sync") {
		cfg.SyncOnWrite = flags.syncOnWrite
	}
	if changed("index") {
		kind, err := keydir.ParseKind(flags.index)
		if err != nil {
			return nil, err
		}
		cfg.Index = kind
	}

	return cfg, cfg.Validate()
}

func serve(cfg *config.Config) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := caskdb.Open(cfg.Path,
		caskdb.WithLogger(logger),
		caskdb.WithIndex(cfg.Index),
		caskdb.WithSyncOnWrite(cfg.SyncOnWrite),
		caskdb.WithWriteBufferSize(cfg.WriteBufferSize),
	)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	defer store.Close()

	srv := server.New(
		server.NewHandler(store, logger, server.WithMaxFrameSize(cfg.MaxFrameSize)).ServeConn,
		logger,
	)
	if _, err := srv.Listen(cfg.Host, cfg.Port); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()

	utils.ListenForProcessInterruptOrKill(logger)
	cancel()

	if err := <-done; err != nil {
		logger.Error("server stopped abruptly", zap.Error(err))
		return err
	}

	return nil
}
