// Command taskboard is a terminal task board backed by a local store.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/nhle/taskboard/internal/app"
	"github.com/nhle/taskboard/internal/auth"
	"github.com/nhle/taskboard/internal/board"
	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/logger"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/seed"
	"github.com/nhle/taskboard/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "taskboard:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("taskboard", pflag.ContinueOnError)
	configPath := flags.String("config", model.DefaultConfigPath(), "path to the config file")
	dbPath := flags.String("db", "", "database file (overrides storage.path)")
	backend := flags.String("backend", "", "storage backend: sqlite or bolt")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn, error")
	viewName := flags.String("view", "", "initial view: board or list")
	noSeed := flags.Bool("no-seed", false, "start empty instead of fetching starter tasks")
	noLogin := flags.Bool("no-login", false, "skip the account screen")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *viewName != "" {
		cfg.Display.DefaultView = *viewName
	}
	if *noSeed {
		cfg.Seed.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logPath := cfg.Log.Path
	if logPath == "" {
		logPath = model.DefaultLogPath()
	}
	log, closeLog, err := logger.New(logger.Config{
		Level:    cfg.Log.Level,
		Encoding: cfg.Log.Encoding,
		Path:     logPath,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	kv, err := store.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer kv.Close()

	gw := store.NewGateway(kv)

	var seeder board.Seeder
	if cfg.Seed.Enabled {
		seeder = seed.NewLoader(cfg.Seed.BaseURL)
	}
	tasks := board.New(gw, seeder,
		board.WithLogger(log.Named("board")),
		board.WithSeedLimit(cfg.Seed.Limit),
		board.WithSeedTimeout(cfg.Seed.Timeout()),
	)

	var accounts *auth.Service
	if !*noLogin {
		vault, err := credential.Open(filepath.Join(filepath.Dir(*configPath), "credentials"))
		if err != nil {
			return fmt.Errorf("opening keyring: %w", err)
		}
		accounts = auth.NewService(gw, vault, auth.WithLogger(log.Named("auth")))
	}

	log.Info("starting",
		zap.String("backend", cfg.Storage.Backend),
		zap.Bool("seed", cfg.Seed.Enabled),
		zap.Bool("login", accounts != nil),
	)

	p := tea.NewProgram(app.New(tasks, accounts, *cfg, *configPath), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}
