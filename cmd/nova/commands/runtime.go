package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jholhewres/nova/pkg/nova/agent"
	"github.com/jholhewres/nova/pkg/nova/apps"
	"github.com/jholhewres/nova/pkg/nova/audit"
	"github.com/jholhewres/nova/pkg/nova/config"
	"github.com/jholhewres/nova/pkg/nova/desktop"
	"github.com/jholhewres/nova/pkg/nova/dispatch"
	"github.com/jholhewres/nova/pkg/nova/files"
	"github.com/jholhewres/nova/pkg/nova/logging"
	"github.com/jholhewres/nova/pkg/nova/memory"
	"github.com/jholhewres/nova/pkg/nova/sandbox"
	"github.com/jholhewres/nova/pkg/nova/store"
	"github.com/jholhewres/nova/pkg/nova/vcs"
)

// runtime holds the wired components for one CLI invocation.
type runtime struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	platform   sandbox.Platform
	sessionID  string

	router    *dispatch.Router
	processes *apps.Manager
	audit     *audit.Logger
	history   *memory.History

	closers []io.Closer
	dbs     map[string]*sql.DB
}

// loadConfig reads the config named by --config or found in the standard
// locations.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, used, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, used, nil
}

// newRuntime loads configuration and wires every capability. quiet raises
// the console log level to warn unless --verbose is set.
func newRuntime(cmd *cobra.Command, quiet bool) (*runtime, error) {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logOpts := logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, File: cfg.Logging.File}
	if quiet {
		logOpts.Level = "warn"
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logOpts.Level = "debug"
	}
	logger, logCloser, err := logging.New(logOpts, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	rt := &runtime{
		cfg:        cfg,
		configPath: path,
		logger:     logger,
		platform:   sandbox.CurrentPlatform(),
		sessionID:  uuid.New().String(),
		closers:    []io.Closer{logCloser},
		dbs:        make(map[string]*sql.DB),
	}
	if err := rt.wire(); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) wire() error {
	cfg := rt.cfg
	logger := rt.logger

	root, err := sandbox.NewRoot(cfg.ProjectRoot)
	if err != nil {
		return err
	}

	shellCfg := cfg.Shell
	shellCfg.WorkDir = root.Path()
	runner := sandbox.NewHostRunner(root.Path(), logger)
	shell := sandbox.NewShell(shellCfg, sandbox.NewPolicy(shellCfg, rt.platform), runner, logger)

	table := apps.NewAliasTable(cfg.Apps)
	host := apps.NewSystemHost(runner)
	var titles apps.TitleSource
	if rt.platform == sandbox.PlatformWindows {
		titles = &apps.TasklistTitles{Runner: runner}
	}
	rt.processes = apps.NewManager(rt.platform, table, apps.NewSystemProcessTable(), titles, logger)

	var recorder dispatch.Recorder
	if cfg.Audit.Enabled {
		db, err := rt.openDB(cfg.Audit.Path)
		if err != nil {
			return err
		}
		rt.audit = audit.NewLogger(db, cfg.Audit.Retention(), logger)
		rt.closers = append(rt.closers, closerFunc(rt.audit.Close))
		recorder = rt.audit
	}

	rt.history = memory.NewHistory(cfg.Memory.MaxEntries)
	if cfg.Memory.Persist {
		db, err := rt.openDB(cfg.Memory.Path)
		if err != nil {
			return err
		}
		ms := memory.NewStore(db, logger)
		if entries, err := ms.LoadRecent(cfg.Memory.MaxEntries); err != nil {
			logger.Warn("could not restore history", "error", err)
		} else {
			rt.history.Restore(entries)
		}
		rt.history.Persist(ms, rt.sessionID)
	}

	rt.router = dispatch.NewRouter(dispatch.Handlers{
		Files:     files.NewService(root, logger),
		Shell:     shell,
		VCS:       vcs.NewAdapter(shell, rt.platform, logger),
		Launcher:  apps.NewLauncher(rt.platform, table, host, logger),
		Processes: rt.processes,
		Web:       desktop.NewWeb(desktop.NewBrowserOpener(), cfg.Web.SearchSites, logger),
		System:    desktop.NewSystem(rt.platform, desktop.DefaultSystemCommands(), runner, logger),
	}, recorder, rt.sessionID, logger)

	logger.Debug("runtime ready",
		"platform", rt.platform,
		"project_root", root.Path(),
		"session", rt.sessionID,
		"config", rt.configPath,
	)
	return nil
}

// openDB returns the database at path, opening it once per invocation.
func (rt *runtime) openDB(path string) (*sql.DB, error) {
	if db, ok := rt.dbs[path]; ok {
		return db, nil
	}
	db, err := store.OpenDatabase(path)
	if err != nil {
		return nil, err
	}
	rt.dbs[path] = db
	rt.closers = append(rt.closers, db)
	return db, nil
}

// newAgent builds the oracle and the conversational agent.
func (rt *runtime) newAgent(ctx context.Context) (*agent.Agent, error) {
	config.ResolveAPIKey(rt.cfg, rt.logger)
	oracle, err := agent.NewOracle(ctx, rt.cfg.Oracle, rt.logger)
	if err != nil {
		return nil, err
	}
	return agent.New(agent.Options{
		Name:          rt.cfg.Name,
		UserName:      rt.cfg.UserName,
		Platform:      rt.platform.DisplayName(),
		ProjectRoot:   rt.cfg.ProjectRoot,
		MaxToolRounds: rt.cfg.Oracle.MaxToolRounds,
	}, oracle, rt.router, rt.history, rt.logger), nil
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i].Close()
	}
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}
