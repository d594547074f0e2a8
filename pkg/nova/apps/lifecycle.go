package apps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jholhewres/nova/pkg/nova/outcome"
	"github.com/jholhewres/nova/pkg/nova/sandbox"
)

const maxTitleRunes = 50

// Process is a snapshot of one live process.
type Process struct {
	PID  int32
	Name string
}

// ProcessTable enumerates and signals host processes.
type ProcessTable interface {
	// Processes returns every live process. Entries whose name cannot be
	// read are omitted.
	Processes(ctx context.Context) ([]Process, error)

	// Terminate asks pid to exit (SIGTERM on Unix). It does not force-kill.
	Terminate(ctx context.Context, pid int32) error
}

// TitleSource reports visible window titles by process ID. Implemented only
// where the platform exposes window enumeration.
type TitleSource interface {
	WindowTitles(ctx context.Context) (map[int32]string, error)
}

// RunningApp is one entry of the running-application view.
type RunningApp struct {
	Name        string
	WindowTitle string
}

// Manager terminates and lists user applications.
type Manager struct {
	platform sandbox.Platform
	table    *AliasTable
	procs    ProcessTable
	titles   TitleSource
	logger   *slog.Logger
}

// NewManager creates a lifecycle manager. titles may be nil.
func NewManager(platform sandbox.Platform, table *AliasTable, procs ProcessTable, titles TitleSource, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		platform: platform,
		table:    table,
		procs:    procs,
		titles:   titles,
		logger:   logger.With("component", "processes"),
	}
}

// Terminate asks every process matching app to exit. Processes that vanish
// or refuse permission are skipped.
func (m *Manager) Terminate(ctx context.Context, app string) outcome.Outcome {
	app = strings.TrimSpace(app)
	if app == "" {
		return outcome.Failure(outcome.InvalidAction, "Application name required")
	}

	target := m.table.ProcessName(m.platform, app)
	display := m.table.DisplayName(target)

	procs, err := m.procs.Processes(ctx)
	if err != nil {
		return outcome.Failure(outcome.ExecutionError, "Error listing processes: %v", err)
	}

	var matched, closed, denied int
	for _, p := range procs {
		if !strings.EqualFold(p.Name, target) {
			continue
		}
		matched++
		if err := m.procs.Terminate(ctx, p.PID); err != nil {
			if errors.Is(err, os.ErrPermission) {
				denied++
			}
			m.logger.Debug("terminate skipped", "pid", p.PID, "name", p.Name, "error", err)
			continue
		}
		closed++
	}

	m.logger.Info("terminate", "app", app, "process", target, "matched", matched, "closed", closed)

	switch {
	case closed > 0:
		return outcome.Success("Closed %d instance(s) of %s", closed, display)
	case denied > 0:
		return outcome.Failure(outcome.PermissionDenied,
			"Permission denied closing %d instance(s) of %s", denied, display)
	default:
		return outcome.Failure(outcome.ApplicationNotFound, "No running instances of %s found", display)
	}
}

// Running returns the deduplicated set of recognized user applications,
// sorted by name.
func (m *Manager) Running(ctx context.Context) ([]RunningApp, error) {
	procs, err := m.procs.Processes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	var titles map[int32]string
	if m.titles != nil {
		titles, err = m.titles.WindowTitles(ctx)
		if err != nil {
			m.logger.Debug("window titles unavailable", "error", err)
		}
	}

	index := make(map[string]int)
	var apps []RunningApp
	for _, p := range procs {
		if !m.table.IsUserApp(m.platform, p.Name) {
			continue
		}
		name := m.table.DisplayName(p.Name)
		title := strings.TrimSpace(titles[p.PID])

		if i, seen := index[name]; seen {
			// Browsers and editors run many helper processes; only one
			// usually owns the visible window.
			if apps[i].WindowTitle == "" && title != "" {
				apps[i].WindowTitle = title
			}
			continue
		}
		index[name] = len(apps)
		apps = append(apps, RunningApp{Name: name, WindowTitle: title})
	}

	sort.Slice(apps, func(i, j int) bool { return apps[i].Name < apps[j].Name })
	return apps, nil
}

// ListUserApplications renders Running.
func (m *Manager) ListUserApplications(ctx context.Context) outcome.Outcome {
	apps, err := m.Running(ctx)
	if err != nil {
		return outcome.Failure(outcome.ExecutionError, "Error listing applications: %v", err)
	}
	if len(apps) == 0 {
		return outcome.WithPayload(outcome.IconDesktop, "No major user applications currently running", "")
	}

	lines := make([]string, len(apps))
	for i, a := range apps {
		if a.WindowTitle != "" {
			lines[i] = fmt.Sprintf("🪟 %s - %s", a.Name, truncateTitle(a.WindowTitle))
		} else {
			lines[i] = "📱 " + a.Name
		}
	}
	sort.Strings(lines)
	return outcome.WithPayload(outcome.IconDesktop, "Currently running applications:", strings.Join(lines, "\n"))
}

func truncateTitle(s string) string {
	if utf8.RuneCountInString(s) <= maxTitleRunes {
		return s
	}
	return string([]rune(s)[:maxTitleRunes]) + "..."
}
