package apps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jholhewres/nova/pkg/nova/outcome"
	"github.com/jholhewres/nova/pkg/nova/sandbox"
)

// DefaultProbeTimeout bounds helper processes the launcher waits on, such
// as the Start Menu query and "open -a".
const DefaultProbeTimeout = 15 * time.Second

// errNoCandidates is returned by a strategy that has nothing to try for the
// requested name.
var errNoCandidates = errors.New("no candidates")

// Strategy is one independent way of launching an application.
type Strategy interface {
	// Name identifies the strategy in logs and outcome messages.
	Name() string

	// Launch tries to start app. On success it returns a short description
	// of what was launched.
	Launch(ctx context.Context, app string) (string, error)
}

// Attempt records the strategy that launched an application.
type Attempt struct {
	Strategy string
	Detail   string
}

// Launcher runs a strategy chain in order and stops at the first success.
type Launcher struct {
	platform   sandbox.Platform
	strategies []Strategy
	logger     *slog.Logger
}

// NewLauncher builds the standard strategy chain for platform.
func NewLauncher(platform sandbox.Platform, table *AliasTable, host Host, logger *slog.Logger) *Launcher {
	return NewLauncherWithStrategies(platform, DefaultStrategies(platform, table, host), logger)
}

// NewLauncherWithStrategies builds a launcher over an explicit chain.
func NewLauncherWithStrategies(platform sandbox.Platform, strategies []Strategy, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		platform:   platform,
		strategies: strategies,
		logger:     logger.With("component", "launcher"),
	}
}

// DefaultStrategies returns the ordered chain for platform. The order is
// fixed: a name always reaches the same first strategy.
func DefaultStrategies(platform sandbox.Platform, table *AliasTable, host Host) []Strategy {
	known := &KnownPathStrategy{Platform: platform, Table: table, Host: host}
	switch platform {
	case sandbox.PlatformWindows:
		return []Strategy{
			known,
			&StartMenuStrategy{Host: host},
			&BareCommandStrategy{Host: host},
			&SuffixStrategy{Host: host, Suffix: platform.ExeSuffix()},
		}
	case sandbox.PlatformDarwin:
		return []Strategy{
			known,
			&BundleStrategy{Host: host},
			&BareCommandStrategy{Host: host},
		}
	case sandbox.PlatformLinux:
		return []Strategy{
			known,
			&BareCommandStrategy{Host: host, Lowercase: true},
		}
	default:
		return nil
	}
}

// Strategies returns the chain in order.
func (l *Launcher) Strategies() []Strategy { return l.strategies }

// Attempt walks the chain for app and reports the winning strategy. Each
// strategy failure is logged and the chain continues.
func (l *Launcher) Attempt(ctx context.Context, app string) (*Attempt, error) {
	app = strings.TrimSpace(app)
	if app == "" {
		return nil, outcome.Errorf(outcome.InvalidAction, "Application name required")
	}
	if !l.platform.Supported() || len(l.strategies) == 0 {
		return nil, outcome.Errorf(outcome.UnsupportedPlatform,
			"Unsupported operating system: %s", l.platform.DisplayName())
	}

	for _, s := range l.strategies {
		if err := ctx.Err(); err != nil {
			return nil, outcome.Wrap(outcome.ExecutionError, err, "launch of %s interrupted", app)
		}
		detail, err := s.Launch(ctx, app)
		if err != nil {
			l.logger.Debug("launch strategy failed", "app", app, "strategy", s.Name(), "error", err)
			continue
		}
		l.logger.Info("application launched", "app", app, "strategy", s.Name(), "detail", detail)
		return &Attempt{Strategy: s.Name(), Detail: detail}, nil
	}

	return nil, outcome.Errorf(outcome.ApplicationNotFound,
		"Could not find %s. Try using the full application name or check if it's installed.", app)
}

// Launch opens app and renders the result.
func (l *Launcher) Launch(ctx context.Context, app string) outcome.Outcome {
	a, err := l.Attempt(ctx, app)
	if err != nil {
		return outcome.FromError(err)
	}
	return outcome.Success("Opened %s via %s (%s)", strings.TrimSpace(app), a.Strategy, a.Detail)
}

// ---------- Strategies ----------

// KnownPathStrategy tries the alias table's descriptors for the name in
// order.
type KnownPathStrategy struct {
	Platform sandbox.Platform
	Table    *AliasTable
	Host     Host
}

func (s *KnownPathStrategy) Name() string { return "known path" }

func (s *KnownPathStrategy) Launch(ctx context.Context, app string) (string, error) {
	descs := s.Table.Descriptors(s.Platform, app)
	if len(descs) == 0 {
		return "", errNoCandidates
	}
	var errs []error
	for _, d := range descs {
		detail, err := launchDescriptor(ctx, s.Host, d)
		if err == nil {
			return detail, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", d, err))
	}
	return "", errors.Join(errs...)
}

func launchDescriptor(ctx context.Context, host Host, d Descriptor) (string, error) {
	switch d.Kind {
	case KindURI:
		if err := host.OpenURI(d.Value); err != nil {
			return "", err
		}
		return "protocol " + d.Value, nil

	case KindPath:
		path := host.ExpandEnv(d.Value)
		if !host.Exists(path) {
			return "", fmt.Errorf("%s does not exist", path)
		}
		if err := host.Start(&sandbox.ExecRequest{Program: path, Args: d.Args}); err != nil {
			return "", err
		}
		return path, nil

	case KindCommand:
		line := d.Value
		if len(d.Args) > 0 {
			line += " " + strings.Join(d.Args, " ")
		}
		if err := host.Start(&sandbox.ExecRequest{Command: line}); err != nil {
			return "", err
		}
		return "command " + line, nil

	case KindExecutable:
		path, err := host.LookPath(d.Value)
		if err != nil {
			return "", err
		}
		if err := host.Start(&sandbox.ExecRequest{Program: path, Args: d.Args}); err != nil {
			return "", err
		}
		return path, nil

	case KindBundle:
		if err := openBundle(ctx, host, d.Value, DefaultProbeTimeout); err != nil {
			return "", err
		}
		return "bundle " + d.Value, nil

	default:
		return "", fmt.Errorf("unknown descriptor kind %q", d.Kind)
	}
}

// StartMenuStrategy searches the Windows installed-application index for a
// fuzzy name match and launches the first hit through the AppsFolder shell
// handle.
type StartMenuStrategy struct {
	Host Host

	// Timeout bounds the PowerShell query. Zero means DefaultProbeTimeout.
	Timeout time.Duration
}

func (s *StartMenuStrategy) Name() string { return "Start Menu" }

func (s *StartMenuStrategy) Launch(ctx context.Context, app string) (string, error) {
	res, err := runBounded(ctx, s.Host, &sandbox.ExecRequest{
		Program: "powershell",
		Args:    []string{"-NoProfile", "-NonInteractive", "-Command", startMenuScript(app)},
	}, s.Timeout)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if found, ok := strings.CutPrefix(line, "Found:"); ok {
			return strings.TrimSpace(found), nil
		}
	}
	return "", fmt.Errorf("no Start Menu entry matches %q", app)
}

// startMenuScript builds the PowerShell lookup. The name is embedded in a
// single-quoted literal, where the only special character is the quote.
func startMenuScript(app string) string {
	pattern := "*" + strings.ReplaceAll(app, "'", "''") + "*"
	return `$app = Get-StartApps | Where-Object { $_.Name -like '` + pattern + `' } | Select-Object -First 1; ` +
		`if ($app) { Start-Process ("shell:AppsFolder\" + $app.AppID); Write-Output ("Found: " + $app.Name) } ` +
		`else { Write-Output "Not found" }`
}

// BundleStrategy opens an application bundle by its display name with
// "open -a".
type BundleStrategy struct {
	Host Host

	// Timeout bounds "open -a". Zero means DefaultProbeTimeout.
	Timeout time.Duration
}

func (s *BundleStrategy) Name() string { return "application bundle" }

func (s *BundleStrategy) Launch(ctx context.Context, app string) (string, error) {
	if err := openBundle(ctx, s.Host, app, s.Timeout); err != nil {
		return "", err
	}
	return "bundle " + app, nil
}

func openBundle(ctx context.Context, host Host, bundle string, timeout time.Duration) error {
	res, err := runBounded(ctx, host, &sandbox.ExecRequest{Program: "open", Args: []string{"-a", bundle}}, timeout)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("open -a %q: %s", bundle, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// runBounded runs req on host and fails if it outlives timeout.
func runBounded(ctx context.Context, host Host, req *sandbox.ExecRequest, timeout time.Duration) (*sandbox.ExecResult, error) {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := host.Run(runCtx, req)
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, fmt.Errorf("%s timed out after %s", req.Program, timeout)
	}
	if err != nil {
		return nil, err
	}
	if res.Killed {
		return nil, fmt.Errorf("%s was stopped: %s", req.Program, res.KillReason)
	}
	return res, nil
}

// BareCommandStrategy launches the name itself as an executable.
type BareCommandStrategy struct {
	Host      Host
	Lowercase bool
}

func (s *BareCommandStrategy) Name() string { return "command" }

func (s *BareCommandStrategy) Launch(_ context.Context, app string) (string, error) {
	name := app
	if s.Lowercase {
		name = strings.ToLower(name)
	}
	return startExecutable(s.Host, name)
}

// SuffixStrategy launches the name with the platform executable suffix
// appended.
type SuffixStrategy struct {
	Host   Host
	Suffix string
}

func (s *SuffixStrategy) Name() string { return "executable" }

func (s *SuffixStrategy) Launch(_ context.Context, app string) (string, error) {
	if s.Suffix == "" || strings.HasSuffix(strings.ToLower(app), s.Suffix) {
		return "", errNoCandidates
	}
	return startExecutable(s.Host, app+s.Suffix)
}

func startExecutable(host Host, name string) (string, error) {
	path, err := host.LookPath(name)
	if err != nil {
		return "", err
	}
	if err := host.Start(&sandbox.ExecRequest{Program: path}); err != nil {
		return "", err
	}
	return path, nil
}
