package apps

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jholhewres/nova/pkg/nova/outcome"
	"github.com/jholhewres/nova/pkg/nova/sandbox"
)

// stubHost simulates an OS with a fixed set of files, PATH entries and URI
// handlers.
type stubHost struct {
	files    map[string]bool
	path     map[string]string
	uris     map[string]bool
	bundles  map[string]bool
	stdout   string
	env      map[string]string
	started  []*sandbox.ExecRequest
	ran      []*sandbox.ExecRequest
	opened   []string
	startErr error
	hang     bool
}

func (h *stubHost) Start(req *sandbox.ExecRequest) error {
	if h.startErr != nil {
		return h.startErr
	}
	h.started = append(h.started, req)
	return nil
}

func (h *stubHost) Run(ctx context.Context, req *sandbox.ExecRequest) (*sandbox.ExecResult, error) {
	h.ran = append(h.ran, req)
	if h.hang {
		<-ctx.Done()
		return &sandbox.ExecResult{ExitCode: -1, Killed: true, KillReason: "timeout"}, nil
	}
	if req.Program == "open" && len(req.Args) == 2 {
		if h.bundles[req.Args[1]] {
			return &sandbox.ExecResult{}, nil
		}
		return &sandbox.ExecResult{ExitCode: 1, Stderr: "Unable to find application"}, nil
	}
	return &sandbox.ExecResult{Stdout: h.stdout}, nil
}

func (h *stubHost) OpenURI(uri string) error {
	if !h.uris[uri] {
		return errors.New("no handler")
	}
	h.opened = append(h.opened, uri)
	return nil
}

func (h *stubHost) Exists(path string) bool { return h.files[path] }

func (h *stubHost) LookPath(name string) (string, error) {
	if p, ok := h.path[name]; ok {
		return p, nil
	}
	return "", errors.New("executable file not found in $PATH")
}

func (h *stubHost) ExpandEnv(s string) string {
	for k, v := range h.env {
		s = strings.ReplaceAll(s, "%"+k+"%", v)
	}
	return s
}

// fixedStrategy succeeds or fails on demand and counts calls.
type fixedStrategy struct {
	name  string
	err   error
	calls int
}

func (f *fixedStrategy) Name() string { return f.name }

func (f *fixedStrategy) Launch(context.Context, string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.name + " detail", nil
}

func TestLauncherStopsAtFirstSuccess(t *testing.T) {
	t.Parallel()

	first := &fixedStrategy{name: "first", err: errors.New("nope")}
	second := &fixedStrategy{name: "second"}
	third := &fixedStrategy{name: "third"}
	l := NewLauncherWithStrategies(sandbox.PlatformLinux, []Strategy{first, second, third}, nil)

	a, err := l.Attempt(context.Background(), "thing")
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if a.Strategy != "second" {
		t.Errorf("winner = %q, want second", a.Strategy)
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 0 {
		t.Errorf("calls = %d/%d/%d, want 1/1/0", first.calls, second.calls, third.calls)
	}
}

func TestLauncherExhaustion(t *testing.T) {
	t.Parallel()

	l := NewLauncherWithStrategies(sandbox.PlatformLinux, []Strategy{
		&fixedStrategy{name: "a", err: errors.New("x")},
		&fixedStrategy{name: "b", err: errors.New("y")},
	}, nil)

	out := l.Launch(context.Background(), "ghostapp")
	if out.Kind != outcome.ApplicationNotFound {
		t.Fatalf("expected ApplicationNotFound, got %+v", out)
	}
	if !strings.Contains(out.Message, "check if it's installed") {
		t.Errorf("message should suggest checking installation: %q", out.Message)
	}
}

func TestKnownPathSecondDescriptorWins(t *testing.T) {
	t.Parallel()

	host := &stubHost{
		env:  map[string]string{"APPDATA": `C:\Users\me\AppData\Roaming`},
		uris: map[string]bool{"spotify:": true},
	}
	l := NewLauncher(sandbox.PlatformWindows, DefaultAliasTable(), host, nil)

	a, err := l.Attempt(context.Background(), "Spotify")
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if a.Strategy != "known path" || a.Detail != "protocol spotify:" {
		t.Errorf("attempt = %+v, want known path via protocol", a)
	}
	if len(host.started) != 0 {
		t.Errorf("missing exe must not be started: %+v", host.started)
	}

	out := l.Launch(context.Background(), "Spotify")
	if !out.Succeeded || !strings.Contains(out.Message, "protocol spotify:") {
		t.Errorf("outcome should attribute the protocol descriptor: %s", out)
	}
}

func TestKnownPathExpandsEnvironment(t *testing.T) {
	t.Parallel()

	exe := `C:\Users\me\AppData\Local\Figma\Figma.exe`
	host := &stubHost{
		env:   map[string]string{"LOCALAPPDATA": `C:\Users\me\AppData\Local`},
		files: map[string]bool{exe: true},
	}
	l := NewLauncher(sandbox.PlatformWindows, DefaultAliasTable(), host, nil)

	a, err := l.Attempt(context.Background(), "figma")
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if a.Detail != exe {
		t.Errorf("detail = %q, want %q", a.Detail, exe)
	}
	if len(host.started) != 1 || host.started[0].Program != exe {
		t.Errorf("started = %+v", host.started)
	}
}

func TestWindowsStartMenuFallback(t *testing.T) {
	t.Parallel()

	host := &stubHost{stdout: "Found: Obsidian\r\n"}
	l := NewLauncher(sandbox.PlatformWindows, DefaultAliasTable(), host, nil)

	a, err := l.Attempt(context.Background(), "obsidian")
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if a.Strategy != "Start Menu" || a.Detail != "Obsidian" {
		t.Errorf("attempt = %+v", a)
	}
	if len(host.ran) != 1 || host.ran[0].Program != "powershell" {
		t.Fatalf("expected one powershell run, got %+v", host.ran)
	}
}

func TestWindowsSuffixFallback(t *testing.T) {
	t.Parallel()

	host := &stubHost{
		stdout: "Not found",
		path:   map[string]string{"mytool.exe": `C:\tools\mytool.exe`},
	}
	l := NewLauncher(sandbox.PlatformWindows, DefaultAliasTable(), host, nil)

	a, err := l.Attempt(context.Background(), "mytool")
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if a.Strategy != "executable" || a.Detail != `C:\tools\mytool.exe` {
		t.Errorf("attempt = %+v", a)
	}
}

func TestDarwinBundles(t *testing.T) {
	t.Parallel()

	host := &stubHost{bundles: map[string]bool{"Visual Studio Code": true, "Notes": true}}
	l := NewLauncher(sandbox.PlatformDarwin, DefaultAliasTable(), host, nil)

	a, err := l.Attempt(context.Background(), "vscode")
	if err != nil || a.Strategy != "known path" || a.Detail != "bundle Visual Studio Code" {
		t.Errorf("vscode: %+v, %v", a, err)
	}

	a, err = l.Attempt(context.Background(), "Notes")
	if err != nil || a.Strategy != "application bundle" {
		t.Errorf("Notes: %+v, %v", a, err)
	}
}

func TestLinuxLowercasesBareCommand(t *testing.T) {
	t.Parallel()

	host := &stubHost{path: map[string]string{"gimp": "/usr/bin/gimp"}}
	l := NewLauncher(sandbox.PlatformLinux, DefaultAliasTable(), host, nil)

	a, err := l.Attempt(context.Background(), "GIMP")
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if a.Strategy != "command" || a.Detail != "/usr/bin/gimp" {
		t.Errorf("attempt = %+v", a)
	}
}

func TestLauncherDeterministicOrder(t *testing.T) {
	t.Parallel()

	host := &stubHost{path: map[string]string{"google-chrome": "/usr/bin/google-chrome", "chrome": "/usr/bin/chrome"}}
	l := NewLauncher(sandbox.PlatformLinux, DefaultAliasTable(), host, nil)

	for i := 0; i < 3; i++ {
		a, err := l.Attempt(context.Background(), "chrome")
		if err != nil || a.Strategy != "known path" || a.Detail != "/usr/bin/google-chrome" {
			t.Fatalf("run %d: %+v, %v", i, a, err)
		}
	}
}

func TestLauncherUnsupportedPlatform(t *testing.T) {
	t.Parallel()

	l := NewLauncher(sandbox.Platform("plan9"), DefaultAliasTable(), &stubHost{}, nil)
	if out := l.Launch(context.Background(), "acme"); out.Kind != outcome.UnsupportedPlatform {
		t.Errorf("expected UnsupportedPlatform, got %+v", out)
	}
}

func TestStartMenuScriptEscapesQuotes(t *testing.T) {
	t.Parallel()

	script := startMenuScript("it's")
	if !strings.Contains(script, "'*it''s*'") {
		t.Errorf("quote not escaped: %s", script)
	}
}

func TestHelperProcessesAreBounded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		strategy Strategy
	}{
		{name: "start menu", strategy: &StartMenuStrategy{Host: &stubHost{hang: true}, Timeout: 20 * time.Millisecond}},
		{name: "bundle", strategy: &BundleStrategy{Host: &stubHost{hang: true}, Timeout: 20 * time.Millisecond}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			done := make(chan error, 1)
			go func() {
				_, err := tt.strategy.Launch(context.Background(), "Photoshop")
				done <- err
			}()
			select {
			case err := <-done:
				if err == nil || !strings.Contains(err.Error(), "timed out") {
					t.Errorf("err = %v, want timeout", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("launch was not bounded")
			}
		})
	}
}
