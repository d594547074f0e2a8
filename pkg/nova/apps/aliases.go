package apps

import (
	"strings"
	"unicode"

	"github.com/jholhewres/nova/pkg/nova/sandbox"
)

// Config overrides and extends the built-in alias table.
type Config struct {
	// Aliases maps platform → friendly name → launch descriptors. Entries
	// replace the built-in descriptors for that name.
	Aliases map[sandbox.Platform]map[string][]Descriptor `yaml:"aliases"`

	// ProcessNames maps platform → friendly name → process name used by
	// close.
	ProcessNames map[sandbox.Platform]map[string]string `yaml:"process_names"`

	// DisplayNames maps a process base name to the name shown to users.
	DisplayNames map[string]string `yaml:"display_names"`
}

// AliasTable maps friendly application names to launch descriptors and
// process names, and process names back to display names. Keys are
// lowercase.
type AliasTable struct {
	launch    map[sandbox.Platform]map[string][]Descriptor
	processes map[sandbox.Platform]map[string]string
	display   map[string]string
	userApps  map[sandbox.Platform]map[string]bool
}

// NewAliasTable returns the built-in table with cfg merged over it.
func NewAliasTable(cfg Config) *AliasTable {
	t := DefaultAliasTable()
	for p, names := range cfg.Aliases {
		if t.launch[p] == nil {
			t.launch[p] = make(map[string][]Descriptor)
		}
		for name, descs := range names {
			t.launch[p][normalize(name)] = descs
		}
	}
	for p, names := range cfg.ProcessNames {
		if t.processes[p] == nil {
			t.processes[p] = make(map[string]string)
		}
		for name, proc := range names {
			t.processes[p][normalize(name)] = proc
			if t.userApps[p] == nil {
				t.userApps[p] = make(map[string]bool)
			}
			t.userApps[p][normalize(proc)] = true
		}
	}
	for proc, display := range cfg.DisplayNames {
		t.display[normalize(proc)] = display
	}
	return t
}

// Descriptors returns the registered launch descriptors for name on p.
func (t *AliasTable) Descriptors(p sandbox.Platform, name string) []Descriptor {
	return t.launch[p][normalize(name)]
}

// ProcessName maps a friendly name to the process name to match on p. An
// unknown name maps to itself plus the platform executable suffix.
func (t *AliasTable) ProcessName(p sandbox.Platform, name string) string {
	key := normalize(name)
	if proc, ok := t.processes[p][key]; ok {
		return proc
	}
	if strings.HasSuffix(key, p.ExeSuffix()) {
		return key
	}
	return key + p.ExeSuffix()
}

// DisplayName maps a process name (with or without .exe) to the name shown
// to users, falling back to title case.
func (t *AliasTable) DisplayName(proc string) string {
	key := strings.TrimSuffix(normalize(proc), ".exe")
	if d, ok := t.display[key]; ok {
		return d
	}
	return titleCase(key)
}

// IsUserApp reports whether proc is a recognized user-facing application on
// p.
func (t *AliasTable) IsUserApp(p sandbox.Platform, proc string) bool {
	return t.userApps[p][normalize(proc)]
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// ---------- Defaults ----------

// DefaultAliasTable returns the built-in table.
func DefaultAliasTable() *AliasTable {
	return &AliasTable{
		launch: map[sandbox.Platform]map[string][]Descriptor{
			sandbox.PlatformWindows: windowsLaunch(),
			sandbox.PlatformDarwin:  darwinLaunch(),
			sandbox.PlatformLinux:   linuxLaunch(),
		},
		processes: map[sandbox.Platform]map[string]string{
			sandbox.PlatformWindows: {
				"chrome":        "chrome.exe",
				"browser":       "chrome.exe",
				"edge":          "msedge.exe",
				"firefox":       "firefox.exe",
				"brave":         "brave.exe",
				"vscode":        "code.exe",
				"code":          "code.exe",
				"discord":       "discord.exe",
				"teams":         "teams.exe",
				"slack":         "slack.exe",
				"spotify":       "spotify.exe",
				"photoshop":     "photoshop.exe",
				"figma":         "figma.exe",
				"word":          "winword.exe",
				"excel":         "excel.exe",
				"powerpoint":    "powerpnt.exe",
				"notepad":       "notepad.exe",
				"calculator":    "calc.exe",
				"file explorer": "explorer.exe",
				"explorer":      "explorer.exe",
			},
			sandbox.PlatformDarwin: {
				"chrome":     "google chrome",
				"browser":    "safari",
				"safari":     "safari",
				"edge":       "microsoft edge",
				"firefox":    "firefox",
				"brave":      "brave browser",
				"vscode":     "code",
				"code":       "code",
				"discord":    "discord",
				"teams":      "microsoft teams",
				"slack":      "slack",
				"spotify":    "spotify",
				"figma":      "figma",
				"word":       "microsoft word",
				"excel":      "microsoft excel",
				"powerpoint": "microsoft powerpoint",
				"finder":     "finder",
			},
			sandbox.PlatformLinux: {
				"chrome":  "chrome",
				"browser": "firefox",
				"edge":    "msedge",
				"firefox": "firefox",
				"brave":   "brave",
				"vscode":  "code",
				"code":    "code",
				"discord": "discord",
				"teams":   "teams",
				"slack":   "slack",
				"spotify": "spotify",
				"figma":   "figma-linux",
			},
		},
		display: map[string]string{
			"chrome":          "Google Chrome",
			"google chrome":   "Google Chrome",
			"msedge":          "Microsoft Edge",
			"microsoft edge":  "Microsoft Edge",
			"firefox":         "Mozilla Firefox",
			"brave":           "Brave Browser",
			"brave browser":   "Brave Browser",
			"code":            "VS Code",
			"devenv":          "Visual Studio",
			"discord":         "Discord",
			"teams":           "Microsoft Teams",
			"microsoft teams": "Microsoft Teams",
			"slack":           "Slack",
			"spotify":         "Spotify",
			"photoshop":       "Adobe Photoshop",
			"figma":           "Figma",
			"figma-linux":     "Figma",
			"winword":         "Microsoft Word",
			"microsoft word":  "Microsoft Word",
			"excel":           "Microsoft Excel",
			"microsoft excel": "Microsoft Excel",
			"powerpnt":        "PowerPoint",
			"explorer":        "File Explorer",
			"notepad":         "Notepad",
			"calc":            "Calculator",
			"cmd":             "Command Prompt",
			"powershell":      "PowerShell",
			"windowsterminal": "Windows Terminal",
			"taskmgr":         "Task Manager",
		},
		userApps: map[sandbox.Platform]map[string]bool{
			sandbox.PlatformWindows: setOf(
				// Browsers
				"chrome.exe", "msedge.exe", "firefox.exe", "brave.exe", "opera.exe",
				// Development
				"code.exe", "devenv.exe", "pycharm64.exe", "idea64.exe", "sublime_text.exe",
				"notepad++.exe", "atom.exe", "webstorm64.exe", "phpstorm64.exe",
				// Communication
				"discord.exe", "teams.exe", "slack.exe", "zoom.exe", "skype.exe",
				"whatsapp.exe", "telegram.exe",
				// Media and design
				"spotify.exe", "vlc.exe", "photoshop.exe", "illustrator.exe", "figma.exe",
				"canva.exe", "obs64.exe", "audacity.exe",
				// Office
				"winword.exe", "excel.exe", "powerpnt.exe", "notepad.exe", "calc.exe",
				"onenote.exe", "notion.exe", "obsidian.exe",
				// Gaming
				"steam.exe", "epicgameslauncher.exe", "uplay.exe", "origin.exe",
				// File management
				"explorer.exe", "totalcmd.exe", "7zfm.exe", "winrar.exe",
				// Terminal and system tools
				"taskmgr.exe", "cmd.exe", "powershell.exe", "windowsterminal.exe",
				"perfmon.exe", "regedit.exe",
			),
			sandbox.PlatformDarwin: setOf(
				"google chrome", "safari", "firefox", "brave browser", "microsoft edge", "opera",
				"code", "xcode", "pycharm", "idea", "sublime text",
				"discord", "microsoft teams", "slack", "zoom.us", "skype", "whatsapp", "telegram",
				"spotify", "vlc", "figma", "obs",
				"microsoft word", "microsoft excel", "microsoft powerpoint", "notion", "obsidian",
				"steam",
				"finder",
				"terminal", "iterm2", "activity monitor",
			),
			sandbox.PlatformLinux: setOf(
				"chrome", "firefox", "brave", "msedge", "opera",
				"code", "pycharm", "idea", "sublime_text",
				"discord", "teams", "slack", "zoom", "skype", "telegram-desktop",
				"spotify", "vlc", "gimp", "figma-linux", "obs", "audacity",
				"soffice.bin", "notion", "obsidian",
				"steam",
				"nautilus", "dolphin", "thunar",
				"gnome-terminal-", "konsole", "alacritty", "kitty",
			),
		},
	}
}

func windowsLaunch() map[string][]Descriptor {
	code := []Descriptor{{Kind: KindCommand, Value: "code"}}
	return map[string][]Descriptor{
		"chrome": {
			{Kind: KindPath, Value: `C:\Program Files\Google\Chrome\Application\chrome.exe`},
			{Kind: KindPath, Value: `C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`},
			{Kind: KindPath, Value: `%LOCALAPPDATA%\Google\Chrome\Application\chrome.exe`},
		},
		"brave": {
			{Kind: KindPath, Value: `C:\Program Files\BraveSoftware\Brave-Browser\Application\brave.exe`},
			{Kind: KindPath, Value: `C:\Program Files (x86)\BraveSoftware\Brave-Browser\Application\brave.exe`},
			{Kind: KindPath, Value: `%LOCALAPPDATA%\BraveSoftware\Brave-Browser\Application\brave.exe`},
		},
		"edge": {
			{Kind: KindPath, Value: `C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`},
			{Kind: KindPath, Value: `C:\Program Files\Microsoft\Edge\Application\msedge.exe`},
		},
		"vscode":     code,
		"code":       code,
		"notepad":    {{Kind: KindCommand, Value: "notepad.exe"}},
		"calculator": {{Kind: KindCommand, Value: "calc.exe"}},
		"spotify": {
			{Kind: KindPath, Value: `%APPDATA%\Spotify\Spotify.exe`},
			{Kind: KindURI, Value: "spotify:"},
		},
		"figma": {
			{Kind: KindPath, Value: `%LOCALAPPDATA%\Figma\Figma.exe`},
		},
		"photoshop": {
			{Kind: KindPath, Value: `C:\Program Files\Adobe\Adobe Photoshop 2024\Photoshop.exe`},
			{Kind: KindPath, Value: `C:\Program Files\Adobe\Adobe Photoshop 2020\Photoshop.exe`},
			{Kind: KindPath, Value: `C:\Program Files (x86)\Adobe\Adobe Photoshop 2024\Photoshop.exe`},
		},
		"whatsapp": {
			{Kind: KindPath, Value: `%APPDATA%\Whatsapp\Whatsapp.exe`},
			{Kind: KindURI, Value: "whatsapp:"},
		},
		"word":       {{Kind: KindCommand, Value: "winword.exe"}},
		"excel":      {{Kind: KindCommand, Value: "excel.exe"}},
		"powerpoint": {{Kind: KindCommand, Value: "powerpnt.exe"}},
		"teams": {
			{Kind: KindPath, Value: `%LOCALAPPDATA%\Microsoft\Teams\Update.exe`, Args: []string{"--processStart", "Teams.exe"}},
		},
	}
}

func darwinLaunch() map[string][]Descriptor {
	bundle := func(name string) []Descriptor { return []Descriptor{{Kind: KindBundle, Value: name}} }
	return map[string][]Descriptor{
		"chrome":    bundle("Google Chrome"),
		"firefox":   bundle("Firefox"),
		"safari":    bundle("Safari"),
		"brave":     bundle("Brave Browser"),
		"edge":      bundle("Microsoft Edge"),
		"vscode":    bundle("Visual Studio Code"),
		"code":      bundle("Visual Studio Code"),
		"figma":     bundle("Figma"),
		"photoshop": bundle("Adobe Photoshop 2024"),
		"spotify":   bundle("Spotify"),
		"discord":   bundle("Discord"),
	}
}

func linuxLaunch() map[string][]Descriptor {
	exe := func(name string) []Descriptor { return []Descriptor{{Kind: KindExecutable, Value: name}} }
	return map[string][]Descriptor{
		"chrome":  exe("google-chrome"),
		"firefox": exe("firefox"),
		"brave":   exe("brave-browser"),
		"edge":    exe("microsoft-edge"),
		"vscode":  exe("code"),
		"code":    exe("code"),
		"figma":   exe("figma-linux"),
		"spotify": exe("spotify"),
		"discord": exe("discord"),
	}
}

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
