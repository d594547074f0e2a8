// Package desktop opens websites and platform searches in the default
// browser and issues OS power and volume commands.
package desktop

import (
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/pkg/browser"

	"github.com/jholhewres/nova/pkg/nova/outcome"
)

// URLOpener hands a URL to the default browser.
type URLOpener interface {
	OpenURL(u string) error
}

// BrowserOpener opens URLs with the OS default browser.
type BrowserOpener struct{}

// NewBrowserOpener creates an opener whose helper process output is
// discarded so it does not interleave with the terminal.
func NewBrowserOpener() *BrowserOpener {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return &BrowserOpener{}
}

func (BrowserOpener) OpenURL(u string) error { return browser.OpenURL(u) }

// SearchSite is a search-URL template keyed by platform name. The query is
// substituted for "{query}".
type SearchSite struct {
	Name     string `yaml:"name"`
	Template string `yaml:"template"`
}

// DefaultSearchSites returns the built-in search templates in display order.
func DefaultSearchSites() []SearchSite {
	return []SearchSite{
		{"youtube", "https://www.youtube.com/results?search_query={query}"},
		{"google", "https://www.google.com/search?q={query}"},
		{"github", "https://github.com/search?q={query}"},
		{"stackoverflow", "https://stackoverflow.com/search?q={query}"},
		{"reddit", "https://www.reddit.com/search/?q={query}"},
		{"twitter", "https://twitter.com/search?q={query}"},
		{"linkedin", "https://www.linkedin.com/search/results/all/?keywords={query}"},
		{"medium", "https://medium.com/search?q={query}"},
		{"dev", "https://dev.to/search?q={query}"},
		{"npm", "https://www.npmjs.com/search?q={query}"},
		{"pypi", "https://pypi.org/search/?q={query}"},
		{"mdn", "https://developer.mozilla.org/en-US/search?q={query}"},
	}
}

// Web opens websites and search pages.
type Web struct {
	opener URLOpener
	sites  []SearchSite
	logger *slog.Logger
}

// NewWeb creates a web adapter. Extra sites are appended to the built-ins
// and replace any built-in of the same name.
func NewWeb(opener URLOpener, extra []SearchSite, logger *slog.Logger) *Web {
	if logger == nil {
		logger = slog.Default()
	}
	sites := DefaultSearchSites()
	for _, e := range extra {
		e.Name = strings.ToLower(strings.TrimSpace(e.Name))
		replaced := false
		for i := range sites {
			if sites[i].Name == e.Name {
				sites[i] = e
				replaced = true
			}
		}
		if !replaced {
			sites = append(sites, e)
		}
	}
	return &Web{opener: opener, sites: sites, logger: logger.With("component", "web")}
}

// Sites returns the supported search platform names.
func (w *Web) Sites() []string {
	names := make([]string, len(w.sites))
	for i, s := range w.sites {
		names[i] = s.Name
	}
	return names
}

// NormalizeURL prefixes https:// when raw has no http or https scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return "https://" + raw
}

// OpenWebsite opens raw in the default browser. Opening is fire-and-forget:
// success only means the browser was asked.
func (w *Web) OpenWebsite(raw string) outcome.Outcome {
	if strings.TrimSpace(raw) == "" {
		return outcome.Failure(outcome.InvalidAction, "Website URL required")
	}
	u := NormalizeURL(raw)
	if err := w.opener.OpenURL(u); err != nil {
		w.logger.Warn("open website failed", "url", u, "error", err)
		return outcome.Failure(outcome.ExecutionError, "Failed to open website: %v", err)
	}
	w.logger.Info("website opened", "url", u)
	return outcome.Success("Opened %s", u)
}

// SearchURL builds the search URL for platform and query.
func (w *Web) SearchURL(platform, query string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(platform))
	for _, s := range w.sites {
		if s.Name == key {
			return strings.ReplaceAll(s.Template, "{query}", url.QueryEscape(query)), nil
		}
	}
	return "", outcome.Errorf(outcome.UnsupportedPlatform,
		"Platform '%s' not supported. Available: %s", platform, strings.Join(w.Sites(), ", "))
}

// SearchPlatform opens a search for query on platform.
func (w *Web) SearchPlatform(platform, query string) outcome.Outcome {
	u, err := w.SearchURL(platform, query)
	if err != nil {
		return outcome.FromError(err)
	}
	if err := w.opener.OpenURL(u); err != nil {
		w.logger.Warn("open search failed", "url", u, "error", err)
		return outcome.Failure(outcome.ExecutionError, "Failed to search %s: %v", platform, err)
	}
	w.logger.Info("search opened", "platform", platform, "url", u)
	return outcome.Success("Opened %s search for '%s'", platform, query)
}
