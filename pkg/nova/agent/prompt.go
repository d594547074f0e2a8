package agent

import (
	"fmt"
	"strings"
	"time"
)

// PromptInfo carries the facts injected into the system prompt.
type PromptInfo struct {
	Name        string
	UserName    string
	Platform    string
	ProjectRoot string
	Now         time.Time
	History     string
}

// BuildSystemPrompt renders the system prompt for one turn.
func BuildSystemPrompt(info PromptInfo) string {
	name := info.Name
	if name == "" {
		name = "Nova"
	}
	user := info.UserName
	if user == "" {
		user = "the user"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a friendly and capable desktop assistant for %s.\n", name, user)
	b.WriteString("You act on the user's computer only through the tools you are given. ")
	b.WriteString("Use them whenever the request involves files, git, applications, the web or system controls. ")
	b.WriteString("Report tool results honestly, including failures, and keep answers short.\n\n")

	fmt.Fprintf(&b, "Operating system: %s\n", info.Platform)
	if info.ProjectRoot != "" {
		fmt.Fprintf(&b, "Project directory: %s (all file paths are relative to it)\n", info.ProjectRoot)
	}
	if !info.Now.IsZero() {
		fmt.Fprintf(&b, "Current time: %s\n", info.Now.Format("Monday, 2 January 2006 15:04 MST"))
	}

	if h := strings.TrimSpace(info.History); h != "" {
		b.WriteString("\nConversation so far:\n")
		b.WriteString(h)
		b.WriteByte('\n')
	}
	return b.String()
}
