// Package outcome defines the uniform result returned by every capability
// handler and the error taxonomy shared across the dispatch layer.
//
// Handlers never return raw errors to the router. Each failure is captured as
// an Outcome carrying a Kind, and the text the reasoning oracle sees is only
// produced by Outcome.String at the outermost reporting boundary.
package outcome

import (
	"errors"
	"fmt"
	"strings"
)

// Kind discriminates failure modes.
type Kind string

const (
	KindNone             Kind = ""
	PathEscape           Kind = "path_escape"
	FileNotFound         Kind = "file_not_found"
	DirectoryNotFound    Kind = "directory_not_found"
	EmptyCommand         Kind = "empty_command"
	UnsupportedPlatform  Kind = "unsupported_platform"
	CommandNotAllowed    Kind = "command_not_allowed"
	CommandTimedOut      Kind = "command_timed_out"
	ExecutionError       Kind = "execution_error"
	MissingCommitMessage Kind = "missing_commit_message"
	ApplicationNotFound  Kind = "application_not_found"
	ActionNotAvailable   Kind = "action_not_available"
	PermissionDenied     Kind = "permission_denied"
	InvalidAction        Kind = "invalid_action"
	Unknown              Kind = "unknown"
)

// Icons used when rendering outcomes.
const (
	IconSuccess   = "✅"
	IconFailure   = "❌"
	IconScheduled = "⚠️"
	IconFile      = "📄"
	IconDirectory = "📁"
	IconShell     = "💻"
	IconDesktop   = "🖥️"
)

// ---------- Errors ----------

// Error is a failure with a taxonomy kind. Two Errors match under errors.Is
// when their kinds are equal, so the package-level sentinels can be used as
// targets.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Sentinels for errors.Is comparisons.
var (
	ErrPathEscape           = &Error{Kind: PathEscape}
	ErrFileNotFound         = &Error{Kind: FileNotFound}
	ErrDirectoryNotFound    = &Error{Kind: DirectoryNotFound}
	ErrEmptyCommand         = &Error{Kind: EmptyCommand}
	ErrUnsupportedPlatform  = &Error{Kind: UnsupportedPlatform}
	ErrCommandNotAllowed    = &Error{Kind: CommandNotAllowed}
	ErrCommandTimedOut      = &Error{Kind: CommandTimedOut}
	ErrExecution            = &Error{Kind: ExecutionError}
	ErrMissingCommitMessage = &Error{Kind: MissingCommitMessage}
	ErrApplicationNotFound  = &Error{Kind: ApplicationNotFound}
	ErrActionNotAvailable   = &Error{Kind: ActionNotAvailable}
	ErrPermissionDenied     = &Error{Kind: PermissionDenied}
	ErrInvalidAction        = &Error{Kind: InvalidAction}
)

// Errorf builds an *Error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error that keeps err as its cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality with another *Error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the Kind from err, or Unknown when err carries none.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// ---------- Outcome ----------

// Outcome is the result of one handled action.
type Outcome struct {
	Succeeded bool
	Kind      Kind
	Message   string

	// Raw carries verbatim payload text (file contents, command output,
	// listings). Empty when the handler has nothing beyond Message.
	Raw string

	// Icon overrides the success prefix.
	Icon string
}

// Success returns a successful outcome.
func Success(format string, args ...any) Outcome {
	return Outcome{Succeeded: true, Message: fmt.Sprintf(format, args...)}
}

// WithPayload returns a successful outcome with an icon and raw payload.
func WithPayload(icon, message, raw string) Outcome {
	return Outcome{Succeeded: true, Icon: icon, Message: message, Raw: raw}
}

// Failure returns a failed outcome of the given kind.
func Failure(kind Kind, format string, args ...any) Outcome {
	return Outcome{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// FromError converts err into a failed outcome. A nil err yields an empty
// success, which callers should not rely on.
func FromError(err error) Outcome {
	if err == nil {
		return Outcome{Succeeded: true}
	}
	return Outcome{Kind: KindOf(err), Message: err.Error()}
}

// Err returns the failure as an error, or nil on success.
func (o Outcome) Err() error {
	if o.Succeeded {
		return nil
	}
	return &Error{Kind: o.Kind, Msg: o.Message}
}

// String renders the outcome for the oracle and the terminal.
func (o Outcome) String() string {
	var b strings.Builder
	if o.Succeeded {
		icon := o.Icon
		if icon == "" {
			icon = IconSuccess
		}
		b.WriteString(icon)
	} else {
		b.WriteString(IconFailure)
	}
	if o.Message != "" {
		b.WriteByte(' ')
		b.WriteString(o.Message)
	}
	if o.Raw != "" {
		b.WriteByte('\n')
		b.WriteString(o.Raw)
	}
	return b.String()
}
