// Package files implements the file mutation service. Every path is resolved
// through the project root guard before the filesystem is touched.
package files

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jholhewres/nova/pkg/nova/outcome"
	"github.com/jholhewres/nova/pkg/nova/sandbox"
)

const (
	fileMode = 0o644
	dirMode  = 0o755
)

// Entry is one immediate child of a listed directory.
type Entry struct {
	Name  string
	IsDir bool
	Size  int64
}

// Service performs file operations confined to a project root.
type Service struct {
	root   *sandbox.Root
	logger *slog.Logger
}

// NewService creates a file service bound to root.
func NewService(root *sandbox.Root, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{root: root, logger: logger.With("component", "files")}
}

// Root returns the project root path.
func (s *Service) Root() string { return s.root.Path() }

// CreateFile writes content to path, creating parent directories and
// overwriting any existing file.
func (s *Service) CreateFile(path, content string) outcome.Outcome {
	abs, err := s.resolve(path)
	if err != nil {
		return outcome.FromError(err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), dirMode); err != nil {
		return outcome.Failure(outcome.ExecutionError, "Error creating directory for %s: %v", path, err)
	}
	if err := os.WriteFile(abs, []byte(content), fileMode); err != nil {
		return outcome.Failure(outcome.ExecutionError, "Error writing %s: %v", path, err)
	}
	s.logger.Info("file created", "path", path, "bytes", len(content))
	return outcome.Success("Created file: %s", path)
}

// Read returns the contents of path.
func (s *Service) Read(path string) (string, error) {
	abs, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", outcome.Errorf(outcome.FileNotFound, "File not found: %s", path)
		}
		return "", outcome.Wrap(outcome.ExecutionError, err, "Error reading %s", path)
	}
	return string(data), nil
}

// ReadFile returns the contents of path as the outcome payload.
func (s *Service) ReadFile(path string) outcome.Outcome {
	content, err := s.Read(path)
	if err != nil {
		return outcome.FromError(err)
	}
	return outcome.WithPayload(outcome.IconFile, fmt.Sprintf("Contents of %s:", path), content)
}

// UpdateFile overwrites an existing file. It never creates one.
func (s *Service) UpdateFile(path, content string) outcome.Outcome {
	abs, err := s.resolve(path)
	if err != nil {
		return outcome.FromError(err)
	}
	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return outcome.Failure(outcome.FileNotFound, "File not found: %s", path)
	case err != nil:
		return outcome.Failure(outcome.ExecutionError, "Error reading %s: %v", path, err)
	case info.IsDir():
		return outcome.Failure(outcome.FileNotFound, "File not found: %s", path)
	}
	if err := os.WriteFile(abs, []byte(content), info.Mode().Perm()); err != nil {
		return outcome.Failure(outcome.ExecutionError, "Error writing %s: %v", path, err)
	}
	s.logger.Info("file updated", "path", path, "bytes", len(content))
	return outcome.Success("Updated file: %s", path)
}

// List returns the immediate children of path sorted by name. An empty path
// lists the project root.
func (s *Service) List(path string) ([]Entry, error) {
	abs, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, outcome.Errorf(outcome.DirectoryNotFound, "Directory not found: %s", displayDir(path))
		}
		return nil, outcome.Wrap(outcome.ExecutionError, err, "Error listing %s", displayDir(path))
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		e := Entry{Name: de.Name(), IsDir: de.IsDir()}
		if !e.IsDir {
			if info, err := de.Info(); err == nil {
				e.Size = info.Size()
			}
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// ListDirectory renders the children of path.
func (s *Service) ListDirectory(path string) outcome.Outcome {
	entries, err := s.List(path)
	if err != nil {
		return outcome.FromError(err)
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		if e.IsDir {
			fmt.Fprintf(&b, "%s %s/", outcome.IconDirectory, e.Name)
		} else {
			fmt.Fprintf(&b, "%s %s (%d bytes)", outcome.IconFile, e.Name, e.Size)
		}
	}
	raw := b.String()
	if raw == "" {
		raw = "(empty)"
	}
	return outcome.WithPayload(outcome.IconDirectory, fmt.Sprintf("Contents of %s:", displayDir(path)), raw)
}

// MakeDirectory creates path and any missing ancestors. It is idempotent.
func (s *Service) MakeDirectory(path string) outcome.Outcome {
	abs, err := s.resolve(path)
	if err != nil {
		return outcome.FromError(err)
	}
	if err := os.MkdirAll(abs, dirMode); err != nil {
		return outcome.Failure(outcome.ExecutionError, "Error creating directory %s: %v", path, err)
	}
	s.logger.Info("directory created", "path", path)
	return outcome.Success("Created directory: %s", path)
}

func (s *Service) resolve(path string) (string, error) {
	abs, err := s.root.Resolve(path)
	if err != nil {
		s.logger.Warn("path rejected", "path", path, "error", err)
		return "", err
	}
	return abs, nil
}

func displayDir(path string) string {
	if path == "" {
		return "."
	}
	return path
}
