package apps

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/jholhewres/nova/pkg/nova/sandbox"
)

// SystemProcessTable is the ProcessTable backed by the host process list.
type SystemProcessTable struct{}

// NewSystemProcessTable creates a host process table.
func NewSystemProcessTable() *SystemProcessTable { return &SystemProcessTable{} }

func (SystemProcessTable) Processes(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		out = append(out, Process{PID: p.Pid, Name: name})
	}
	return out, nil
}

func (SystemProcessTable) Terminate(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return err
	}
	return p.TerminateWithContext(ctx)
}

// TasklistTitles reads window titles from the Windows tasklist verbose CSV
// output.
type TasklistTitles struct {
	Runner sandbox.CommandRunner
}

func (t *TasklistTitles) WindowTitles(ctx context.Context) (map[int32]string, error) {
	res, err := t.Runner.Run(ctx, &sandbox.ExecRequest{
		Program: "tasklist",
		Args:    []string{"/v", "/fo", "csv", "/nh"},
	})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("tasklist exited with %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return parseTasklist([]byte(res.Stdout))
}

// parseTasklist extracts PID → window title from "tasklist /v /fo csv /nh".
// Columns: image, PID, session, session#, memory, status, user, CPU time,
// window title.
func parseTasklist(data []byte) (map[int32]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	titles := make(map[int32]string)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return titles, fmt.Errorf("parsing tasklist: %w", err)
		}
		if len(rec) < 9 {
			continue
		}
		pid, err := strconv.ParseInt(strings.TrimSpace(rec[1]), 10, 32)
		if err != nil {
			continue
		}
		title := strings.TrimSpace(rec[len(rec)-1])
		if title == "" || title == "N/A" {
			continue
		}
		titles[int32(pid)] = title
	}
	return titles, nil
}
