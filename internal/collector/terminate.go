package collector

import (
	"errors"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

var (
	ErrInvalidPID        = errors.New("invalid pid")
	ErrProcessNotFound   = errors.New("process not found")
	ErrPermissionDenied  = errors.New("permission denied")
	terminateGracePeriod = 2 * time.Second
)

type TerminateResult struct {
	PID     int32  `json:"pid"`
	Name    string `json:"name,omitempty"`
	Command string `json:"command,omitempty"`
	Signal  string `json:"signal"`
	Forced  bool   `json:"forced"`
}

// TerminateProcess sends TERM and escalates to KILL when the process is still
// alive after a grace period. force skips straight to KILL.
func TerminateProcess(pid int32, force bool) (TerminateResult, error) {
	result := TerminateResult{PID: pid, Signal: "TERM"}
	if pid <= 0 {
		return result, ErrInvalidPID
	}

	proc, err := process.NewProcess(pid)
	if err != nil {
		return result, normalizeTerminateErr(err)
	}
	if name, err := proc.Name(); err == nil {
		result.Name = name
	}
	if command, err := proc.Cmdline(); err == nil {
		result.Command = command
	}

	if force {
		result.Signal = "KILL"
		result.Forced = true
		return result, normalizeTerminateErr(proc.Kill())
	}

	if err := proc.Terminate(); err != nil {
		return result, normalizeTerminateErr(err)
	}
	exited, err := waitProcessExit(proc, terminateGracePeriod)
	if err != nil {
		return result, normalizeTerminateErr(err)
	}
	if exited {
		return result, nil
	}

	result.Signal = "KILL"
	result.Forced = true
	return result, normalizeTerminateErr(proc.Kill())
}

func waitProcessExit(proc *process.Process, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		running, err := proc.IsRunning()
		if err != nil {
			if isProcessMissingErr(err) {
				return true, nil
			}
			return false, err
		}
		if !running {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func normalizeTerminateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, process.ErrorProcessNotRunning) || isProcessMissingErr(err):
		return ErrProcessNotFound
	case isPermissionErr(err):
		return ErrPermissionDenied
	}
	return err
}

func isProcessMissingErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such process") ||
		strings.Contains(msg, "process does not exist") ||
		strings.Contains(msg, "not found")
}

func isPermissionErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "operation not permitted") ||
		strings.Contains(msg, "access is denied")
}
