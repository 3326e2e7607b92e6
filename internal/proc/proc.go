// Package proc abstracts spawned worker processes behind a handle carrying
// the pid, an exit notification channel, and a severity-graded kill.
package proc

import (
	"os"
	"syscall"
)

// Severity grades a kill request.
type Severity int

const (
	// SeverityGraceful asks the worker to wind down (SIGTERM).
	SeverityGraceful Severity = iota
	// SeverityForce terminates the worker unconditionally (SIGKILL).
	SeverityForce
)

func (s Severity) String() string {
	if s == SeverityForce {
		return "force"
	}
	return "graceful"
}

func (s Severity) signal() syscall.Signal {
	if s == SeverityForce {
		return syscall.SIGKILL
	}
	return syscall.SIGTERM
}

// ExitResult is delivered exactly once on a handle's Done channel.
// Err is set when the spawn layer itself failed after start; such a result
// carries no meaningful exit code.
type ExitResult struct {
	Code   int
	Signal string
	Err    error
}

// Handle is the supervisor's view of a live worker process. The engine owns
// only the bookkeeping keyed by pid, never the process memory or I/O.
type Handle interface {
	PID() int
	// Done yields the exit result once, when the process terminates.
	Done() <-chan ExitResult
	// Kill sends the signal for the given severity. Best effort: the
	// process may already be gone.
	Kill(sev Severity) error
}

// Spawner creates worker processes from a worker-config file path.
type Spawner interface {
	Spawn(configPath string) (Handle, error)
}

// Alive probes whether pid is still running using a zero-effect signal.
// On Unix FindProcess always succeeds, so signal 0 is the actual check.
func Alive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
