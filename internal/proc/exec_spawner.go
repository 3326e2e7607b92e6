package proc

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"github.com/atelierhq/atelier/internal/log"
)

// ExecSpawner launches workers with os/exec. The configured command is run
// with the worker-config file path appended as its final argument.
type ExecSpawner struct {
	command []string
	logger  *slog.Logger
}

var _ Spawner = (*ExecSpawner)(nil)

// NewExecSpawner creates a spawner for the given worker command line.
func NewExecSpawner(command []string) (*ExecSpawner, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("worker command is empty")
	}
	return &ExecSpawner{
		command: command,
		logger:  log.WithComponent("spawner"),
	}, nil
}

// Spawn starts the worker process and returns its handle. The process runs
// in its own process group so signals aimed at the daemon don't reach it.
func (s *ExecSpawner) Spawn(configPath string) (Handle, error) {
	args := append(append([]string{}, s.command[1:]...), configPath)
	cmd := exec.Command(s.command[0], args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker process: %w", err)
	}
	pid := cmd.Process.Pid
	s.logger.Debug("worker process started", "pid", pid, "config", configPath)

	h := &execHandle{
		pid:  pid,
		proc: cmd.Process,
		done: make(chan ExitResult, 1),
	}

	go func() {
		err := cmd.Wait()
		h.done <- exitResultFromWait(err)
	}()

	return h, nil
}

type execHandle struct {
	pid  int
	proc *os.Process
	done chan ExitResult
}

func (h *execHandle) PID() int { return h.pid }

func (h *execHandle) Done() <-chan ExitResult { return h.done }

func (h *execHandle) Kill(sev Severity) error {
	return h.proc.Signal(sev.signal())
}

func exitResultFromWait(err error) ExitResult {
	if err == nil {
		return ExitResult{Code: 0}
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		res := ExitResult{Code: exitErr.ExitCode()}
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			res.Signal = ws.Signal().String()
		}
		return res
	}
	// Wait failed below the exit-code layer; surface as a spawn-layer error.
	return ExitResult{Code: -1, Err: err}
}
