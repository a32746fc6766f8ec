package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/LookoutProject/lookout/pkg/retry"
)

// Manual returns a handler for actions that cannot be automated. It
// logs the operator guidance and reports manual intervention.
func Manual(logger *slog.Logger, guidance string) Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return HandlerFunc(func(ctx context.Context) error {
		logger.InfoContext(ctx, "manual recovery required", slog.String("guidance", guidance))
		return ErrManualIntervention
	})
}

// CleanStalePIDFile returns a handler that removes a leftover PID file.
// A missing file counts as success.
func CleanStalePIDFile(path string) Handler {
	return HandlerFunc(func(ctx context.Context) error {
		err := os.Remove(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove pid file: %w", err)
		}
		return nil
	})
}

// RotateLogs returns a handler that renames the current log file with a
// timestamp suffix and starts a fresh one.
func RotateLogs(path string) Handler {
	return HandlerFunc(func(ctx context.Context) error {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		stamp := time.Now().Format("20060102_150405")
		rotated := strings.TrimSuffix(path, filepath.Ext(path)) + "." + stamp + ".log"
		if err := os.Rename(path, rotated); err != nil {
			return fmt.Errorf("rotate log file: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("create fresh log file: %w", err)
		}
		return f.Close()
	})
}

// CleanupLogs returns a handler that removes rotated log files older
// than maxAge from dir.
func CleanupLogs(dir string, maxAge time.Duration) Handler {
	return HandlerFunc(func(ctx context.Context) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("read log dir: %w", err)
		}
		cutoff := time.Now().Add(-maxAge)
		for _, entry := range entries {
			if entry.IsDir() || !strings.Contains(entry.Name(), ".log") {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
					return fmt.Errorf("remove %s: %w", entry.Name(), err)
				}
			}
		}
		return nil
	})
}

// StartDaemon returns a handler that launches the monitored daemon
// using the configured command and detaches from it.
func StartDaemon(command []string) Handler {
	return HandlerFunc(func(ctx context.Context) error {
		if len(command) == 0 {
			return errors.New("no daemon command configured")
		}
		cmd := exec.Command(command[0], command[1:]...)
		cmd.Stdout = nil
		cmd.Stderr = nil
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("start daemon: %w", err)
		}
		return cmd.Process.Release()
	})
}

// RestartDaemon returns a handler that terminates the process recorded
// in the PID file, waits briefly, and starts the daemon again.
func RestartDaemon(pidFile string, command []string) Handler {
	start := StartDaemon(command)
	return HandlerFunc(func(ctx context.Context) error {
		if pid, err := readPIDFile(pidFile); err == nil {
			if proc, err := os.FindProcess(pid); err == nil {
				_ = proc.Signal(syscall.SIGTERM)
				time.Sleep(2 * time.Second)
			}
		}
		return start.Handle(ctx)
	})
}

// SignalDaemon returns a handler that delivers a signal to the process
// recorded in the PID file. Queue and backlog draining are implemented
// this way: the daemon reacts to SIGHUP and SIGUSR1 by processing more
// aggressively.
func SignalDaemon(pidFile string, sig syscall.Signal) Handler {
	return HandlerFunc(func(ctx context.Context) error {
		pid, err := readPIDFile(pidFile)
		if err != nil {
			return err
		}
		proc, err := os.FindProcess(pid)
		if err != nil {
			return fmt.Errorf("find process %d: %w", pid, err)
		}
		if err := proc.Signal(sig); err != nil {
			return fmt.Errorf("signal process %d: %w", pid, err)
		}
		return nil
	})
}

// Retrying wraps a handler with exponential backoff for remediations
// that can fail transiently.
func Retrying(handler Handler, cfg retry.Config) Handler {
	return HandlerFunc(func(ctx context.Context) error {
		return retry.Do(ctx, cfg, handler.Handle)
	})
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file: %w", err)
	}
	return pid, nil
}
