package errors

import (
	"fmt"
	"time"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *BridgeError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *BridgeError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// NotARepository creates an error for a directory lacking a git marker
func NotARepository(dir string) *BridgeError {
	return New(ErrCodeNotARepository, fmt.Sprintf("not a git repository: %s", dir)).
		WithDetail("dir", dir)
}

// Busy creates an error for a rejected concurrent request
func Busy() *BridgeError {
	return New(ErrCodeBusy, "a task is already running, send your request again once it finishes")
}

// TaskTimeout creates an error for a task exceeding its wall-clock bound
func TaskTimeout(timeout time.Duration) *BridgeError {
	return New(ErrCodeTaskTimeout, fmt.Sprintf("task exceeded the %s time limit and was terminated", timeout)).
		WithDetail("timeout", timeout.String())
}

// TaskFailed creates an error for a task exiting nonzero
func TaskFailed(exitCode int, stderr string) *BridgeError {
	return New(ErrCodeTaskFailed, fmt.Sprintf("task exited with code %d: %s", exitCode, stderr)).
		WithDetail("exitCode", exitCode)
}

// TaskSpawn creates an error for a task that could not be started
func TaskSpawn(binary string, err error) *BridgeError {
	return Wrap(err, ErrCodeTaskSpawn, fmt.Sprintf("failed to start task executor %q", binary)).
		WithDetail("binary", binary)
}

// GitFailed creates an error for a blocking nonzero git exit
func GitFailed(args []string, exitCode int, stderr string) *BridgeError {
	return New(ErrCodeGitFailed, fmt.Sprintf("git %v failed with code %d: %s", args, exitCode, stderr)).
		WithDetail("args", args).
		WithDetail("exitCode", exitCode)
}

// PushFailed creates the distinct "committed but delivery failed" error
func PushFailed(stderr string) *BridgeError {
	return New(ErrCodePushFailed, fmt.Sprintf("the commit succeeded but the push failed: %s", stderr))
}

// StoreCorrupt creates an error for an unreadable persisted store
func StoreCorrupt(path string, err error) *BridgeError {
	return Wrap(err, ErrCodeStoreCorrupt, fmt.Sprintf("persisted store is corrupt: %s", path)).
		WithDetail("path", path)
}
