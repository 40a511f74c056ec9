package orchestrator

import (
	"os"
	"time"
)

// StabilityGate guards against processing a file still being written: it
// reads the file size, waits, and re-reads, proceeding only if the size is
// unchanged.
type StabilityGate interface {
	WaitUntilStable(path string) (bool, error)
}

// FileStabilityGate is the default StabilityGate, backed by os.Stat.
type FileStabilityGate struct {
	Wait time.Duration
}

// NewFileStabilityGate builds a FileStabilityGate with the given sleep
// duration (default 300s, overridable for tests).
func NewFileStabilityGate(wait time.Duration) FileStabilityGate {
	if wait <= 0 {
		wait = 300 * time.Second
	}
	return FileStabilityGate{Wait: wait}
}

func (g FileStabilityGate) WaitUntilStable(path string) (bool, error) {
	before, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	time.Sleep(g.Wait)
	after, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return before.Size() == after.Size(), nil
}
