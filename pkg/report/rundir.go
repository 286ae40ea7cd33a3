package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const runTimestampLayout = "20060102-150405"

// RunPaths holds the filesystem layout of one assessment run: a timestamped
// directory containing the CSV report and the log transcript.
type RunPaths struct {
	Dir        string
	ReportFile string
	LogFile    string
	Timestamp  string
}

// ResolveOutputDir returns dir when it names a usable directory. When dir is
// empty or unusable it falls back to the executable's own directory, then to
// the working directory.
func ResolveOutputDir(dir string) string {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	if exe, err := os.Executable(); err == nil {
		return filepath.Dir(exe)
	}
	return "."
}

// CreateRunDir creates <base>/<timestamp> and returns the run paths. The
// report and log file names carry the same timestamp as the directory.
func CreateRunDir(base string, now time.Time) (*RunPaths, error) {
	timestamp := now.Format(runTimestampLayout)
	dir := filepath.Join(base, timestamp)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create run directory %s: %w", dir, err)
	}
	return &RunPaths{
		Dir:        dir,
		ReportFile: filepath.Join(dir, fmt.Sprintf("aks-assessment-%s.csv", timestamp)),
		LogFile:    filepath.Join(dir, fmt.Sprintf("aks-assessment-%s.log", timestamp)),
		Timestamp:  timestamp,
	}, nil
}
