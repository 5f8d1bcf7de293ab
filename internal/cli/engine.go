package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/deixis/contractcheck/internal/config"
	"github.com/deixis/contractcheck/internal/report"
	"github.com/deixis/contractcheck/internal/runner"
	"github.com/deixis/contractcheck/internal/workflow"
)

// loadConfig finds the configuration for the workspace and applies the
// global flag overrides.
func loadConfig(opts *RootOptions) (*config.LoadResult, error) {
	workspace := opts.Workspace
	if workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determining workspace: %w", err)
		}
		workspace = wd
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.TestDir != "" {
		loaded.Config.RawTestDir = opts.TestDir
	}

	slog.Debug("configuration loaded",
		"root", loaded.Root,
		"file", loaded.Path,
		"test_dir", loaded.Config.TestDir(),
		"timeout", loaded.Config.Timeout(),
	)
	return loaded, nil
}

func newRunner(loaded *config.LoadResult, timeoutOverride time.Duration) *runner.Runner {
	timeout := loaded.Config.Timeout()
	if timeoutOverride > 0 {
		timeout = timeoutOverride
	}
	return &runner.Runner{
		Workspace: loaded.Root,
		Timeout:   timeout,
		MaxOutput: loaded.Config.MaxOutputBytes(),
	}
}

// newEngine builds an engine for a single CLI invocation. Reports are not
// stored; mismatch texts go to the per-process temp directory.
func newEngine(opts *RootOptions, timeoutOverride time.Duration) (*workflow.Engine, error) {
	loaded, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return &workflow.Engine{
		Config:    loaded.Config,
		Runner:    newRunner(loaded, timeoutOverride),
		Workspace: loaded.Root,
		Diffs:     report.NewDiskStore(),
	}, nil
}
