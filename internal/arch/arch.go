// Package arch resolves the target architecture of a sync run.
package arch

import (
	"context"
	"fmt"
	"strings"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
	"github.com/cgwalters/cosa-rojig-repoize/internal/executor"
)

// Detector returns the base architecture of the host.
type Detector func(ctx context.Context) (string, error)

// CommandDetector returns a Detector that runs cmd and uses its trimmed stdout.
func CommandDetector(cmd executor.Executor) Detector {
	return func(ctx context.Context) (string, error) {
		result, err := cmd.Execute(ctx)
		if err != nil {
			if result != nil && strings.TrimSpace(result.Stderr) != "" {
				err = fmt.Errorf("%w: %s", err, strings.TrimSpace(result.Stderr))
			}
			return "", repoerrors.NewConfigError("arch", fmt.Errorf("%w: %w", repoerrors.ErrDetectArch, err))
		}

		arch := strings.TrimSpace(result.Stdout)
		if arch == "" {
			return "", repoerrors.NewConfigError("arch",
				fmt.Errorf("%w: helper printed nothing", repoerrors.ErrDetectArch))
		}
		return arch, nil
	}
}

// DefaultDetector asks coreos-assembler for the base architecture.
func DefaultDetector() Detector {
	return CommandDetector(executor.NewWrappedExecutor("cosa").Command("basearch"))
}

// Resolve returns explicit when set and otherwise consults detect.
func Resolve(ctx context.Context, explicit string, detect Detector) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}
	if detect == nil {
		detect = DefaultDetector()
	}
	return detect(ctx)
}
