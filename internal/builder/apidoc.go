package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docship/internal/logfields"
)

// APIDoc runs the external API-reference generator for one version. The
// generator's intermediate state goes into a per-version cache directory,
// exported through cacheEnv, because it is not reentrant across differing
// source versions.
type APIDoc struct {
	command  []string
	cacheEnv string
	copyFrom string
}

// NewAPIDoc creates an API-doc builder. copyFrom, when non-empty, names a
// path under the cache directory whose contents are the generator's real
// output and get copied into dest after a successful run (the cargo-doc
// layout, where documentation lands under the target dir).
func NewAPIDoc(command []string, cacheEnv, copyFrom string) *APIDoc {
	return &APIDoc{command: command, cacheEnv: cacheEnv, copyFrom: copyFrom}
}

// Build generates the API reference from source into dest, using cache for
// build intermediates.
func (a *APIDoc) Build(ctx context.Context, source, dest, cache string) error {
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return fmt.Errorf("failed to create api destination: %w", err)
	}

	argv := expandArgs(a.command, map[string]string{"source": source, "dest": dest, "cache": cache})
	var env []string
	if a.cacheEnv != "" {
		env = []string{a.cacheEnv + "=" + cache}
	}

	slog.Info("Building API reference", logfields.Path(dest))
	if err := runCommand(ctx, argv, source, env); err != nil {
		return fmt.Errorf("api build failed: %w", err)
	}

	if a.copyFrom != "" {
		generated := filepath.Join(cache, a.copyFrom)
		if err := copyDir(generated, dest); err != nil {
			return fmt.Errorf("failed to collect api output: %w", err)
		}
		slog.Debug("Collected API output", logfields.Path(generated))
	}
	return nil
}
