package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/docship/internal/logfields"
)

// expandArgs substitutes {placeholder} tokens in an argv template.
func expandArgs(args []string, vars map[string]string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		for key, val := range vars {
			arg = strings.ReplaceAll(arg, "{"+key+"}", val)
		}
		out[i] = arg
	}
	return out
}

// runCommand executes an external tool in dir, streaming its output through
// and waiting for completion. extraEnv entries are appended to the process
// environment.
func runCommand(ctx context.Context, argv []string, dir string, extraEnv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	slog.Debug("Running external tool", logfields.Command(strings.Join(argv, " ")), logfields.Path(dir))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s failed: %w", argv[0], err)
	}
	return nil
}
