// Package publish uploads the assembled output tree to the hosting target.
// The upload itself is an opaque external command; this package contributes
// credential handling and bounded retry with backoff.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/docship/internal/logfields"
	"git.home.luguber.info/inful/docship/internal/version"
)

// Manifest is the finalized upload request: the assembled tree, where it
// goes, and which versions it contains.
type Manifest struct {
	Root        string
	Destination string
	Versions    []version.Tag
}

// Publisher uploads an assembled tree exactly once per pipeline run.
type Publisher interface {
	Publish(ctx context.Context, m Manifest) error
}

// CommandPublisher runs a configured upload command ({source} and {dest}
// placeholders) with the publish credential taken from the environment.
type CommandPublisher struct {
	command       []string
	credentialEnv string
}

// NewCommandPublisher creates a publisher for the given argv template.
// credentialEnv names the environment variable holding the credential; the
// variable must be set at publish time.
func NewCommandPublisher(command []string, credentialEnv string) *CommandPublisher {
	return &CommandPublisher{command: command, credentialEnv: credentialEnv}
}

func (p *CommandPublisher) Publish(ctx context.Context, m Manifest) error {
	if p.credentialEnv != "" && os.Getenv(p.credentialEnv) == "" {
		return fmt.Errorf("publish credential %s is not set", p.credentialEnv)
	}
	if len(p.command) == 0 {
		return fmt.Errorf("empty publish command")
	}

	argv := make([]string, len(p.command))
	for i, arg := range p.command {
		arg = strings.ReplaceAll(arg, "{source}", m.Root)
		arg = strings.ReplaceAll(arg, "{dest}", m.Destination)
		argv[i] = arg
	}

	slog.Info("Publishing output tree",
		logfields.Path(m.Root),
		logfields.Destination(m.Destination),
		slog.Int("versions", len(m.Versions)))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("upload command %s failed: %w", argv[0], err)
	}
	return nil
}
