package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/docship/internal/logfields"
)

// Book runs the external book compiler for one version.
type Book struct {
	command []string
}

// NewBook creates a book builder with the configured argv template.
func NewBook(command []string) *Book {
	return &Book{command: command}
}

// Build compiles the book from source into dest. dest is created if missing
// and is the only location the compiler is pointed at.
func (b *Book) Build(ctx context.Context, source, dest string) error {
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return fmt.Errorf("failed to create book destination: %w", err)
	}

	argv := expandArgs(b.command, map[string]string{"source": source, "dest": dest})
	slog.Info("Building book", logfields.Path(dest))
	if err := runCommand(ctx, argv, source, nil); err != nil {
		return fmt.Errorf("book build failed: %w", err)
	}
	return nil
}
