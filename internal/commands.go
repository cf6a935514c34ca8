package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/noteflow/internal/apperr"
	"github.com/starford/noteflow/internal/mcpserver"
	"github.com/starford/noteflow/internal/models"
	"github.com/starford/noteflow/internal/transfer"
)

// RunMCP serves the note tools over stdio until the client disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	svc, closeSvc, err := app.openService(nil)
	if err != nil {
		return err
	}
	defer closeSvc()

	app.logger.Info("mcp: serving on stdio")
	return mcpserver.New(svc, app.version).ServeStdio()
}

// Export writes one note in the given format to w.
func Export(ctx context.Context, id string, format string, w io.Writer, opts ...Option) error {
	f, err := transfer.ParseFormat(format)
	if err != nil {
		return err
	}
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	svc, closeSvc, err := app.openService(nil)
	if err != nil {
		return err
	}
	defer closeSvc()

	file, err := svc.Export(ctx, id, f)
	if err != nil {
		return err
	}
	_, err = w.Write(file.Data)
	return err
}

// Import imports each file into the collection. Files that fail are
// reported and skipped; the joined error lists every failure.
func Import(ctx context.Context, paths []string, out io.Writer, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	svc, closeSvc, err := app.openService(nil)
	if err != nil {
		return err
	}
	defer closeSvc()

	var errs []error
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res, err := svc.Import(ctx, filepath.Base(p), data)
		if err != nil {
			if errors.Is(err, apperr.ErrStorage) {
				return err
			}
			app.logger.Warn("import: skipped", slog.String("path", p), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		verb := "added"
		if res.Action == models.ImportUpdate {
			verb = "updated"
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", verb, res.Note.ID, res.Note.Title)
	}
	return errors.Join(errs...)
}
