package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/takaryo1010/termlink/internal/linker"
	"github.com/takaryo1010/termlink/internal/watch"
)

// relinkFile links path in place. It reports whether the file changed.
// Linking is idempotent, so the write it makes triggers one more pass that
// finds nothing to do.
func relinkFile(ctx context.Context, l *linker.Linker, path, article string, plain bool) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read file: %w", err)
	}
	res, err := linkContent(ctx, l, article, string(content), plain)
	if err != nil {
		return false, err
	}
	if res.Content == string(content) {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(res.Content), 0644); err != nil {
		return false, fmt.Errorf("failed to write to file: %w", err)
	}
	return true, nil
}

func newWatchCmd(a *app) *cobra.Command {
	var plain bool
	var article string

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-link a file whenever it or the dictionary changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			src, err := a.sources()
			if err != nil {
				return err
			}
			defer src.Close()
			l, cache := a.newLinker(src)

			w, err := watch.New(a.logger)
			if err != nil {
				return err
			}
			defer w.Stop()

			trigger := make(chan struct{}, 1)
			notify := func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			}
			if err := w.Watch(args[0], func(string) { notify() }); err != nil {
				return err
			}
			// a database-backed whitelist invalidates the cache itself
			if src.st == nil {
				err := w.Watch(a.cfg.Dictionary, func(path string) {
					a.logger.Info("dictionary changed", "path", path)
					cache.Invalidate()
					notify()
				})
				if err != nil {
					return err
				}
			}

			relink := func() {
				changed, err := relinkFile(ctx, l, args[0], article, plain)
				if err != nil {
					a.logger.Error("relink failed", "file", args[0], "error", err)
					return
				}
				if changed {
					a.logger.Info("file relinked", "file", args[0])
				}
			}

			relink()
			a.logger.Info("watching", "file", args[0])
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-trigger:
					relink()
				}
			}
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Treat the file as plain text instead of markdown")
	cmd.Flags().StringVar(&article, "article", "", "Article ID for overrides and heading titles")
	return cmd
}
