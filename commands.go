package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/takaryo1010/termlink/internal/linker"
	"github.com/takaryo1010/termlink/internal/termindex"
	"github.com/takaryo1010/termlink/internal/tree"
	"github.com/takaryo1010/termlink/internal/whitelist"
)

// readInput reads the file named by args, or stdin when there is none.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func linkContent(ctx context.Context, l *linker.Linker, article, content string, plain bool) (linker.Result, error) {
	if plain {
		return l.LinkText(ctx, article, content)
	}
	return l.LinkMarkdown(ctx, article, content)
}

func newLinkCmd(a *app) *cobra.Command {
	var plain, write, dryRun bool
	var article string

	cmd := &cobra.Command{
		Use:   "link [file]",
		Short: "Insert term and heading links into a markdown document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if write && len(args) == 0 {
				return fmt.Errorf("--write needs a file argument")
			}
			content, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			src, err := a.sources()
			if err != nil {
				return err
			}
			defer src.Close()
			l, _ := a.newLinker(src)

			res, err := linkContent(cmd.Context(), l, article, string(content), plain)
			if err != nil {
				return fmt.Errorf("failed to process document: %w", err)
			}

			out := cmd.OutOrStdout()
			if dryRun {
				for _, s := range res.Spans {
					a.logger.Info("planned link",
						"term", s.Source,
						"title", s.Title,
						"kind", s.Kind.String(),
						"start", s.Start,
						"end", s.End,
					)
				}
				fmt.Fprintf(out, "%d links planned\n", len(res.Spans))
				return nil
			}

			if !write {
				fmt.Fprint(out, res.Content)
				return nil
			}
			if res.Content == string(content) {
				fmt.Fprintf(out, "File '%s' is already up to date.\n", args[0])
				return nil
			}
			if err := os.WriteFile(args[0], []byte(res.Content), 0644); err != nil {
				return fmt.Errorf("failed to write to file: %w", err)
			}
			fmt.Fprintf(out, "File '%s' has been updated.\n", args[0])
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&plain, "plain", false, "Treat the input as plain text instead of markdown")
	flags.BoolVarP(&write, "write", "w", false, "Write back to the file")
	flags.BoolVar(&dryRun, "dry-run", false, "Log planned links without writing output")
	flags.StringVar(&article, "article", "", "Article ID for overrides and heading titles")
	return cmd
}

func newTreeCmd(a *app) *cobra.Command {
	var write bool
	var article string

	cmd := &cobra.Command{
		Use:   "tree [file.json]",
		Short: "Insert links into a JSON rich-text document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if write && len(args) == 0 {
				return fmt.Errorf("--write needs a file argument")
			}
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			doc, err := tree.Decode(bytes.NewReader(data))
			if err != nil {
				return err
			}

			src, err := a.sources()
			if err != nil {
				return err
			}
			defer src.Close()
			l, _ := a.newLinker(src)

			n, err := l.LinkTree(cmd.Context(), article, doc)
			if err != nil {
				return err
			}
			a.logger.Info("tree linked", "links", n)

			if !write {
				return doc.Encode(cmd.OutOrStdout())
			}
			var buf bytes.Buffer
			if err := doc.Encode(&buf); err != nil {
				return err
			}
			if err := os.WriteFile(args[0], buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write to file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "File '%s' has been updated.\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write back to the file")
	cmd.Flags().StringVar(&article, "article", "", "Article ID for overrides and heading titles")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the whitelist and report key collisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.sources()
			if err != nil {
				return err
			}
			defer src.Close()

			where := a.cfg.Dictionary
			if src.st != nil {
				where = a.cfg.Database
			}

			entries, aliases, err := src.whitelist.LoadWhitelist(cmd.Context())
			if err != nil {
				return fmt.Errorf("dictionary validation failed: %w", err)
			}
			if _, err := termindex.Build(entries, aliases); err != nil {
				a.logger.Error("whitelist rejected", "source", where, "error", err)
				return fmt.Errorf("dictionary validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dictionary at '%s' is valid (%d terms, %d aliases).\n", where, len(entries), len(aliases))
			return nil
		},
	}
}

func newSortCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sort [output_file]",
		Short: "Sort the dictionary file case-insensitively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := a.cfg.Dictionary
			if len(args) == 1 {
				output = args[0]
			}
			n, err := whitelist.SortFile(a.cfg.Dictionary, output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sorted %d terms into '%s'.\n", n, output)
			return nil
		},
	}
}
