package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/takaryo1010/termlink/internal/ports"
	"github.com/takaryo1010/termlink/internal/whitelist"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Replace the database whitelist with the dictionary file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dict, err := whitelist.LoadDictionary(a.cfg.Dictionary)
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			entries, aliases := dict.Split()
			if err := st.ImportWhitelist(entries, aliases); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d terms and %d aliases into '%s'.\n", len(entries), len(aliases), a.cfg.Database)
			return nil
		},
	}
}

func newOverrideCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manage per-article term overrides in the database",
	}

	var disable bool
	var title string
	set := &cobra.Command{
		Use:   "set <article> <term>",
		Short: "Disable a term or give it a custom title for one article",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !disable && title == "" {
				return fmt.Errorf("nothing to set: use --disable or --title")
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			o := ports.Override{Term: args[1], Disabled: disable, CustomTitle: title}
			if err := st.SetOverride(args[0], o); err != nil {
				return err
			}
			a.logger.Info("override stored", "article", args[0], "term", args[1], "disabled", disable, "title", title)
			return nil
		},
	}
	set.Flags().BoolVar(&disable, "disable", false, "Do not link the term in this article")
	set.Flags().StringVar(&title, "title", "", "Link the term to this title instead")

	rm := &cobra.Command{
		Use:   "rm <article> <term>",
		Short: "Remove an override",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			return st.DeleteOverride(args[0], args[1])
		},
	}

	cmd.AddCommand(set, rm)
	return cmd
}

func newHeadingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heading",
		Short: "Manage precomputed heading titles in the database",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <article> <heading> <title>",
		Short: "Link a heading of an article to a standalone title",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			return st.PutHeadingLink(args[0], ports.HeadingLink{HeadingText: args[1], Title: args[2]})
		},
	})
	return cmd
}
