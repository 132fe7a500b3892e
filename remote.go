package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/takaryo1010/termlink/internal/whitelist"
)

// remoteDictPath is where a shared dictionary lives in its repository.
const remoteDictPath = "dict.yaml"

// cmdRunner is a package-level variable that can be overridden for testing.
var cmdRunner = exec.Command

// downloadDictFile fetches the shared dictionary of repo ("owner/name") with
// the gh CLI and writes it to filePath. The download is validated before
// anything is written.
func downloadDictFile(repo, filePath string) error {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid repository format %q: expected owner/name", repo)
	}

	cmd := cmdRunner("gh", "api",
		"-H", "Accept: application/vnd.github.raw",
		fmt.Sprintf("/repos/%s/contents/%s", repo, remoteDictPath))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("failed to download %s from %s (gh api stderr: %s): %w", remoteDictPath, repo, strings.TrimSpace(stderr.String()), err)
		}
		return fmt.Errorf("failed to download %s from %s: %w", remoteDictPath, repo, err)
	}

	if _, err := whitelist.Parse(stdout.Bytes()); err != nil {
		return fmt.Errorf("downloaded %s is not a valid dictionary: %w", remoteDictPath, err)
	}
	if err := os.WriteFile(filePath, stdout.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filePath, err)
	}
	return nil
}

// handleInitCommand creates the local dictionary from repo. An existing
// file is only replaced when overwrite is set.
func handleInitCommand(repo, filePath string, overwrite bool) error {
	if _, err := os.Stat(filePath); err == nil && !overwrite {
		return fmt.Errorf("%s already exists (use --force to overwrite)", filePath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", filePath, err)
	}
	return downloadDictFile(repo, filePath)
}

// handleUpdateCommand replaces the local dictionary with the one in repo.
func handleUpdateCommand(repo, filePath string) error {
	return downloadDictFile(repo, filePath)
}

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init <owner/repo>",
		Short: "Create the dictionary from a shared GitHub repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := handleInitCommand(args[0], a.cfg.Dictionary, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created '%s' from %s.\n", a.cfg.Dictionary, args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing dictionary")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update <owner/repo>",
		Short: "Replace the dictionary with the shared copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := handleUpdateCommand(args[0], a.cfg.Dictionary); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated '%s' from %s.\n", a.cfg.Dictionary, args[0])
			return nil
		},
	}
}
