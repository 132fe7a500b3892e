package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// originalCmdRunner stores the original exec.Command function.
// The actual mocking of 'cmdRunner' (defined in remote.go) happens per test.
var originalCmdRunner = exec.Command

const sharedDict = "terms:\n  - term: Vite\n    title: Vite\n"

func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	os.Exit(code)
}

// Helper to check if a file exists
func fileExists(t *testing.T, path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// mockGh makes every gh invocation print content, failing the test if the
// request does not target the shared dictionary.
func mockGh(t *testing.T, content string) {
	t.Helper()
	oldCmdRunner := cmdRunner
	cmdRunner = func(name string, arg ...string) *exec.Cmd {
		if name == "gh" && arg[0] == "api" && strings.Contains(arg[len(arg)-1], remoteDictPath) {
			return exec.Command("echo", content)
		}
		return originalCmdRunner(name, arg...)
	}
	t.Cleanup(func() { cmdRunner = oldCmdRunner })
}

// --- Test handleInitCommand ---

func TestHandleInitCommand(t *testing.T) {
	repo := "owner/repo"
	tmpDir := t.TempDir()
	mockGh(t, sharedDict)

	tests := []struct {
		name        string
		overwrite   bool
		preExisting bool
		wantErr     bool
		errContains string
		wantContent string
	}{
		{
			name:        "successfully initialize new file",
			wantContent: sharedDict,
		},
		{
			name:        "file already exists, no overwrite",
			preExisting: true,
			wantErr:     true,
			errContains: "dict.yaml already exists",
			wantContent: "old content",
		},
		{
			name:        "file already exists, with overwrite",
			overwrite:   true,
			preExisting: true,
			wantContent: sharedDict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(tmpDir, "dict.yaml")
			if tt.preExisting {
				os.WriteFile(filePath, []byte("old content"), 0644)
			} else {
				os.Remove(filePath) // Ensure it doesn't exist
			}

			err := handleInitCommand(repo, filePath, tt.overwrite)

			if (err != nil) != tt.wantErr {
				t.Errorf("handleInitCommand() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && err != nil && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("handleInitCommand() error message = %q, want error message containing %q", err.Error(), tt.errContains)
			}
			if !fileExists(t, filePath) {
				t.Fatalf("handleInitCommand() left no file at %s", filePath)
			}
			content, _ := os.ReadFile(filePath)
			if strings.TrimRight(string(content), "\n") != strings.TrimRight(tt.wantContent, "\n") {
				t.Errorf("handleInitCommand() file content = %q, want %q", content, tt.wantContent)
			}
		})
	}
}

// --- Test handleUpdateCommand ---

func TestHandleUpdateCommand(t *testing.T) {
	repo := "owner/repo"
	tmpDir := t.TempDir()
	mockGh(t, sharedDict)

	tests := []struct {
		name        string
		preExisting bool
	}{
		{name: "successfully update existing file", preExisting: true},
		{name: "successfully update non-existing file", preExisting: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(tmpDir, "dict.yaml")
			if tt.preExisting {
				os.WriteFile(filePath, []byte("old content"), 0644)
			} else {
				os.Remove(filePath)
			}

			if err := handleUpdateCommand(repo, filePath); err != nil {
				t.Fatalf("handleUpdateCommand() error = %v", err)
			}
			content, _ := os.ReadFile(filePath)
			if strings.TrimRight(string(content), "\n") != strings.TrimRight(sharedDict, "\n") {
				t.Errorf("handleUpdateCommand() file content = %q, want %q", content, sharedDict)
			}
		})
	}
}

// --- Test downloadDictFile ---

func TestDownloadDictFile_InvalidRepo(t *testing.T) {
	oldCmdRunner := cmdRunner
	cmdRunner = func(name string, arg ...string) *exec.Cmd {
		t.Fatalf("gh command should not be called for invalid repo format")
		return nil
	}
	defer func() { cmdRunner = oldCmdRunner }()

	for _, repo := range []string{"invalid-repo-format", "a/b/c", "/repo", "owner/"} {
		err := downloadDictFile(repo, filepath.Join(t.TempDir(), "dict.yaml"))
		if err == nil {
			t.Errorf("downloadDictFile(%q) expected an error, got nil", repo)
			continue
		}
		if !strings.Contains(err.Error(), "invalid repository format") {
			t.Errorf("downloadDictFile(%q) error message = %q, want \"invalid repository format\"", repo, err.Error())
		}
	}
}

func TestDownloadDictFile_GhApiError(t *testing.T) {
	oldCmdRunner := cmdRunner
	cmdRunner = func(name string, arg ...string) *exec.Cmd {
		if name == "gh" {
			return exec.Command("bash", "-c", "echo 'gh api error' >&2; exit 1")
		}
		return originalCmdRunner(name, arg...)
	}
	defer func() { cmdRunner = oldCmdRunner }()

	err := downloadDictFile("owner/repo", filepath.Join(t.TempDir(), "dict.yaml"))
	if err == nil {
		t.Fatalf("downloadDictFile() expected an error for gh api failure, got nil")
	}
	want := "failed to download dict.yaml from owner/repo (gh api stderr: gh api error): exit status 1"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("downloadDictFile() error message = %q, want error message containing %q", err.Error(), want)
	}
}

func TestDownloadDictFile_InvalidDictionary(t *testing.T) {
	mockGh(t, "terms:\n  - term: Vite\n")
	filePath := filepath.Join(t.TempDir(), "dict.yaml")

	err := downloadDictFile("owner/repo", filePath)
	if err == nil || !strings.Contains(err.Error(), "not a valid dictionary") {
		t.Fatalf("downloadDictFile() error = %v, want invalid dictionary error", err)
	}
	if fileExists(t, filePath) {
		t.Errorf("downloadDictFile() wrote an invalid dictionary")
	}
}

func TestDownloadDictFile_WriteFileError(t *testing.T) {
	mockGh(t, sharedDict)
	filePath := filepath.Join(t.TempDir(), "nonexistent_dir", "dict.yaml") // Path that will cause a write error

	err := downloadDictFile("owner/repo", filePath)
	if err == nil {
		t.Fatalf("downloadDictFile() expected an error for write file failure, got nil")
	}
	if !strings.Contains(err.Error(), "failed to write") {
		t.Errorf("downloadDictFile() error message = %q, want error message containing \"failed to write\"", err.Error())
	}
}
