package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/takaryo1010/termlink/internal/whitelist"
)

func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	os.Exit(code)
}

// Helper to create a temporary README.md with markers
func createTempReadme(t *testing.T, initialContent string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "README.md")
	if err := os.WriteFile(path, []byte(initialContent), 0644); err != nil {
		t.Fatalf("Failed to write temp README.md: %v", err)
	}
	return path
}

// TestGenerateMarkdownList tests generating Markdown from dictionary terms
func TestGenerateMarkdownList(t *testing.T) {
	terms := []whitelist.Term{
		{Term: "Vite", Title: "Vite Build Tool"},
		{Term: ".NET", Title: ".NET"},
		{Term: "gRPC", Title: "gRPC", Description: "RPC framework"},
	}
	expectedMarkdown := "- [gRPC](/standalone-title?t=gRPC): RPC framework\n" +
		"- [Vite](/standalone-title?t=Vite%20Build%20Tool)\n" +
		"- [.NET](/standalone-title?t=.NET)\n"

	markdown := generateMarkdownList(terms)
	if markdown != expectedMarkdown {
		t.Errorf("generateMarkdownList() got = %q, want %q", markdown, expectedMarkdown)
	}
	if terms[0].Term != "Vite" {
		t.Errorf("generateMarkdownList() reordered its input")
	}
}

// TestUpdateReadme tests updating README.md with the glossary
func TestUpdateReadme(t *testing.T) {
	initialReadme := "\n# Project Title\n\n## Glossary\n<!-- GLOSSARY_START -->\nold list\n<!-- GLOSSARY_END -->\n\n## Contributing\n"
	newMarkdown := "- [Vite](/standalone-title?t=Vite)\n"
	expectedReadme := "\n# Project Title\n\n## Glossary\n<!-- GLOSSARY_START -->\n- [Vite](/standalone-title?t=Vite)\n<!-- GLOSSARY_END -->\n\n## Contributing\n"
	readmePath := createTempReadme(t, initialReadme)

	if err := updateReadme(readmePath, newMarkdown); err != nil {
		t.Fatalf("updateReadme() failed: %v", err)
	}

	updatedContent, err := os.ReadFile(readmePath)
	if err != nil {
		t.Fatalf("Failed to read updated README.md: %v", err)
	}
	if string(updatedContent) != expectedReadme {
		t.Errorf("updateReadme() got = %q, want %q", string(updatedContent), expectedReadme)
	}
}

// TestUpdateReadme_NoMarkers tests updating README.md when markers are missing
func TestUpdateReadme_NoMarkers(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no markers", "\n# Project Title\n## Glossary\n"},
		{"reversed markers", "<!-- GLOSSARY_END -->\n<!-- GLOSSARY_START -->\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readmePath := createTempReadme(t, tt.content)
			err := updateReadme(readmePath, "- x\n")
			if err == nil {
				t.Fatalf("updateReadme() expected an error for missing markers, got nil")
			}
			if !strings.Contains(err.Error(), "GLOSSARY_START or GLOSSARY_END markers not found") {
				t.Errorf("updateReadme() error message = %q, want error message containing \"markers not found\"", err.Error())
			}
		})
	}
}

// TestRunEndToEnd tests the main function
func TestRunEndToEnd(t *testing.T) {
	tmpDir := t.TempDir()
	dictPath := filepath.Join(tmpDir, "dict.yaml")
	readmePath := filepath.Join(tmpDir, "README.md")

	dict := "terms:\n  - term: Machine Learning\n    title: ML Basics\n    aliases: [ml]\n"
	if err := os.WriteFile(dictPath, []byte(dict), 0644); err != nil {
		t.Fatal(err)
	}
	initialReadme := "# Project\n<!-- GLOSSARY_START -->\n<!-- GLOSSARY_END -->\n"
	if err := os.WriteFile(readmePath, []byte(initialReadme), 0644); err != nil {
		t.Fatal(err)
	}

	// Temporarily replace os.Args to simulate command line arguments
	oldArgs := os.Args
	os.Args = []string{"generate-glossary", dictPath, readmePath}
	defer func() { os.Args = oldArgs }()

	if err := run(); err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	updatedContent, err := os.ReadFile(readmePath)
	if err != nil {
		t.Fatalf("Failed to read updated README.md: %v", err)
	}
	want := "# Project\n<!-- GLOSSARY_START -->\n- [Machine Learning](/standalone-title?t=ML%20Basics)\n<!-- GLOSSARY_END -->\n"
	if string(updatedContent) != want {
		t.Errorf("run() updated README.md got = %q, want %q", string(updatedContent), want)
	}
}
