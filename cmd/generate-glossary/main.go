package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/takaryo1010/termlink/internal/render"
	"github.com/takaryo1010/termlink/internal/whitelist"
)

const (
	startMarker = "<!-- GLOSSARY_START -->"
	endMarker   = "<!-- GLOSSARY_END -->"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dictPath := "dict.yaml"
	if len(os.Args) >= 2 {
		dictPath = os.Args[1]
	}
	readmePath := "README.md"
	if len(os.Args) >= 3 {
		readmePath = os.Args[2]
	}

	dict, err := whitelist.LoadDictionary(dictPath)
	if err != nil {
		return err
	}

	markdownList := generateMarkdownList(dict.Terms)

	if err := updateReadme(readmePath, markdownList); err != nil {
		return err
	}

	fmt.Printf("Successfully updated %s with %d glossary terms.\n", readmePath, len(dict.Terms))
	return nil
}

// generateMarkdownList renders one link line per term, sorted the same way
// the sort command orders the dictionary.
func generateMarkdownList(terms []whitelist.Term) string {
	sorted := append([]whitelist.Term(nil), terms...)
	whitelist.SortTerms(sorted)

	var builder strings.Builder
	for _, t := range sorted {
		builder.WriteString(fmt.Sprintf("- [%s](%s)", t.Term, render.LinkURL(t.Title)))
		if t.Description != "" {
			builder.WriteString(": " + t.Description)
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

func updateReadme(readmePath, glossaryMarkdown string) error {
	content, err := os.ReadFile(readmePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", readmePath, err)
	}

	startIndex := bytes.Index(content, []byte(startMarker))
	endIndex := bytes.Index(content, []byte(endMarker))

	if startIndex == -1 || endIndex == -1 || startIndex >= endIndex {
		return fmt.Errorf("GLOSSARY_START or GLOSSARY_END markers not found or are in invalid order in %s", readmePath)
	}

	var buffer bytes.Buffer
	buffer.Write(content[:startIndex+len(startMarker)])
	buffer.WriteString("\n")
	buffer.WriteString(glossaryMarkdown)
	buffer.Write(content[endIndex:])

	if err := os.WriteFile(readmePath, buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write updated %s: %w", readmePath, err)
	}

	return nil
}
