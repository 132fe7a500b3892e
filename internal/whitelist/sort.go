package whitelist

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SortTerms orders terms case-insensitively. Terms starting with a special
// character such as ".NET" go last.
func SortTerms(terms []Term) {
	sort.SliceStable(terms, func(i, j int) bool {
		termI := terms[i].Term
		termJ := terms[j].Term

		if strings.HasPrefix(termI, ".") && !strings.HasPrefix(termJ, ".") {
			return false
		}
		if !strings.HasPrefix(termI, ".") && strings.HasPrefix(termJ, ".") {
			return true
		}

		return strings.ToLower(termI) < strings.ToLower(termJ)
	})
}

// Format marshals the dictionary with a blank line between entries.
func Format(dict *Dictionary) ([]byte, error) {
	output, err := yaml.Marshal(dict)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dictionary: %w", err)
	}

	lines := strings.Split(string(output), "\n")
	formatted := make([]string, 0, len(lines)+len(dict.Terms))
	first := true
	for _, line := range lines {
		if strings.HasPrefix(line, "    - term:") {
			if !first {
				formatted = append(formatted, "")
			}
			first = false
		}
		formatted = append(formatted, line)
	}
	return []byte(strings.Join(formatted, "\n")), nil
}

// SortFile sorts the dictionary at inputFile and writes it to outputFile.
// It returns the number of terms written.
func SortFile(inputFile, outputFile string) (int, error) {
	dict, err := LoadDictionary(inputFile)
	if err != nil {
		return 0, err
	}

	SortTerms(dict.Terms)

	out, err := Format(dict)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(outputFile, out, 0644); err != nil {
		return 0, fmt.Errorf("failed to write dictionary file: %w", err)
	}
	return len(dict.Terms), nil
}
