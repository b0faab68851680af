package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadPartNumbers reads the accepted part numbers from a work-order file.
// The part number is the first tab or space separated column; blank lines
// and lines starting with '#' are skipped. An empty list is an error, since
// it would accept every part.
func LoadPartNumbers(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open part numbers file: %w", err)
	}
	defer file.Close()

	parts, err := parsePartNumbers(file)
	if err != nil {
		return nil, fmt.Errorf("read part numbers file %s: %w", path, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("no part numbers in %s", path)
	}
	return parts, nil
}

func parsePartNumbers(r io.Reader) ([]string, error) {
	var parts []string
	seen := map[string]bool{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pn := strings.Fields(line)[0]
		if seen[pn] {
			continue
		}
		seen[pn] = true
		parts = append(parts, pn)
	}
	return parts, scanner.Err()
}
