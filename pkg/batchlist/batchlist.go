package batchlist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Item is one line of a batch list. Tokens are opaque: whatever the line
// contains is what the downloader receives, verbatim.
type Item struct {
	Line  int
	Token string
}

// Load reads a newline-delimited batch list. Blank lines and lines starting
// with '#' are skipped; everything else is kept untouched apart from
// trailing newline removal.
func Load(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch list: %w", err)
	}
	defer func() { _ = f.Close() }()

	var items []Item
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		items = append(items, Item{Line: lineNo, Token: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch list %s: %w", path, err)
	}
	return items, nil
}
