package batchlist

import (
	"os"
	"path/filepath"
	"testing"
)

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batches.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadKeepsTokensVerbatim(t *testing.T) {
	path := writeList(t, "2016,2016-01-01,2016-12-31,0556\n\n# a comment\n2022,2022-01-01,2022-12-31\n")
	items, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Token != "2016,2016-01-01,2016-12-31,0556" {
		t.Fatalf("token not verbatim: %q", items[0].Token)
	}
	if items[0].Line != 1 || items[1].Line != 4 {
		t.Fatalf("line numbers wrong: %d, %d", items[0].Line, items[1].Line)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadEmptyList(t *testing.T) {
	path := writeList(t, "\n# only comments\n\n")
	items, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestParseSpec(t *testing.T) {
	s, err := ParseSpec("2016,2016-01-01,2016-12-31,0556")
	if err != nil {
		t.Fatalf("ParseSpec returned error: %v", err)
	}
	if s.Name != "2016" || s.Collection != "0556" {
		t.Fatalf("unexpected spec: %+v", s)
	}
	if s.CollectionID() != "EO:EUM:DAT:0556" {
		t.Fatalf("unexpected collection ID: %s", s.CollectionID())
	}
}

func TestParseSpecDefaultCollection(t *testing.T) {
	s, err := ParseSpec("2022, 2022-01-01, 2022-12-31")
	if err != nil {
		t.Fatalf("ParseSpec returned error: %v", err)
	}
	if s.Collection != DefaultCollection {
		t.Fatalf("expected default collection, got %s", s.Collection)
	}
}

func TestParseSpecErrors(t *testing.T) {
	cases := []string{
		"2016",
		"2016,2016-01-01",
		",2016-01-01,2016-12-31",
		"2016,01/01/2016,2016-12-31",
		"2016,2016-12-31,2016-01-01",      // reversed range
		"2016,2016-01-01,2016-12-31,9999", // unknown collection
		"a,b,c,d,e",
	}
	for _, c := range cases {
		if _, err := ParseSpec(c); err == nil {
			t.Errorf("ParseSpec(%q) expected error, got nil", c)
		}
	}
}
