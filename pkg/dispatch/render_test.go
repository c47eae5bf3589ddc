package dispatch

import (
	"testing"
)

func TestRenderArgvSubstitutesTokenAndFields(t *testing.T) {
	tctx := TemplateContext{
		Token:       "2016,2016-01-01,2016-12-31,0556",
		ROI:         "POLYGON((0 0, 1 0, 1 1, 0 0))",
		DownloadDir: "/scratch/s3_products",
	}
	argv, err := RenderArgv(DefaultCommand, DefaultArgs, tctx)
	if err != nil {
		t.Fatalf("RenderArgv returned error: %v", err)
	}
	want := []string{
		"python3", "s3_download.py",
		"--roi_wkt", tctx.ROI,
		"--download_dir", "/scratch/s3_products",
		"--batch", tctx.Token,
	}
	if len(argv) != len(want) {
		t.Fatalf("argv length %d, want %d: %v", len(argv), len(want), argv)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Errorf("argv[%d] = %q, want %q", i, argv[i], want[i])
		}
	}
}

func TestRenderArgvTokenVerbatim(t *testing.T) {
	// Tokens may contain characters a shell would mangle; they must pass
	// through untouched.
	tctx := TemplateContext{Token: `a b;"$X"|&`}
	argv, err := RenderArgv("cmd", []string{"--batch", "{}"}, tctx)
	if err != nil {
		t.Fatalf("RenderArgv returned error: %v", err)
	}
	if argv[2] != tctx.Token {
		t.Fatalf("token altered: %q", argv[2])
	}
}

func TestRenderTemplateStringMissingField(t *testing.T) {
	if _, err := RenderTemplateString("{{.Nope}}", TemplateContext{}); err == nil {
		t.Fatal("expected error for unknown template field")
	}
}

func TestRenderTemplateStringPassthrough(t *testing.T) {
	s, err := RenderTemplateString("plain-string", TemplateContext{})
	if err != nil || s != "plain-string" {
		t.Fatalf("passthrough failed: %q, %v", s, err)
	}
}
