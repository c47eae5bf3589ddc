package dispatch

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/ocean-color-lab/s3-dispatch/pkg/batchlist"
)

// TemplateContext holds the values an argv template can reference.
type TemplateContext struct {
	Token       string
	ROI         string
	DownloadDir string
	Seq         int
}

// RenderTemplateString renders s as a Go template against tctx. Strings
// without template markers pass through untouched.
func RenderTemplateString(s string, tctx TemplateContext) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}
	tmpl, err := template.New("arg").Option("missingkey=error").Parse(s)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, tctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderArgv expands one argv template for one token. Each argument is
// rendered as a Go template, then the bare "{}" placeholder is replaced by
// the token, mirroring the parallel-tool convention batch lists were
// written for. The result is passed to exec directly; nothing goes through
// a shell, so tokens stay verbatim.
func RenderArgv(command string, args []string, tctx TemplateContext) ([]string, error) {
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, command)
	for _, a := range args {
		rendered, err := RenderTemplateString(a, tctx)
		if err != nil {
			return nil, err
		}
		argv = append(argv, strings.ReplaceAll(rendered, "{}", tctx.Token))
	}
	return argv, nil
}

// BuildTasks expands the configured command template once per work item.
// A template error on any item is a setup failure: nothing gets dispatched.
func BuildTasks(items []batchlist.Item, cfg *Config) ([]Task, error) {
	tasks := make([]Task, 0, len(items))
	for i, it := range items {
		tctx := TemplateContext{
			Token:       it.Token,
			ROI:         cfg.ROI,
			DownloadDir: cfg.DownloadDir,
			Seq:         i + 1,
		}
		argv, err := RenderArgv(cfg.Command, cfg.Args, tctx)
		if err != nil {
			return nil, fmt.Errorf("line %d: failed to render command for token '%s': %w", it.Line, it.Token, err)
		}
		tasks = append(tasks, Task{Seq: i + 1, Token: it.Token, Argv: argv})
	}
	return tasks, nil
}
