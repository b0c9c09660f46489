package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func parseNDJSON(t *testing.T, s string) []map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(s), "\n")
	out := make([]map[string]any, 0, len(lines))
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		m := map[string]any{}
		if err := json.Unmarshal([]byte(ln), &m); err != nil {
			t.Fatalf("invalid json line %q: %v", ln, err)
		}
		out = append(out, m)
	}
	return out
}

func fileAudits(events []map[string]any) []map[string]any {
	var out []map[string]any
	for _, e := range events {
		if e["type"] == "file_audit" {
			out = append(out, e)
		}
	}
	return out
}

func writeFixtures(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	files := map[string]string{
		"crlf.txt":  "a\r\nb\r\n",
		"lf.txt":    "a\nb\n",
		"mixed.txt": "a\r\nb\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(tmp, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return tmp
}

func TestVersion(t *testing.T) {
	for _, args := range [][]string{{"-v"}, {"--version"}} {
		stdout := &bytes.Buffer{}
		root := NewRootCmd(stdout, &bytes.Buffer{})
		root.SetArgs(args)
		if err := root.Execute(); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if !strings.Contains(stdout.String(), "eol-audit 版本：") {
			t.Fatalf("unexpected output for %v: %q", args, stdout.String())
		}
	}
}

func TestPathNamedVersionIsAudited(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "version")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a\r\nb\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(tmp)
	stdout := &bytes.Buffer{}
	code := execute(context.Background(), []string{"version", "--format", "ndjson"}, stdout, &bytes.Buffer{})
	if code != ExitOK {
		t.Fatalf("unexpected code %d", code)
	}
	audits := fileAudits(parseNDJSON(t, stdout.String()))
	if len(audits) != 1 || filepath.Base(audits[0]["path"].(string)) != "a.txt" {
		t.Fatalf("directory named version should be audited: %#v", audits)
	}
}

func TestRequiresExactlyOnePath(t *testing.T) {
	for _, args := range [][]string{{}, {"a", "b"}} {
		stderr := &bytes.Buffer{}
		root := NewRootCmd(&bytes.Buffer{}, stderr)
		root.SetArgs(args)
		err := root.Execute()
		ee, ok := err.(*ExitError)
		if !ok {
			t.Fatalf("expected ExitError got %T", err)
		}
		if ee.Code != ExitUsage {
			t.Fatalf("unexpected code: %d", ee.Code)
		}
		if !strings.Contains(stderr.String(), "Usage:") {
			t.Fatalf("usage should go to stderr: %q", stderr.String())
		}
	}
}

func TestDefaultReportsOnlyInconsistent(t *testing.T) {
	tmp := writeFixtures(t)
	stdout := &bytes.Buffer{}
	root := NewRootCmd(stdout, &bytes.Buffer{})
	root.SetArgs([]string{tmp, "--format", "ndjson"})
	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	events := parseNDJSON(t, stdout.String())
	if events[0]["type"] != "meta" || events[len(events)-1]["type"] != "summary" {
		t.Fatalf("meta/summary order broken: %#v", events)
	}
	audits := fileAudits(events)
	if len(audits) != 1 || filepath.Base(audits[0]["path"].(string)) != "mixed.txt" {
		t.Fatalf("only the mixed file should be reported: %#v", audits)
	}
	sm := events[len(events)-1]
	if sm["audited_files"].(float64) != 3 || sm["inconsistent_count"].(float64) != 1 {
		t.Fatalf("summary should still count every file: %#v", sm)
	}
}

func TestShowAllText(t *testing.T) {
	tmp := writeFixtures(t)
	stdout := &bytes.Buffer{}
	root := NewRootCmd(stdout, &bytes.Buffer{})
	root.SetArgs([]string{tmp, "--all"})
	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	out := stdout.String()
	if strings.Count(out, "File: ") != 3 {
		t.Fatalf("expected three report blocks: %q", out)
	}
	if !strings.Contains(out, "Lines: 2\tCRLF: 2\tLF: 0\tCR: 0\nResult: PERFECT") {
		t.Fatalf("crlf block missing: %q", out)
	}
	if !strings.Contains(out, "Result: INCONSISTENCE") {
		t.Fatalf("inconsistent block missing: %q", out)
	}
	if !strings.Contains(out, "Audited 3 files, 1 inconsistent") {
		t.Fatalf("summary line missing: %q", out)
	}
}

func TestInvalidFormat(t *testing.T) {
	tmp := t.TempDir()
	root := NewRootCmd(&bytes.Buffer{}, &bytes.Buffer{})
	root.SetArgs([]string{tmp, "--format", "xml"})
	err := root.Execute()
	ee, ok := err.(*ExitError)
	if !ok || ee.Code != ExitUsage || ee.ErrCode != "invalid_output_format" {
		t.Fatalf("unexpected err: %#v", err)
	}
}

func TestInvalidCodePageIsConfigError(t *testing.T) {
	tmp := t.TempDir()
	root := NewRootCmd(&bytes.Buffer{}, &bytes.Buffer{})
	root.SetArgs([]string{tmp, "--code-page", "no-such-page"})
	err := root.Execute()
	ee, ok := err.(*ExitError)
	if !ok || ee.Code != ExitUsage || ee.ErrCode != "config_invalid" {
		t.Fatalf("unexpected err: %#v", err)
	}
}

func TestExecuteCancelled(t *testing.T) {
	tmp := writeFixtures(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stdout := &bytes.Buffer{}
	code := execute(ctx, []string{tmp, "--format", "ndjson"}, stdout, &bytes.Buffer{})
	if code != ExitInterrupted {
		t.Fatalf("expected %d, got %d", ExitInterrupted, code)
	}
	events := parseNDJSON(t, stdout.String())
	if events[len(events)-1]["cancelled"] != true {
		t.Fatalf("summary should be marked cancelled: %#v", events[len(events)-1])
	}
}
