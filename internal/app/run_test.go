package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"eol-audit/internal/audit"
	"eol-audit/internal/config"
	"eol-audit/internal/textenc"
)

func findEvent(events []map[string]any, typ string) map[string]any {
	for _, e := range events {
		if e["type"] == typ {
			return e
		}
	}
	return nil
}

func countEvent(events []map[string]any, typ string) int {
	n := 0
	for _, e := range events {
		if e["type"] == typ {
			n++
		}
	}
	return n
}

func auditByPath(events []map[string]any) map[string]map[string]any {
	out := map[string]map[string]any{}
	for _, e := range events {
		if e["type"] == "file_audit" {
			out[filepath.Base(e["path"].(string))] = e
		}
	}
	return out
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultJobs(t *testing.T) {
	n := DefaultJobs()
	if n < 1 || n > 8 {
		t.Fatalf("unexpected jobs: %d", n)
	}
}

func TestRunAuditsDirectory(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "crlf.txt"), []byte("a\r\nb\r\n"))
	writeFile(t, filepath.Join(tmp, "lf.txt"), []byte("a\nb\n"))
	writeFile(t, filepath.Join(tmp, "mixed.txt"), []byte("a\r\nb\nc\rd"))
	writeFile(t, filepath.Join(tmp, "empty.txt"), nil)
	writeFile(t, filepath.Join(tmp, "bin.dat"), []byte{0x89, 'P', 'N', 'G', 0, 0, 0, 1, 2})
	writeFile(t, filepath.Join(tmp, ".hidden", "x.txt"), []byte("a\r\nb\n"))

	res, err := Run(context.Background(), Options{Paths: []string{tmp}, CWD: tmp, Format: "ndjson", Version: "test"})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if findEvent(res.Events, "meta") == nil {
		t.Fatalf("missing meta event")
	}
	byName := auditByPath(res.Events)
	if len(byName) != 5 {
		t.Fatalf("expected 5 audited files, got %#v", byName)
	}
	if _, ok := byName["x.txt"]; ok {
		t.Fatalf("hidden directory should be skipped")
	}

	crlf := byName["crlf.txt"]
	if crlf["verdict"] != "PERFECT" || crlf["crlf"].(int) != 2 || crlf["style"] != "crlf" || crlf["encoding"] != "Ascii" {
		t.Fatalf("crlf mismatch: %#v", crlf)
	}
	mixed := byName["mixed.txt"]
	if mixed["verdict"] != "INCONSISTENCE" || mixed["lines"].(int) != 3 || mixed["consistent"].(bool) {
		t.Fatalf("mixed mismatch: %#v", mixed)
	}
	if byName["empty.txt"]["verdict"] != "PERFECT" || byName["empty.txt"]["encoding"] != "Ascii" {
		t.Fatalf("empty mismatch: %#v", byName["empty.txt"])
	}
	bin := byName["bin.dat"]
	if bin["verdict"] != "BINARY" || !bin["binary"].(bool) || bin["lines"].(int) != 0 {
		t.Fatalf("binary mismatch: %#v", bin)
	}
	if h, _ := crlf["hash"].(string); len(h) != 64 {
		t.Fatalf("expected blake3 hex hash, got %q", h)
	}

	sm := findEvent(res.Events, "summary")
	if sm == nil {
		t.Fatalf("missing summary")
	}
	if sm["total_files"].(int) != 5 || sm["audited_files"].(int) != 5 {
		t.Fatalf("count mismatch: %#v", sm)
	}
	if sm["inconsistent_count"].(int) != 1 || sm["binary_files"].(int) != 1 || sm["consistent_count"].(int) != 3 {
		t.Fatalf("verdict counts mismatch: %#v", sm)
	}
	if sm["exit_code"].(int) != 0 || sm["cancelled"].(bool) {
		t.Fatalf("unexpected summary: %#v", sm)
	}
}

func TestRunEventsSortedByPath(t *testing.T) {
	tmp := t.TempDir()
	for _, n := range []string{"c.txt", "a.txt", "b.txt", "d/e.txt"} {
		writeFile(t, filepath.Join(tmp, n), []byte("x\n"))
	}
	one := 1
	res, err := Run(context.Background(), Options{
		Paths:     []string{tmp},
		CWD:       tmp,
		Overrides: config.Config{Audit: config.Audit{Jobs: &one}},
	})
	if err != nil {
		t.Fatal(err)
	}
	var paths []string
	for _, e := range res.Events {
		if e["type"] == "file_audit" {
			paths = append(paths, e["path"].(string))
		}
	}
	for i := 1; i < len(paths); i++ {
		if paths[i-1] > paths[i] {
			t.Fatalf("events not sorted: %#v", paths)
		}
	}
	if res.Settings.Jobs != 1 {
		t.Fatalf("jobs override ignored: %d", res.Settings.Jobs)
	}
}

func TestRunStrictFlagsZeroBreaks(t *testing.T) {
	tmp := t.TempDir()
	f := filepath.Join(tmp, "one-line.txt")
	writeFile(t, f, []byte("no newline"))
	strict := true
	res, err := Run(context.Background(), Options{
		Paths:     []string{f},
		CWD:       tmp,
		Overrides: config.Config{Audit: config.Audit{Strict: &strict}},
	})
	if err != nil {
		t.Fatal(err)
	}
	ev := auditByPath(res.Events)["one-line.txt"]
	if ev["verdict"] != "INCONSISTENCE" {
		t.Fatalf("strict mode should flag files without breaks: %#v", ev)
	}
}

func TestRunInputErrorsAndSkips(t *testing.T) {
	tmp := t.TempDir()
	missing := filepath.Join(tmp, "missing.txt")
	big := filepath.Join(tmp, "big.txt")
	writeFile(t, big, []byte(strings.Repeat("a\n", 100)))
	ok := filepath.Join(tmp, "ok.txt")
	writeFile(t, ok, []byte("a\n"))

	res, err := Run(context.Background(), Options{
		Paths:     []string{missing, big, ok},
		CWD:       tmp,
		Overrides: config.Config{Audit: config.Audit{MaxFileSize: "10"}},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !res.HasInputErr {
		t.Fatalf("expected input error flag")
	}
	if countEvent(res.Events, "error") != 2 {
		t.Fatalf("expected missing + large file errors: %#v", res.Events)
	}
	if res.Summary.Skipped != 1 || res.Summary.Audited != 1 || res.Summary.Errors != 2 {
		t.Fatalf("summary mismatch: %#v", res.Summary)
	}
	sm := findEvent(res.Events, "summary")
	if sm["exit_code"].(int) != 0 {
		t.Fatalf("input errors must not change exit code: %#v", sm)
	}
}

func TestRunUnlimitedFileSize(t *testing.T) {
	tmp := t.TempDir()
	f := filepath.Join(tmp, "big.txt")
	writeFile(t, f, []byte(strings.Repeat("a\r\n", 100)))
	res, err := Run(context.Background(), Options{
		Paths:     []string{f},
		CWD:       tmp,
		Overrides: config.Config{Audit: config.Audit{MaxFileSize: "0"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Settings.MaxFileSizeBytes != 0 || res.Summary.Audited != 1 {
		t.Fatalf("0 should disable the size limit: %#v", res.Summary)
	}
}

func TestRunInvalidKindIsInternalError(t *testing.T) {
	tmp := t.TempDir()
	f := filepath.Join(tmp, "a.txt")
	writeFile(t, f, []byte("a\n"))
	res, err := Run(context.Background(), Options{
		Paths:   []string{f},
		CWD:     tmp,
		Sniffer: audit.SnifferFunc(func([]byte) textenc.Kind { return textenc.Kind(42) }),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.HasInternalErr {
		t.Fatalf("expected internal error")
	}
	e := findEvent(res.Events, "error")
	if e == nil || e["code"] != "internal_error" || e["recoverable"].(bool) {
		t.Fatalf("unexpected error event: %#v", e)
	}
	if findEvent(res.Events, "summary")["exit_code"].(int) != 2 {
		t.Fatalf("internal error should exit 2")
	}
}

func TestRunCancelled(t *testing.T) {
	tmp := t.TempDir()
	for _, n := range []string{"a.txt", "b.txt", "c.txt"} {
		writeFile(t, filepath.Join(tmp, n), []byte("x\n"))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, Options{Paths: []string{tmp}, CWD: tmp})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Cancelled || !res.Summary.Cancelled {
		t.Fatalf("expected cancelled result")
	}
	if res.Summary.Audited != 0 {
		t.Fatalf("no file should be dispatched after cancel: %#v", res.Summary)
	}
	sm := findEvent(res.Events, "summary")
	if !sm["cancelled"].(bool) || sm["exit_code"].(int) != 130 {
		t.Fatalf("summary mismatch: %#v", sm)
	}
}

func TestRunConfigErrors(t *testing.T) {
	tmp := t.TempDir()
	_, err := Run(context.Background(), Options{CWD: tmp})
	if _, ok := err.(*ArgErr); !ok {
		t.Fatalf("expected ArgErr, got %T", err)
	}

	cfg := filepath.Join(tmp, "bad.yaml")
	writeFile(t, cfg, []byte("audit:\n  unknown_field: 1\n"))
	_, err = Run(context.Background(), Options{Paths: []string{tmp}, CWD: tmp, ConfigPath: cfg})
	if _, ok := err.(*ConfigErr); !ok {
		t.Fatalf("expected ConfigErr for unknown field, got %T", err)
	}

	_, err = Run(context.Background(), Options{
		Paths:     []string{tmp},
		CWD:       tmp,
		Overrides: config.Config{Audit: config.Audit{CodePage: "no-such-page"}},
	})
	if _, ok := err.(*ConfigErr); !ok {
		t.Fatalf("expected ConfigErr for code page, got %T", err)
	}

	_, err = Run(context.Background(), Options{
		Paths:     []string{tmp},
		CWD:       tmp,
		Overrides: config.Config{Audit: config.Audit{CodePage: "utf-16"}},
	})
	if _, ok := err.(*ConfigErr); !ok {
		t.Fatalf("expected ConfigErr for a code page that is not ASCII compatible, got %T", err)
	}

	_, err = Run(context.Background(), Options{
		Paths:     []string{tmp},
		CWD:       tmp,
		Overrides: config.Config{Audit: config.Audit{IgnorePatterns: []string{"[abc"}}},
	})
	if _, ok := err.(*ConfigErr); !ok {
		t.Fatalf("expected ConfigErr for ignore pattern, got %T", err)
	}
}

func TestResolveSettingsFromFile(t *testing.T) {
	tmp := t.TempDir()
	cfg := filepath.Join(tmp, "eol.yaml")
	writeFile(t, cfg, []byte("audit:\n  show_all: true\n  code_page: gbk\n  max_file_size: 1MB\nsniffer:\n  null_suggests_binary: false\n"))
	s, err := ResolveSettings(cfg, config.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !s.ShowAll || s.CodePage.Name != "gbk" || s.MaxFileSizeBytes != 1024*1024 {
		t.Fatalf("settings mismatch: %#v", s)
	}
	if s.Detector.NullSuggestsBinary {
		t.Fatalf("sniffer override ignored")
	}
	if s.ConfigSource != cfg {
		t.Fatalf("config source mismatch: %q", s.ConfigSource)
	}

	off := false
	s, err = ResolveSettings(cfg, config.Config{Audit: config.Audit{ShowAll: &off}})
	if err != nil {
		t.Fatal(err)
	}
	if s.ShowAll {
		t.Fatalf("flag override should win over file")
	}
}

func TestHelpers(t *testing.T) {
	sm := buildSummary(Summary{Audited: 1}, 2)
	if sm["type"] != "summary" || sm["exit_code"].(int) != 2 || sm["audited_files"].(int) != 1 {
		t.Fatalf("bad summary: %#v", sm)
	}
	if (&ConfigErr{Msg: "a"}).Error() != "a" {
		t.Fatalf("config err string mismatch")
	}
	if (&ArgErr{Msg: "b"}).Error() != "b" {
		t.Fatalf("arg err string mismatch")
	}
	if decideExitCode(Result{HasInternalErr: true, Cancelled: true}) != 2 {
		t.Fatalf("internal code mismatch")
	}
	if decideExitCode(Result{Cancelled: true}) != 130 {
		t.Fatalf("cancel code mismatch")
	}
	if decideExitCode(Result{HasInputErr: true}) != 0 {
		t.Fatalf("input errors should not fail the run")
	}
}

func TestNormalizePaths(t *testing.T) {
	tmp := t.TempDir()
	a := filepath.Join(tmp, "a.txt")
	writeFile(t, a, []byte("x"))
	got := NormalizePaths([]string{"", "a.txt", a, "./a.txt"}, tmp)
	if len(got) != 1 || got[0] != a {
		t.Fatalf("normalize mismatch: %#v", got)
	}
}
