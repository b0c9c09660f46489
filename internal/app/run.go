package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"eol-audit/internal/audit"
	"eol-audit/internal/config"
	"eol-audit/internal/scan"
	"eol-audit/internal/textenc"
)

const DefaultMaxFileSize = "100MB"

type fileResult struct {
	Path           string
	Events         []map[string]any
	Audited        bool
	Binary         bool
	Inconsistent   bool
	Skipped        bool
	HasInputErr    bool
	HasInternalErr bool
}

func DefaultJobs() int {
	n := runtime.NumCPU()
	if n > 8 {
		return 8
	}
	if n < 1 {
		return 1
	}
	return n
}

// ResolveSettings 按 默认值 -> 配置文件 -> 环境变量 -> 命令行 的顺序合并设置。
func ResolveSettings(configPath string, overrides config.Config) (Settings, error) {
	layered, source, err := config.LoadLayered(configPath)
	if err != nil {
		return Settings{}, &ConfigErr{Msg: err.Error()}
	}
	cfg := layered.Merge(overrides)
	if err := cfg.Validate(); err != nil {
		return Settings{}, &ConfigErr{Msg: err.Error()}
	}

	s := Settings{
		ShowAll:        deref(cfg.Audit.ShowAll, false),
		Strict:         deref(cfg.Audit.Strict, false),
		IncludeHidden:  deref(cfg.Audit.IncludeHidden, false),
		UseGitignore:   deref(cfg.Audit.UseGitignore, false),
		FollowSymlinks: deref(cfg.Audit.FollowSymlinks, false),
		IgnorePatterns: cfg.Audit.IgnorePatterns,
		Jobs:           deref(cfg.Audit.Jobs, 0),
		ConfigSource:   source,
	}
	if s.Jobs <= 0 {
		s.Jobs = DefaultJobs()
	}

	cp, err := textenc.LookupCodePage(cfg.Audit.CodePage)
	if err != nil {
		return Settings{}, &ConfigErr{Msg: err.Error()}
	}
	s.CodePage = cp

	size := cfg.Audit.MaxFileSize
	if strings.TrimSpace(size) == "" {
		size = DefaultMaxFileSize
	}
	if s.MaxFileSizeBytes, err = config.ParseSizeToBytes(size); err != nil {
		return Settings{}, &ConfigErr{Msg: err.Error()}
	}

	if err := scan.ValidatePatterns(s.IgnorePatterns); err != nil {
		return Settings{}, &ConfigErr{Msg: err.Error()}
	}

	d := textenc.NewDetector()
	d.NullSuggestsBinary = deref(cfg.Sniffer.NullSuggestsBinary, d.NullSuggestsBinary)
	d.ExpectedNullPercent = deref(cfg.Sniffer.ExpectedNullPercent, d.ExpectedNullPercent)
	d.UnexpectedNullPercent = deref(cfg.Sniffer.UnexpectedNullPercent, d.UnexpectedNullPercent)
	s.Detector = d
	return s, nil
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// Run 审计 opts.Paths 下的全部文件。ctx 取消后不再派发新文件，已在处理的文件照常完成。
func Run(ctx context.Context, opts Options) (Result, error) {
	res := Result{Events: make([]map[string]any, 0)}
	if len(opts.Paths) == 0 {
		return res, &ArgErr{Msg: "还没传输入路径"}
	}
	settings, err := ResolveSettings(opts.ConfigPath, opts.Overrides)
	if err != nil {
		return res, err
	}
	res.Settings = settings

	var sniffer audit.Sniffer = settings.Detector
	if opts.Sniffer != nil {
		sniffer = opts.Sniffer
	}
	auditor := audit.New(
		audit.WithSniffer(sniffer),
		audit.WithCodePage(settings.CodePage),
		audit.WithStrict(settings.Strict),
	)

	res.Events = append(res.Events, buildMeta(opts, settings))

	scanRes := scan.Collect(scan.Options{
		Paths:          opts.Paths,
		CWD:            opts.CWD,
		FollowSymlinks: settings.FollowSymlinks,
		IncludeHidden:  settings.IncludeHidden,
		UseGitignore:   settings.UseGitignore,
		IgnorePatterns: settings.IgnorePatterns,
	})
	for _, se := range scanRes.Errors {
		res.Events = append(res.Events, buildErrorEvent("input", se.Code, se.Path, se.Detail))
		res.HasInputErr = true
	}

	paths := scanRes.Files
	res.Summary.TotalFiles = len(paths)

	byPath, cancelled := auditAll(ctx, paths, settings, auditor)
	res.Cancelled = cancelled
	res.Summary.Cancelled = cancelled

	sort.Strings(paths)
	for _, p := range paths {
		fr, ok := byPath[p]
		if !ok {
			continue
		}
		res.Events = append(res.Events, fr.Events...)
		if fr.Audited {
			res.Summary.Audited++
			switch {
			case fr.Binary:
				res.Summary.Binary++
			case fr.Inconsistent:
				res.Summary.Inconsistent++
			default:
				res.Summary.Consistent++
			}
		}
		if fr.Skipped {
			res.Summary.Skipped++
		}
		if fr.HasInputErr {
			res.HasInputErr = true
		}
		if fr.HasInternalErr {
			res.HasInternalErr = true
		}
	}
	for _, e := range res.Events {
		if t, _ := e["type"].(string); t == "error" {
			res.Summary.Errors++
		}
	}

	res.Events = append(res.Events, buildSummary(res.Summary, decideExitCode(res)))
	return res, nil
}

func auditAll(ctx context.Context, paths []string, settings Settings, auditor *audit.Auditor) (map[string]fileResult, bool) {
	byPath := make(map[string]fileResult, len(paths))
	if len(paths) == 0 {
		return byPath, ctx.Err() != nil
	}
	jobs := settings.Jobs
	if jobs > len(paths) {
		jobs = len(paths)
	}
	in := make(chan string)
	out := make(chan fileResult, len(paths))
	wg := sync.WaitGroup{}

	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range in {
				out <- processFile(p, settings, auditor)
			}
		}()
	}

	cancelled := false
dispatch:
	for _, p := range paths {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		select {
		case in <- p:
		case <-ctx.Done():
			cancelled = true
			break dispatch
		}
	}
	close(in)
	wg.Wait()
	close(out)

	for fr := range out {
		byPath[fr.Path] = fr
	}
	return byPath, cancelled
}

func processFile(path string, settings Settings, auditor *audit.Auditor) fileResult {
	fr := fileResult{Path: path, Events: make([]map[string]any, 0, 1)}
	info, err := os.Stat(path)
	if err != nil {
		fr.HasInputErr = true
		fr.Events = append(fr.Events, buildErrorEvent("input", "file_stat_failed", path, err.Error()))
		return fr
	}
	if info.IsDir() {
		return fr
	}
	if settings.MaxFileSizeBytes > 0 && info.Size() > settings.MaxFileSizeBytes {
		fr.Skipped = true
		fr.Events = append(fr.Events, buildErrorEvent("input", "skipped_large_file", path, fmt.Sprintf("文件大小 %d 超过上限 %d", info.Size(), settings.MaxFileSizeBytes)))
		return fr
	}

	r, err := auditor.Audit(path)
	if err != nil {
		// 读失败只影响该文件；其余错误（如嗅探器返回非法编码）属于内部错误
		var re *audit.ReadError
		if errors.As(err, &re) {
			fr.HasInputErr = true
			fr.Events = append(fr.Events, buildErrorEvent("input", "file_read_failed", path, re.Cause.Error()))
			return fr
		}
		fr.HasInternalErr = true
		fr.Events = append(fr.Events, buildErrorEvent("internal", "internal_error", path, err.Error()))
		return fr
	}
	fr.Audited = true
	fr.Binary = r.Binary
	fr.Inconsistent = !r.Binary && !r.Consistent
	fr.Events = append(fr.Events, auditEvent(r))
	return fr
}

func auditEvent(r audit.Result) map[string]any {
	return map[string]any{
		"type":       "file_audit",
		"path":       r.Path,
		"encoding":   r.Encoding.String(),
		"binary":     r.Binary,
		"lines":      r.Tally.Total,
		"crlf":       r.Tally.CRLF,
		"lf":         r.Tally.LF,
		"cr":         r.Tally.CR,
		"style":      string(r.Tally.Style()),
		"consistent": r.Consistent,
		"verdict":    r.Verdict(),
		"file_size":  r.Size,
		"hash":       r.Hash,
	}
}

func buildMeta(opts Options, s Settings) map[string]any {
	return map[string]any{
		"type":             "meta",
		"tool":             "eol-audit",
		"version":          opts.Version,
		"cwd":              opts.CWD,
		"args":             opts.Args,
		"config_path":      s.ConfigSource,
		"output_format":    opts.Format,
		"code_page":        s.CodePage.Name,
		"strict":           s.Strict,
		"show_all":         s.ShowAll,
		"include_hidden":   s.IncludeHidden,
		"use_gitignore":    s.UseGitignore,
		"follow_symlinks":  s.FollowSymlinks,
		"max_file_size":    s.MaxFileSizeBytes,
		"jobs":             s.Jobs,
		"exit_code_policy": map[string]int{"ok": 0, "usage_error": 1, "internal_error": 2, "interrupted": 130},
	}
}

func buildSummary(s Summary, exitCode int) map[string]any {
	return map[string]any{
		"type":               "summary",
		"total_files":        s.TotalFiles,
		"audited_files":      s.Audited,
		"binary_files":       s.Binary,
		"consistent_count":   s.Consistent,
		"inconsistent_count": s.Inconsistent,
		"skipped_files":      s.Skipped,
		"error_count":        s.Errors,
		"cancelled":          s.Cancelled,
		"exit_code":          exitCode,
	}
}

type ConfigErr struct{ Msg string }

func (e *ConfigErr) Error() string { return e.Msg }

type ArgErr struct{ Msg string }

func (e *ArgErr) Error() string { return e.Msg }

// decideExitCode 中，不一致的文件和单文件读取失败都不影响退出码。
func decideExitCode(res Result) int {
	if res.HasInternalErr {
		return 2
	}
	if res.Cancelled {
		return 130
	}
	return 0
}

func NormalizePaths(paths []string, cwd string) []string {
	out := make([]string, 0, len(paths))
	seen := map[string]struct{}{}
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(cwd, p)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	sort.Strings(out)
	return out
}
