package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

type Options struct {
	Paths          []string
	CWD            string
	FollowSymlinks bool
	IncludeHidden  bool
	UseGitignore   bool
	IgnorePatterns []string
}

type ScanResult struct {
	Files  []string
	Errors []ScanError
}

type ScanError struct {
	Code   string
	Path   string
	Detail string
}

// Collect 展开输入路径，返回去重、排序后的绝对路径。
// 目录递归遍历时跳过隐藏项（根目录以下任一段以 . 开头）；直接传入的文件不受此限制。
func Collect(opts Options) ScanResult {
	m := make(map[string]struct{})
	var errs []ScanError

	for _, in := range opts.Paths {
		abs, err := filepath.Abs(in)
		if err != nil {
			errs = append(errs, ScanError{Code: "input_abs_failed", Path: in, Detail: err.Error()})
			continue
		}
		info, err := os.Lstat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				errs = append(errs, ScanError{Code: "input_path_not_found", Path: abs, Detail: "路径不存在"})
				continue
			}
			errs = append(errs, ScanError{Code: "input_stat_failed", Path: abs, Detail: err.Error()})
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			if !opts.FollowSymlinks {
				errs = append(errs, ScanError{Code: "symlink_skipped", Path: abs, Detail: "默认不跟随软链接"})
				continue
			}
			info, err = os.Stat(abs)
			if err != nil {
				errs = append(errs, ScanError{Code: "input_stat_failed", Path: abs, Detail: err.Error()})
				continue
			}
		}
		if info.IsDir() {
			var gi gitignore.Matcher
			if opts.UseGitignore {
				gi, err = loadGitignore(abs)
				if err != nil {
					errs = append(errs, ScanError{Code: "gitignore_read_failed", Path: abs, Detail: err.Error()})
				}
			}
			walkDir(abs, opts, gi, m, &errs)
			continue
		}
		if isIgnored(abs, opts) {
			continue
		}
		m[abs] = struct{}{}
	}

	files := make([]string, 0, len(m))
	for p := range m {
		files = append(files, p)
	}
	sort.Strings(files)
	return ScanResult{Files: files, Errors: errs}
}

func walkDir(root string, opts Options, gi gitignore.Matcher, out map[string]struct{}, errs *[]ScanError) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			*errs = append(*errs, ScanError{Code: "walk_error", Path: path, Detail: err.Error()})
			return nil
		}
		if path == root {
			return nil
		}
		isDir := d.IsDir()
		if !opts.IncludeHidden && IsHiddenName(d.Name()) {
			if isDir {
				return fs.SkipDir
			}
			return nil
		}
		if gi != nil && gi.Match(segments(root, path), isDir) {
			if isDir {
				return fs.SkipDir
			}
			return nil
		}
		if isDir {
			if isIgnored(path, opts) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			if !opts.FollowSymlinks {
				return nil
			}
			// 只接受指向普通文件的软链接，避免目录环
			st, serr := os.Stat(path)
			if serr != nil || !st.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}
		if isIgnored(path, opts) {
			return nil
		}
		out[path] = struct{}{}
		return nil
	})
}

// IsHiddenName 判断单个路径段是否为隐藏项。
func IsHiddenName(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func loadGitignore(root string) (gitignore.Matcher, error) {
	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		return nil, fmt.Errorf("读取 .gitignore 失败：%w", err)
	}
	if len(patterns) == 0 {
		return nil, nil
	}
	return gitignore.NewMatcher(patterns), nil
}

func segments(root, path string) []string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" && p != "." {
			out = append(out, p)
		}
	}
	return out
}

func isIgnored(absPath string, opts Options) bool {
	for _, p := range opts.IgnorePatterns {
		ok, err := doublestar.Match(p, filepath.ToSlash(absPath))
		if err == nil && ok {
			return true
		}
		if opts.CWD != "" {
			rel, rerr := filepath.Rel(opts.CWD, absPath)
			if rerr == nil && !strings.HasPrefix(rel, "..") {
				ok, err := doublestar.Match(p, filepath.ToSlash(rel))
				if err == nil && ok {
					return true
				}
			}
		}
	}
	return false
}

func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("无效的忽略模式：%s", p)
		}
	}
	return nil
}

func ValidateFormat(v string) error {
	switch v {
	case "text", "table", "ndjson", "json":
		return nil
	}
	return fmt.Errorf("不支持的输出格式：%s（仅支持 text/table/ndjson/json）", v)
}
