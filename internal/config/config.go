package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Audit struct {
	ShowAll        *bool    `yaml:"show_all"`
	Strict         *bool    `yaml:"strict"`
	CodePage       string   `yaml:"code_page"`
	MaxFileSize    string   `yaml:"max_file_size"`
	IncludeHidden  *bool    `yaml:"include_hidden"`
	UseGitignore   *bool    `yaml:"use_gitignore"`
	FollowSymlinks *bool    `yaml:"follow_symlinks"`
	IgnorePatterns []string `yaml:"ignore_patterns"`
	Jobs           *int     `yaml:"jobs"`
}

type Sniffer struct {
	NullSuggestsBinary    *bool `yaml:"null_suggests_binary"`
	ExpectedNullPercent   *int  `yaml:"expected_null_percent"`
	UnexpectedNullPercent *int  `yaml:"unexpected_null_percent"`
}

type Config struct {
	Audit   Audit   `yaml:"audit"`
	Sniffer Sniffer `yaml:"sniffer"`
}

func Load(path string) (Config, error) {
	var cfg Config
	if strings.TrimSpace(path) == "" {
		return cfg, fmt.Errorf("配置文件路径为空")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件失败：%w", err)
	}
	expanded, err := expandEnv(string(b))
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("解析配置文件失败：%w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate 只检查取值范围，代码页名称由 textenc 解析。
func (c Config) Validate() error {
	if c.Audit.Jobs != nil && *c.Audit.Jobs < 0 {
		return fmt.Errorf("audit.jobs 不能为负数：%d", *c.Audit.Jobs)
	}
	if s := strings.TrimSpace(c.Audit.MaxFileSize); s != "" {
		if _, err := ParseSizeToBytes(s); err != nil {
			return fmt.Errorf("audit.max_file_size 配置错误：%w", err)
		}
	}
	for name, p := range map[string]*int{
		"sniffer.expected_null_percent":   c.Sniffer.ExpectedNullPercent,
		"sniffer.unexpected_null_percent": c.Sniffer.UnexpectedNullPercent,
	} {
		if p != nil && (*p < 0 || *p > 100) {
			return fmt.Errorf("%s 必须在 0-100 之间：%d", name, *p)
		}
	}
	return nil
}

// Merge 用 o 中已设置的字段覆盖 c。
func (c Config) Merge(o Config) Config {
	out := c
	if o.Audit.ShowAll != nil {
		out.Audit.ShowAll = o.Audit.ShowAll
	}
	if o.Audit.Strict != nil {
		out.Audit.Strict = o.Audit.Strict
	}
	if o.Audit.CodePage != "" {
		out.Audit.CodePage = o.Audit.CodePage
	}
	if o.Audit.MaxFileSize != "" {
		out.Audit.MaxFileSize = o.Audit.MaxFileSize
	}
	if o.Audit.IncludeHidden != nil {
		out.Audit.IncludeHidden = o.Audit.IncludeHidden
	}
	if o.Audit.UseGitignore != nil {
		out.Audit.UseGitignore = o.Audit.UseGitignore
	}
	if o.Audit.FollowSymlinks != nil {
		out.Audit.FollowSymlinks = o.Audit.FollowSymlinks
	}
	if o.Audit.IgnorePatterns != nil {
		out.Audit.IgnorePatterns = o.Audit.IgnorePatterns
	}
	if o.Audit.Jobs != nil {
		out.Audit.Jobs = o.Audit.Jobs
	}
	if o.Sniffer.NullSuggestsBinary != nil {
		out.Sniffer.NullSuggestsBinary = o.Sniffer.NullSuggestsBinary
	}
	if o.Sniffer.ExpectedNullPercent != nil {
		out.Sniffer.ExpectedNullPercent = o.Sniffer.ExpectedNullPercent
	}
	if o.Sniffer.UnexpectedNullPercent != nil {
		out.Sniffer.UnexpectedNullPercent = o.Sniffer.UnexpectedNullPercent
	}
	return out
}

var envExpr = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

func expandEnv(src string) (string, error) {
	var out strings.Builder
	last := 0
	for _, idx := range envExpr.FindAllStringSubmatchIndex(src, -1) {
		out.WriteString(src[last:idx[0]])
		name := src[idx[2]:idx[3]]
		hasDefault := idx[4] >= 0 && idx[5] >= 0
		defVal := ""
		if hasDefault && idx[6] >= 0 && idx[7] >= 0 {
			defVal = src[idx[6]:idx[7]]
		}
		if v, ok := os.LookupEnv(name); ok {
			out.WriteString(v)
		} else if hasDefault {
			out.WriteString(defVal)
		} else {
			return "", fmt.Errorf("配置中引用了未设置的环境变量：%s", name)
		}
		last = idx[1]
	}
	out.WriteString(src[last:])
	return out.String(), nil
}

// ParseSizeToBytes 解析 10MB / 512KB / 1024 这类大小，空串返回 0。
func ParseSizeToBytes(s string) (int64, error) {
	v := strings.TrimSpace(strings.ToUpper(s))
	if v == "" {
		return 0, nil
	}
	units := []struct {
		U string
		M int64
	}{
		{"GB", 1024 * 1024 * 1024},
		{"MB", 1024 * 1024},
		{"KB", 1024},
		{"B", 1},
	}
	for _, unit := range units {
		if strings.HasSuffix(v, unit.U) {
			n := strings.TrimSpace(strings.TrimSuffix(v, unit.U))
			f, err := strconv.ParseFloat(n, 64)
			if err != nil || f < 0 {
				return 0, fmt.Errorf("无效大小值：%s", s)
			}
			return int64(f * float64(unit.M)), nil
		}
	}
	// 纯数字按字节
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("无效大小值：%s", s)
	}
	return n, nil
}
