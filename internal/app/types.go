package app

import (
	"eol-audit/internal/audit"
	"eol-audit/internal/config"
	"eol-audit/internal/textenc"
)

type Options struct {
	Paths      []string
	CWD        string
	ConfigPath string
	// Overrides 来自命令行显式设置的参数，优先级最高。
	Overrides config.Config
	Format    string
	Version   string
	Args      []string
	// Sniffer 为空时使用按配置构造的 textenc.Detector。
	Sniffer audit.Sniffer
}

// Settings 是合并默认值、配置文件、环境变量和命令行之后的最终设置。
type Settings struct {
	ShowAll          bool
	Strict           bool
	IncludeHidden    bool
	UseGitignore     bool
	FollowSymlinks   bool
	CodePage         textenc.CodePage
	MaxFileSizeBytes int64
	IgnorePatterns   []string
	Jobs             int
	Detector         *textenc.Detector
	ConfigSource     string
}

type Summary struct {
	TotalFiles   int  `json:"total_files"`
	Audited      int  `json:"audited_files"`
	Binary       int  `json:"binary_files"`
	Consistent   int  `json:"consistent_count"`
	Inconsistent int  `json:"inconsistent_count"`
	Skipped      int  `json:"skipped_files"`
	Errors       int  `json:"error_count"`
	Cancelled    bool `json:"cancelled"`
}

type Result struct {
	Events         []map[string]any
	Summary        Summary
	Settings       Settings
	HasInputErr    bool
	HasInternalErr bool
	Cancelled      bool
}
