package cmd

import (
	"io"
	"strings"

	"eol-audit/internal/output"
)

type cliErrorHint struct {
	NextAction  string
	FixExample  string
	DocKey      string
	Recoverable bool
}

// writeCLIError 在进入审计之前失败时，仍按 meta/error/summary 的顺序输出事件。
func writeCLIError(w io.Writer, format string, args []string, code, category, path, detail string, exitCode int) {
	if !machineFormat(format) {
		return
	}
	h := cliHintByCode(code)
	events := []map[string]any{
		{
			"type":          "meta",
			"tool":          "eol-audit",
			"version":       Version,
			"args":          args,
			"output_format": format,
		},
		{
			"type":        "error",
			"code":        code,
			"category":    category,
			"path":        path,
			"detail":      detail,
			"next_action": h.NextAction,
			"fix_example": h.FixExample,
			"doc_key":     h.DocKey,
			"recoverable": h.Recoverable,
		},
		{
			"type":               "summary",
			"total_files":        0,
			"audited_files":      0,
			"binary_files":       0,
			"consistent_count":   0,
			"inconsistent_count": 0,
			"skipped_files":      0,
			"error_count":        1,
			"cancelled":          false,
			"exit_code":          exitCode,
		},
	}
	_ = output.Write(w, format, events)
}

func machineFormat(format string) bool {
	return format == "ndjson" || format == "json"
}

func detectFormatFromArgs(args []string) string {
	format := "text"
	for i := 0; i < len(args); i++ {
		a := strings.TrimSpace(args[i])
		if a == "--format" {
			if i+1 < len(args) {
				format = strings.TrimSpace(args[i+1])
			}
			continue
		}
		if strings.HasPrefix(a, "--format=") {
			format = strings.TrimPrefix(a, "--format=")
		}
	}
	return format
}

func cliHintByCode(code string) cliErrorHint {
	switch code {
	case "arg_path_count":
		return cliErrorHint{
			NextAction:  "只传一个文件或目录路径",
			FixExample:  "eol-audit /path/to/input_dir",
			DocKey:      "arg.path_count",
			Recoverable: true,
		}
	case "invalid_output_format":
		return cliErrorHint{
			NextAction:  "把 --format 改为 text、table、ndjson 或 json",
			FixExample:  "eol-audit /path/to/input_dir --format ndjson",
			DocKey:      "arg.invalid_output_format",
			Recoverable: true,
		}
	case "invalid_flag":
		return cliErrorHint{
			NextAction:  "检查参数拼写和取值，或查看帮助",
			FixExample:  "eol-audit --help",
			DocKey:      "arg.invalid_flag",
			Recoverable: true,
		}
	case "invalid_input_paths":
		return cliErrorHint{
			NextAction:  "检查输入路径是否为空、是否可解析为绝对路径",
			FixExample:  "eol-audit /path/to/input_dir",
			DocKey:      "arg.invalid_input_paths",
			Recoverable: true,
		}
	case "config_invalid":
		return cliErrorHint{
			NextAction:  "修正配置文件、EOL_AUDIT_* 环境变量或命令行取值后重试",
			FixExample:  "eol-audit /path/to/input_dir --config /path/to/eol-audit.yaml",
			DocKey:      "config.invalid",
			Recoverable: true,
		}
	case "cwd_failed":
		return cliErrorHint{
			NextAction:  "确认当前工作目录可访问，或切换到可访问目录",
			FixExample:  "cd /path/to/workspace && eol-audit /path/to/input_dir",
			DocKey:      "runtime.cwd_failed",
			Recoverable: true,
		}
	case "output_write_failed":
		return cliErrorHint{
			NextAction:  "检查输出管道或重定向目标是否可写",
			FixExample:  "eol-audit /path/to/input_dir --format ndjson > result.ndjson",
			DocKey:      "runtime.output_write_failed",
			Recoverable: true,
		}
	default:
		return cliErrorHint{
			NextAction:  "根据 detail 修正参数或配置后重试",
			FixExample:  "eol-audit --help",
			DocKey:      "general.error",
			Recoverable: true,
		}
	}
}
