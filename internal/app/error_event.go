package app

type errorHint struct {
	NextAction  string
	FixExample  string
	DocKey      string
	Recoverable bool
}

func buildErrorEvent(category, code, path, detail string) map[string]any {
	h := hintByCode(code)
	return map[string]any{
		"type":        "error",
		"code":        code,
		"category":    category,
		"path":        path,
		"detail":      detail,
		"next_action": h.NextAction,
		"fix_example": h.FixExample,
		"doc_key":     h.DocKey,
		"recoverable": h.Recoverable,
	}
}

func hintByCode(code string) errorHint {
	switch code {
	case "input_path_not_found":
		return errorHint{
			NextAction:  "确认路径存在且拼写正确，再重试",
			FixExample:  "eol-audit /path/to/input_dir",
			DocKey:      "input.path_not_found",
			Recoverable: true,
		}
	case "input_abs_failed", "input_stat_failed", "walk_error", "file_stat_failed", "file_read_failed":
		return errorHint{
			NextAction:  "检查路径权限和可读性，必要时更换输入目录",
			FixExample:  "chmod -R +r /path/to/input_dir && eol-audit /path/to/input_dir",
			DocKey:      "input.path_access",
			Recoverable: true,
		}
	case "symlink_skipped":
		return errorHint{
			NextAction:  "默认不跟随软链接，请改为传真实路径或加 --follow-symlinks",
			FixExample:  "eol-audit /path/to/link --follow-symlinks",
			DocKey:      "input.symlink_skipped",
			Recoverable: true,
		}
	case "skipped_large_file":
		return errorHint{
			NextAction:  "增大 --max-file-size（0 表示不限制），或排除该大文件",
			FixExample:  "eol-audit /path/to/input_dir --max-file-size 0",
			DocKey:      "input.max_file_size",
			Recoverable: true,
		}
	case "gitignore_read_failed":
		return errorHint{
			NextAction:  "检查 .gitignore 是否可读，或去掉 --gitignore",
			FixExample:  "eol-audit /path/to/input_dir",
			DocKey:      "input.gitignore_read_failed",
			Recoverable: true,
		}
	case "internal_error":
		return errorHint{
			NextAction:  "编码识别结果超出已知范围，属于程序缺陷，请附上该文件反馈",
			FixExample:  "eol-audit /path/to/file --format ndjson",
			DocKey:      "runtime.internal_error",
			Recoverable: false,
		}
	default:
		return errorHint{
			NextAction:  "根据 detail 修正输入或配置后重试",
			FixExample:  "eol-audit --help",
			DocKey:      "general.error",
			Recoverable: true,
		}
	}
}
