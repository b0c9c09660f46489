package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"eol-audit/internal/app"
	"eol-audit/internal/config"
	"eol-audit/internal/output"
	"eol-audit/internal/scan"
)

type rootFlags struct {
	Config         string
	Format         string
	Jobs           int
	ShowAll        bool
	Strict         bool
	CodePage       string
	MaxFileSize    string
	FollowSymlinks bool
	IncludeHidden  bool
	UseGitignore   bool
	Ignore         []string
	ShowVersion    bool
}

func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		// cobra 遇到 nil 会回退到 os.Args
		args = []string{}
	}
	root := NewRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if !errors.As(err, &ee) {
		ee = &ExitError{Code: ExitUsage, Msg: err.Error(), ErrCode: "invalid_flag"}
	}
	if ee.ErrCode != "" {
		writeCLIError(stdout, detectFormatFromArgs(args), args, ee.ErrCode, "arg", "", ee.Msg, ee.Code)
	}
	if ee.Msg != "" {
		fmt.Fprintln(stderr, ee.Msg)
	}
	return ee.Code
}

func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "eol-audit [flags] <path>",
		Short:         "检查文本文件换行符（CRLF/LF/CR）是否统一",
		Long:          rootLongHelp(),
		Example:       rootExampleHelp(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if flags.ShowVersion || len(args) == 1 {
				return nil
			}
			fmt.Fprint(stderr, cmd.UsageString())
			return &ExitError{
				Code:    ExitUsage,
				Msg:     fmt.Sprintf("需要且只能传一个文件或目录路径，实际收到 %d 个", len(args)),
				ErrCode: "arg_path_count",
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.ShowVersion {
				printVersion(stdout)
				return nil
			}
			return runAudit(cmd, stdout, flags, args[0])
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.CompletionOptions.HiddenDefaultCmd = true
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		fmt.Fprint(stderr, cmd.UsageString())
		return &ExitError{Code: ExitUsage, Msg: err.Error(), ErrCode: "invalid_flag"}
	})
	bindFlags(root, flags)
	return root
}

func bindFlags(cmd *cobra.Command, flags *rootFlags) {
	f := cmd.Flags()
	f.StringVar(&flags.Config, "config", "", "YAML 配置文件路径（可选）")
	f.StringVar(&flags.Format, "format", "text", "输出格式：text/table/ndjson/json")
	f.IntVar(&flags.Jobs, "jobs", app.DefaultJobs(), "并发任务数（默认 min(8, CPU核数)）")
	f.BoolVar(&flags.ShowAll, "all", false, "输出全部文件（默认只输出不一致的文件）")
	f.BoolVar(&flags.Strict, "strict", false, "没有任何换行符的文件也判为不一致")
	f.StringVar(&flags.CodePage, "code-page", "windows-1252", "ANSI 文件使用的代码页（如 cp1252、latin1、gbk）")
	f.StringVar(&flags.MaxFileSize, "max-file-size", app.DefaultMaxFileSize, "单文件最大处理大小，超出则跳过（0 表示不限制）")
	f.BoolVar(&flags.FollowSymlinks, "follow-symlinks", false, "是否跟随软链接")
	f.BoolVar(&flags.IncludeHidden, "include-hidden", false, "遍历目录时包含以 . 开头的隐藏项")
	f.BoolVar(&flags.UseGitignore, "gitignore", false, "遵守输入目录中的 .gitignore")
	f.StringArrayVar(&flags.Ignore, "ignore", nil, "忽略匹配的路径，可重复（支持 ** 通配）")
	f.BoolVarP(&flags.ShowVersion, "version", "v", false, "显示版本信息")
}

// overridesFromFlags 只收集显式传入的参数，未传的交给环境变量和配置文件。
func overridesFromFlags(cmd *cobra.Command, flags *rootFlags) config.Config {
	var c config.Config
	changed := cmd.Flags().Changed
	if changed("jobs") {
		c.Audit.Jobs = &flags.Jobs
	}
	if changed("all") {
		c.Audit.ShowAll = &flags.ShowAll
	}
	if changed("strict") {
		c.Audit.Strict = &flags.Strict
	}
	if changed("code-page") {
		c.Audit.CodePage = flags.CodePage
	}
	if changed("max-file-size") {
		c.Audit.MaxFileSize = flags.MaxFileSize
	}
	if changed("follow-symlinks") {
		c.Audit.FollowSymlinks = &flags.FollowSymlinks
	}
	if changed("include-hidden") {
		c.Audit.IncludeHidden = &flags.IncludeHidden
	}
	if changed("gitignore") {
		c.Audit.UseGitignore = &flags.UseGitignore
	}
	if changed("ignore") {
		c.Audit.IgnorePatterns = flags.Ignore
	}
	return c
}

func runAudit(cmd *cobra.Command, stdout io.Writer, flags *rootFlags, arg string) error {
	if err := scan.ValidateFormat(flags.Format); err != nil {
		return &ExitError{Code: ExitUsage, Msg: err.Error(), ErrCode: "invalid_output_format"}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return &ExitError{Code: ExitInternal, Msg: "读取当前目录失败", ErrCode: "cwd_failed"}
	}
	paths := app.NormalizePaths([]string{arg}, cwd)
	if len(paths) == 0 {
		return &ExitError{Code: ExitUsage, Msg: "输入路径为空或无效", ErrCode: "invalid_input_paths"}
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := app.Run(ctx, app.Options{
		Paths:      paths,
		CWD:        cwd,
		ConfigPath: flags.Config,
		Overrides:  overridesFromFlags(cmd, flags),
		Format:     flags.Format,
		Version:    Version,
		Args:       os.Args[1:],
	})
	if err != nil {
		var argErr *app.ArgErr
		var cfgErr *app.ConfigErr
		switch {
		case errors.As(err, &argErr):
			return &ExitError{Code: ExitUsage, Msg: err.Error(), ErrCode: "invalid_input_paths"}
		case errors.As(err, &cfgErr):
			return &ExitError{Code: ExitUsage, Msg: err.Error(), ErrCode: "config_invalid"}
		default:
			return &ExitError{Code: ExitInternal, Msg: err.Error()}
		}
	}
	events := eventsForOutput(res.Settings.ShowAll, res.Events)
	if werr := output.Write(stdout, flags.Format, events); werr != nil {
		return &ExitError{Code: ExitInternal, Msg: fmt.Sprintf("输出结果失败：%v", werr)}
	}
	switch {
	case res.HasInternalErr:
		return &ExitError{Code: ExitInternal}
	case res.Cancelled:
		return &ExitError{Code: ExitInterrupted, Msg: "已中断，未派发的文件没有审计"}
	}
	return nil
}

// eventsForOutput 默认只保留不一致文件的 file_audit 事件。
func eventsForOutput(showAll bool, events []map[string]any) []map[string]any {
	if showAll {
		return events
	}
	filtered := make([]map[string]any, 0, len(events))
	for _, e := range events {
		t, _ := e["type"].(string)
		if t == "file_audit" && e["verdict"] != "INCONSISTENCE" {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}
