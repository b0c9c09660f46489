package cmd

import "strings"

func rootLongHelp() string {
	return strings.TrimSpace(`
检查文本文件的换行符是否统一（CRLF / LF / CR）。

对每个文件：
1. 先嗅探编码（BOM、UTF-8、UTF-16、ANSI 代码页，含 NUL 的按二进制跳过）
2. 按编码解码后逐字符统计换行符
3. 只出现一种换行符（或没有换行符）判为 PERFECT，否则 INCONSISTENCE

输入与扫描：
- 只接受一个路径（文件或目录）
- 目录默认递归，跳过以 . 开头的隐藏项（--include-hidden 关闭此行为）
- 直接传入的文件总会被审计
- 默认不跟随软链接（--follow-symlinks 打开）
- --gitignore 按输入目录中的 .gitignore 排除文件
- --ignore 可重复，支持 ** 通配

输出格式（--format）：
- text（默认）：逐文件的 File/Encoding/Lines/Result 块
- table：每个文件一行，按显示宽度对齐
- ndjson / json：meta、file_audit、error、summary 事件

默认只报告不一致的文件；--all 输出全部文件（含二进制文件）。

配置优先级：命令行 > EOL_AUDIT_* 环境变量 > --config 配置文件 > 默认值

退出码：
- 0 完成（包括存在不一致文件或个别文件读取失败）
- 1 参数或配置错误
- 2 内部错误
- 130 被中断
`)
}

func rootExampleHelp() string {
	return strings.TrimSpace(`
  # 审计目录，只列出不一致的文件
  eol-audit /path/to/repo

  # 列出全部文件
  eol-audit /path/to/repo --all

  # 表格输出
  eol-audit /path/to/repo --all --format table

  # 给 AI/脚本用：NDJSON 事件流
  eol-audit /path/to/repo --format ndjson

  # 没有换行符的文件也算不一致
  eol-audit /path/to/repo --strict

  # ANSI 文件按 GBK 解码
  eol-audit /path/to/file.txt --code-page gbk

  # 遵守 .gitignore，并排除压缩过的脚本
  eol-audit /path/to/repo --gitignore --ignore "**/*.min.js"

  # 配置文件
  eol-audit /path/to/repo --config eol-audit.yaml
`)
}
