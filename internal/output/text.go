package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// writeText 输出逐文件的报告块，最后一行为汇总。
func writeText(w io.Writer, events []map[string]any) error {
	bw := bufio.NewWriter(w)
	for _, e := range events {
		switch eventType(e) {
		case "file_audit":
			fmt.Fprintf(bw, "File: %s\n", str(e, "path"))
			fmt.Fprintf(bw, "Encoding: %s\n", str(e, "encoding"))
			fmt.Fprintf(bw, "Lines: %s\tCRLF: %s\tLF: %s\tCR: %s\n", str(e, "lines"), str(e, "crlf"), str(e, "lf"), str(e, "cr"))
			fmt.Fprintf(bw, "Result: %s\n\n", str(e, "verdict"))
		case "error":
			fmt.Fprintf(bw, "Error: %s: %s\n", str(e, "path"), str(e, "detail"))
		case "summary":
			writeSummaryLine(bw, e)
		}
	}
	return bw.Flush()
}

func writeSummaryLine(w io.Writer, e map[string]any) {
	line := fmt.Sprintf("Audited %s files, %s inconsistent, %s binary, %s errors",
		str(e, "audited_files"), str(e, "inconsistent_count"), str(e, "binary_files"), str(e, "error_count"))
	if c, _ := e["cancelled"].(bool); c {
		line += " (cancelled)"
	}
	fmt.Fprintln(w, line)
}

var tableHeader = []string{"PATH", "ENCODING", "LINES", "CRLF", "LF", "CR", "RESULT"}

// writeTable 每个文件一行；路径可能含中日韩字符，列宽按显示宽度计算。
func writeTable(w io.Writer, events []map[string]any) error {
	rows := [][]string{tableHeader}
	var tail []map[string]any
	for _, e := range events {
		switch eventType(e) {
		case "file_audit":
			rows = append(rows, []string{
				str(e, "path"), str(e, "encoding"), str(e, "lines"),
				str(e, "crlf"), str(e, "lf"), str(e, "cr"), str(e, "verdict"),
			})
		case "error", "summary":
			tail = append(tail, e)
		}
	}

	widths := make([]int, len(tableHeader))
	for _, r := range rows {
		for i, cell := range r {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	bw := bufio.NewWriter(w)
	if len(rows) > 1 {
		for _, r := range rows {
			cells := make([]string, len(r))
			for i, cell := range r {
				if i == len(r)-1 {
					cells[i] = cell
					continue
				}
				cells[i] = runewidth.FillRight(cell, widths[i])
			}
			fmt.Fprintln(bw, strings.Join(cells, "  "))
		}
	}
	for _, e := range tail {
		if eventType(e) == "error" {
			fmt.Fprintf(bw, "Error: %s: %s\n", str(e, "path"), str(e, "detail"))
			continue
		}
		writeSummaryLine(bw, e)
	}
	return bw.Flush()
}
