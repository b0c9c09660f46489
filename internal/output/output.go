package output

import (
	"encoding/json"
	"fmt"
	"io"
)

func Write(w io.Writer, format string, events []map[string]any) error {
	switch format {
	case "ndjson":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, e := range events {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	case "json":
		obj := map[string]any{"events": events}
		b, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "text":
		return writeText(w, events)
	case "table":
		return writeTable(w, events)
	default:
		return fmt.Errorf("不支持的输出格式：%s", format)
	}
}

func eventType(e map[string]any) string {
	t, _ := e["type"].(string)
	return t
}

func str(e map[string]any, key string) string {
	v, ok := e[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
