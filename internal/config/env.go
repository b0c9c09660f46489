package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const EnvPrefix = "EOL_AUDIT_"

// LoadLayered 依次叠加：配置文件（可选） -> EOL_AUDIT_* 环境变量。
// 返回值 source 用于 meta 事件，说明实际生效的来源。
func LoadLayered(configPath string) (Config, string, error) {
	var cfg Config
	sources := make([]string, 0, 2)
	if strings.TrimSpace(configPath) != "" {
		loaded, err := Load(configPath)
		if err != nil {
			return Config{}, "", err
		}
		cfg = loaded
		sources = append(sources, configPath)
	}
	fromEnv, ok, err := LoadFromEnv(EnvPrefix)
	if err != nil {
		return Config{}, "", err
	}
	if ok {
		cfg = cfg.Merge(fromEnv)
		sources = append(sources, "env://"+EnvPrefix+"*")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, "", err
	}
	return cfg, strings.Join(sources, ","), nil
}

// LoadFromEnv 从环境变量加载配置。
// 例如：EOL_AUDIT_SHOW_ALL=true, EOL_AUDIT_CODE_PAGE=gbk
func LoadFromEnv(prefix string) (Config, bool, error) {
	c := Config{}
	has := false

	setIntPtr := func(key string, dst **int) error {
		v, ok := os.LookupEnv(prefix + key)
		if !ok {
			return nil
		}
		has = true
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("环境变量 %s%s 不是有效整数", prefix, key)
		}
		*dst = &n
		return nil
	}
	setBoolPtr := func(key string, dst **bool) error {
		v, ok := os.LookupEnv(prefix + key)
		if !ok {
			return nil
		}
		has = true
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("环境变量 %s%s 不是有效布尔值", prefix, key)
		}
		*dst = &b
		return nil
	}
	setString := func(key string, dst *string) {
		v, ok := os.LookupEnv(prefix + key)
		if !ok {
			return
		}
		has = true
		*dst = strings.TrimSpace(v)
	}
	setList := func(key string, dst *[]string) {
		v, ok := os.LookupEnv(prefix + key)
		if !ok {
			return
		}
		has = true
		*dst = splitCSV(v)
	}

	bools := []struct {
		key string
		dst **bool
	}{
		{"SHOW_ALL", &c.Audit.ShowAll},
		{"STRICT", &c.Audit.Strict},
		{"INCLUDE_HIDDEN", &c.Audit.IncludeHidden},
		{"USE_GITIGNORE", &c.Audit.UseGitignore},
		{"FOLLOW_SYMLINKS", &c.Audit.FollowSymlinks},
		{"NULL_SUGGESTS_BINARY", &c.Sniffer.NullSuggestsBinary},
	}
	for _, b := range bools {
		if err := setBoolPtr(b.key, b.dst); err != nil {
			return Config{}, false, err
		}
	}

	if err := setIntPtr("JOBS", &c.Audit.Jobs); err != nil {
		return Config{}, false, err
	}
	if err := setIntPtr("EXPECTED_NULL_PERCENT", &c.Sniffer.ExpectedNullPercent); err != nil {
		return Config{}, false, err
	}
	if err := setIntPtr("UNEXPECTED_NULL_PERCENT", &c.Sniffer.UnexpectedNullPercent); err != nil {
		return Config{}, false, err
	}

	setString("CODE_PAGE", &c.Audit.CodePage)
	setString("MAX_FILE_SIZE", &c.Audit.MaxFileSize)
	setList("IGNORE_PATTERNS", &c.Audit.IgnorePatterns)

	return c, has, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func parseBool(v string) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(v))
	switch s {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool")
	}
}
