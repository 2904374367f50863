package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_ids", "")
	v.SetDefault("telegram.poll_timeout", 60)
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.site_root", ".")
	v.SetDefault("ingest.max_file_size", 10<<20)
	v.SetDefault("ingest.attempts", 3)
	v.SetDefault("ingest.retry_delay", "1s")
	v.SetDefault("ingest.download_timeout", "30s")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.metrics", true)
	v.SetDefault("http.leads", false)
}

// Load reads .env, the optional YAML file at path and ALEVIT_* overrides.
func Load(path string) (Config, error) {
	var c Config
	if err := loadDotEnv(".env"); err != nil {
		return c, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ALEVIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range map[string]string{
		"telegram.token":     "TELEGRAM_BOT_TOKEN",
		"telegram.admin_ids": "ADMIN_IDS",
		"app.env":            "APP_ENV",
	} {
		envKey := "ALEVIT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return c, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return c, fmt.Errorf("failed to read config file '%s': %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to decode config: %w", err)
	}
	ids, err := adminIDs(v.Get("telegram.admin_ids"))
	if err != nil {
		return c, err
	}
	c.Telegram.AdminIDs = ids

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// adminIDs accepts a comma separated string (env) or a YAML list.
func adminIDs(raw any) ([]int64, error) {
	switch val := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return ParseAdminIDs(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
		return ParseAdminIDs(strings.Join(parts, ","))
	default:
		return ParseAdminIDs(fmt.Sprint(val))
	}
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}
