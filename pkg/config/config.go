package config

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	Telegram struct {
		Token       string
		AdminIDs    []int64 `mapstructure:"-"`
		PollTimeout int     `mapstructure:"poll_timeout"`
	} `mapstructure:"telegram"`

	Storage struct {
		// DataDir holds projects.json, works.json and the other documents.
		DataDir string `mapstructure:"data_dir"`
		// SiteRoot is where images/<subfolder>/ lives.
		SiteRoot string `mapstructure:"site_root"`
	} `mapstructure:"storage"`

	Ingest struct {
		MaxFileSize     int64         `mapstructure:"max_file_size"`
		Attempts        int           `mapstructure:"attempts"`
		RetryDelay      time.Duration `mapstructure:"retry_delay"`
		DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	} `mapstructure:"ingest"`

	HTTP struct {
		Addr    string
		Metrics bool
		Leads   bool
	} `mapstructure:"http"`
}

var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if c.Telegram.Token == "" {
		return fmt.Errorf("config validation failed: telegram token is not set (TELEGRAM_BOT_TOKEN)")
	}
	if !tokenPattern.MatchString(c.Telegram.Token) {
		return fmt.Errorf("config validation failed: telegram token has an invalid format")
	}
	if len(c.Telegram.AdminIDs) == 0 {
		return fmt.Errorf("config validation failed: no admin ids configured (ADMIN_IDS)")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("config validation failed: storage.data_dir is empty")
	}
	if c.Ingest.MaxFileSize <= 0 || c.Ingest.Attempts <= 0 {
		return fmt.Errorf("config validation failed: ingest limits must be positive (max_file_size=%d, attempts=%d)",
			c.Ingest.MaxFileSize, c.Ingest.Attempts)
	}
	if c.Ingest.RetryDelay < 0 || c.Ingest.DownloadTimeout <= 0 {
		return fmt.Errorf("config validation failed: ingest durations must be positive")
	}
	return nil
}

// IsAdmin reports whether the Telegram user may operate the bot.
func (c *Config) IsAdmin(userID int64) bool {
	return slices.Contains(c.Telegram.AdminIDs, userID)
}

// ParseAdminIDs parses "1, 2,3". Empty items are skipped; duplicates collapse.
func ParseAdminIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid admin id %q", part)
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
