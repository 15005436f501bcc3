package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

type Config struct {
	Proxy     ProxyConfig
	Scheduler SchedulerConfig
	DBPath    string
	DBURL     string
	LogLevel  string
	LogPath   string
	LogMaxMB  int
	Sites     map[string]*SiteConfig
}

type ProxyConfig struct {
	URL string
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

// SiteConfig describes one portal to crawl. Loaded from config/sites/*.yaml
// and immutable afterwards.
type SiteConfig struct {
	ID             string       `yaml:"id"`
	Name           string       `yaml:"name"`
	BaseURL        string       `yaml:"base_url"`
	HomeURL        string       `yaml:"home_url"`
	MaxPages       int          `yaml:"max_pages"`
	UserAgent      string       `yaml:"user_agent"`
	OutputPath     string       `yaml:"output_path"`
	PersistPartial *bool        `yaml:"persist_partial"`
	Pacing         PacingConfig `yaml:"pacing"`
}

// PacingConfig bounds the randomized delays, in milliseconds.
type PacingConfig struct {
	WarmupMinMS int `yaml:"warmup_min_ms"`
	WarmupMaxMS int `yaml:"warmup_max_ms"`
	PageMinMS   int `yaml:"page_min_ms"`
	PageMaxMS   int `yaml:"page_max_ms"`
}

func (p PacingConfig) WarmupRange() (time.Duration, time.Duration) {
	return time.Duration(p.WarmupMinMS) * time.Millisecond, time.Duration(p.WarmupMaxMS) * time.Millisecond
}

func (p PacingConfig) PageRange() (time.Duration, time.Duration) {
	return time.Duration(p.PageMinMS) * time.Millisecond, time.Duration(p.PageMaxMS) * time.Millisecond
}

// PersistOnPartial reports whether listings collected before a fatal
// navigation error should still be written. Defaults to true when the
// site config leaves it unset.
func (s *SiteConfig) PersistOnPartial() bool {
	if s.PersistPartial == nil {
		return true
	}
	return *s.PersistPartial
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Proxy: ProxyConfig{
			URL: os.Getenv("SCRAPE_PROXY_URL"),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		DBPath:   getEnv("DB_PATH", "scraper.db"),
		DBURL:    os.Getenv("DATABASE_URL"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", "scraper.log"),
		LogMaxMB: getEnvInt("LOG_MAX_MB", 2),
		Sites:    make(map[string]*SiteConfig),
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadSiteConfigs(getEnv("SITES_DIR", "config/sites")); err != nil {
		return nil, err
	}

	// MAX_PAGES caps every site, handy for short test crawls
	if mp := getEnvInt("MAX_PAGES", 0); mp > 0 {
		for _, site := range cfg.Sites {
			site.MaxPages = mp
		}
	}

	return cfg, nil
}

func (c *Config) loadSiteConfigs(configDir string) error {
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var site SiteConfig
		if err := yaml.Unmarshal(data, &site); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if err := site.validate(); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		site.applyDefaults()

		c.Sites[site.ID] = &site
	}

	return nil
}

func (s *SiteConfig) validate() error {
	if s.ID == "" {
		return fmt.Errorf("site config missing id")
	}
	if s.BaseURL == "" || s.HomeURL == "" {
		return fmt.Errorf("site %s missing base_url or home_url", s.ID)
	}
	return nil
}

func (s *SiteConfig) applyDefaults() {
	if s.MaxPages <= 0 {
		s.MaxPages = 350
	}
	if s.UserAgent == "" {
		s.UserAgent = defaultUserAgent
	}
	if s.OutputPath == "" {
		s.OutputPath = s.ID + "_listings.csv"
	}
	if s.Pacing.WarmupMinMS <= 0 {
		s.Pacing.WarmupMinMS = 3000
	}
	if s.Pacing.WarmupMaxMS <= 0 {
		s.Pacing.WarmupMaxMS = 7000
	}
	if s.Pacing.PageMinMS <= 0 {
		s.Pacing.PageMinMS = 4000
	}
	if s.Pacing.PageMaxMS <= 0 {
		s.Pacing.PageMaxMS = 8000
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
