package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything a run needs: where the three datasets live, how to
// slice the election, how to draw the chart, and the daemon settings for
// watch/serve modes. Precedence is environment > config file > defaults.
type Config struct {
	ElectionCSV      string
	PopulationCSV    string
	CovidURL         string
	ElectionYear     int
	TrumpCandidate   string
	ClintonCandidate string
	Chart            ChartConfig
	HistoryDB        string
	HTTPAddr         string
	WebhookURL       string
	FetchTimeout     time.Duration
	RunTimeout       time.Duration
	RefreshInterval  time.Duration
	WatchDebounce    time.Duration
	StrictConfig     bool
	ConfigPath       string
}

// ChartConfig captures the rendered chart's path and geometry.
type ChartConfig struct {
	Path         string
	WidthInches  float64
	HeightInches float64
	SmoothWindow int
}

type fileConfig struct {
	ElectionCSV        string          `json:"election_csv" yaml:"election_csv"`
	PopulationCSV      string          `json:"population_csv" yaml:"population_csv"`
	CovidURL           string          `json:"covid_url" yaml:"covid_url"`
	ElectionYear       *int            `json:"election_year" yaml:"election_year"`
	TrumpCandidate     string          `json:"trump_candidate" yaml:"trump_candidate"`
	ClintonCandidate   string          `json:"clinton_candidate" yaml:"clinton_candidate"`
	Chart              chartFileConfig `json:"chart" yaml:"chart"`
	HistoryDB          string          `json:"history_db" yaml:"history_db"`
	HTTPAddr           string          `json:"http_addr" yaml:"http_addr"`
	WebhookURL         string          `json:"webhook_url" yaml:"webhook_url"`
	FetchTimeoutSec    *int            `json:"fetch_timeout_sec" yaml:"fetch_timeout_sec"`
	RunTimeoutSec      *int            `json:"run_timeout_sec" yaml:"run_timeout_sec"`
	RefreshIntervalMin *int            `json:"refresh_interval_min" yaml:"refresh_interval_min"`
	WatchDebounceMs    *int            `json:"watch_debounce_ms" yaml:"watch_debounce_ms"`
}

type chartFileConfig struct {
	Path         string   `json:"path" yaml:"path"`
	WidthInches  *float64 `json:"width_inches" yaml:"width_inches"`
	HeightInches *float64 `json:"height_inches" yaml:"height_inches"`
	SmoothWindow *int     `json:"smooth_window" yaml:"smooth_window"`
}

const (
	defaultElectionCSV        = "data/1976-2020-president.csv"
	defaultPopulationCSV      = "data/nst-est2019-alldata.csv"
	defaultCovidURL           = "https://raw.githubusercontent.com/nytimes/covid-19-data/master/us-states.csv"
	defaultChartPath          = "out/infection-rates.png"
	defaultChartWidthIn       = 6.0
	defaultChartHeightIn      = 4.0
	defaultSmoothWindow       = 7
	defaultElectionYear       = 2016
	defaultTrumpCandidate     = "Trump, Donald J."
	defaultClintonCandidate   = "Clinton, Hillary"
	defaultHTTPAddr           = ":8000"
	defaultFetchTimeoutSec    = 60
	defaultRunTimeoutSec      = 600
	defaultRefreshIntervalMin = 360
	defaultWatchDebounceMs    = 500
)

// Load reads configuration from the environment layered over an optional
// YAML or JSON file. path overrides CONFIG_PATH; pass "" to use the
// environment or the default location. A missing file is only fatal when
// STRICT_CONFIG is set.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		StrictConfig: parseBoolEnv("STRICT_CONFIG"),
	}

	configPath := firstNonEmpty(path, os.Getenv("CONFIG_PATH"), filepath.Join("config", "config.yaml"))
	cfg.ConfigPath = configPath

	fileCfg, fileErr := loadFileConfig(configPath)
	if fileErr != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("config load failed (%s): %w", configPath, fileErr)
		}
		log.Warnf("config load failed (%s): %v (using defaults)", configPath, fileErr)
	}

	cfg.ElectionCSV = firstNonEmpty(os.Getenv("ELECTION_CSV"), fileCfg.ElectionCSV, defaultElectionCSV)
	cfg.PopulationCSV = firstNonEmpty(os.Getenv("POPULATION_CSV"), fileCfg.PopulationCSV, defaultPopulationCSV)
	cfg.CovidURL = firstNonEmpty(os.Getenv("COVID_URL"), fileCfg.CovidURL, defaultCovidURL)
	cfg.TrumpCandidate = firstNonEmpty(os.Getenv("TRUMP_CANDIDATE"), fileCfg.TrumpCandidate, defaultTrumpCandidate)
	cfg.ClintonCandidate = firstNonEmpty(os.Getenv("CLINTON_CANDIDATE"), fileCfg.ClintonCandidate, defaultClintonCandidate)
	cfg.HistoryDB = firstNonEmpty(os.Getenv("HISTORY_DB"), fileCfg.HistoryDB)
	cfg.WebhookURL = firstNonEmpty(os.Getenv("WEBHOOK_URL"), fileCfg.WebhookURL)

	cfg.HTTPAddr = firstNonEmpty(os.Getenv("HTTP_ADDR"), fileCfg.HTTPAddr, defaultHTTPAddr)
	if !strings.HasPrefix(cfg.HTTPAddr, ":") && !strings.Contains(cfg.HTTPAddr, ":") {
		cfg.HTTPAddr = ":" + cfg.HTTPAddr
	}

	cfg.ElectionYear = defaultElectionYear
	if fileCfg.ElectionYear != nil && *fileCfg.ElectionYear > 0 {
		cfg.ElectionYear = *fileCfg.ElectionYear
	}
	if v, ok, err := parseIntEnv("ELECTION_YEAR"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid ELECTION_YEAR: %w", err)
		}
		log.Warnf("invalid ELECTION_YEAR: %v (using %d)", err, cfg.ElectionYear)
	} else if ok && v > 0 {
		cfg.ElectionYear = v
	}

	cfg.Chart = applyChartOverrides(defaultChartConfig(), fileCfg.Chart)
	if v := os.Getenv("CHART_PATH"); v != "" {
		cfg.Chart.Path = v
	}
	if v, ok, err := parseFloatEnv("CHART_WIDTH_IN"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid CHART_WIDTH_IN: %w", err)
		}
		log.Warnf("invalid CHART_WIDTH_IN: %v (using default)", err)
	} else if ok && v > 0 {
		cfg.Chart.WidthInches = v
	}
	if v, ok, err := parseFloatEnv("CHART_HEIGHT_IN"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid CHART_HEIGHT_IN: %w", err)
		}
		log.Warnf("invalid CHART_HEIGHT_IN: %v (using default)", err)
	} else if ok && v > 0 {
		cfg.Chart.HeightInches = v
	}
	if v, ok, err := parseIntEnv("SMOOTH_WINDOW"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid SMOOTH_WINDOW: %w", err)
		}
		log.Warnf("invalid SMOOTH_WINDOW: %v (using default)", err)
	} else if ok && v >= 0 {
		cfg.Chart.SmoothWindow = v
	}

	fetchSec := defaultFetchTimeoutSec
	if fileCfg.FetchTimeoutSec != nil && *fileCfg.FetchTimeoutSec > 0 {
		fetchSec = *fileCfg.FetchTimeoutSec
	}
	if v, ok, err := parseIntEnv("FETCH_TIMEOUT_SEC"); err != nil {
		return cfg, fmt.Errorf("invalid FETCH_TIMEOUT_SEC: %w", err)
	} else if ok {
		if v <= 0 {
			return cfg, errors.New("FETCH_TIMEOUT_SEC must be positive")
		}
		fetchSec = v
	}
	cfg.FetchTimeout = time.Duration(fetchSec) * time.Second

	runSec := defaultRunTimeoutSec
	if fileCfg.RunTimeoutSec != nil && *fileCfg.RunTimeoutSec > 0 {
		runSec = *fileCfg.RunTimeoutSec
	}
	if v, ok, err := parseIntEnv("RUN_TIMEOUT_SEC"); err != nil {
		return cfg, fmt.Errorf("invalid RUN_TIMEOUT_SEC: %w", err)
	} else if ok {
		if v <= 0 {
			return cfg, errors.New("RUN_TIMEOUT_SEC must be positive")
		}
		runSec = v
	}
	cfg.RunTimeout = time.Duration(runSec) * time.Second

	refreshMin := defaultRefreshIntervalMin
	if fileCfg.RefreshIntervalMin != nil && *fileCfg.RefreshIntervalMin >= 0 {
		refreshMin = *fileCfg.RefreshIntervalMin
	}
	if v, ok, err := parseIntEnv("REFRESH_INTERVAL_MIN"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid REFRESH_INTERVAL_MIN: %w", err)
		}
		log.Warnf("invalid REFRESH_INTERVAL_MIN: %v (using default)", err)
	} else if ok && v >= 0 {
		refreshMin = v
	}
	cfg.RefreshInterval = time.Duration(refreshMin) * time.Minute

	debounceMs := defaultWatchDebounceMs
	if fileCfg.WatchDebounceMs != nil && *fileCfg.WatchDebounceMs > 0 {
		debounceMs = *fileCfg.WatchDebounceMs
	}
	if v, ok, err := parseIntEnv("WATCH_DEBOUNCE_MS"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid WATCH_DEBOUNCE_MS: %w", err)
		}
		log.Warnf("invalid WATCH_DEBOUNCE_MS: %v (using default)", err)
	} else if ok && v > 0 {
		debounceMs = v
	}
	cfg.WatchDebounce = time.Duration(debounceMs) * time.Millisecond

	if err := validateConfig(cfg); err != nil {
		if cfg.StrictConfig {
			return cfg, err
		}
		log.Warnf("config validation failed: %v (continuing)", err)
	}

	return cfg, nil
}

func defaultChartConfig() ChartConfig {
	return ChartConfig{
		Path:         defaultChartPath,
		WidthInches:  defaultChartWidthIn,
		HeightInches: defaultChartHeightIn,
		SmoothWindow: defaultSmoothWindow,
	}
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("empty config file")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.ElectionCSV) == "" {
		return errors.New("ELECTION_CSV is required")
	}
	if strings.TrimSpace(cfg.PopulationCSV) == "" {
		return errors.New("POPULATION_CSV is required")
	}
	u, err := url.Parse(cfg.CovidURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("COVID_URL must be an http(s) URL (got %q)", cfg.CovidURL)
	}
	if cfg.ElectionYear <= 0 {
		return errors.New("election year must be positive")
	}
	if strings.TrimSpace(cfg.TrumpCandidate) == "" || strings.TrimSpace(cfg.ClintonCandidate) == "" {
		return errors.New("both candidate names are required")
	}
	if strings.TrimSpace(cfg.Chart.Path) == "" {
		return errors.New("chart path is required")
	}
	if cfg.Chart.WidthInches <= 0 || cfg.Chart.HeightInches <= 0 {
		return errors.New("chart dimensions must be positive")
	}
	if cfg.Chart.SmoothWindow < 0 {
		return errors.New("smooth window must be >= 0")
	}
	if cfg.FetchTimeout <= 0 || cfg.RunTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if cfg.WatchDebounce <= 0 {
		return errors.New("watch debounce must be positive")
	}
	return nil
}

func applyChartOverrides(base ChartConfig, override chartFileConfig) ChartConfig {
	if strings.TrimSpace(override.Path) != "" {
		base.Path = strings.TrimSpace(override.Path)
	}
	if override.WidthInches != nil && *override.WidthInches > 0 {
		base.WidthInches = *override.WidthInches
	}
	if override.HeightInches != nil && *override.HeightInches > 0 {
		base.HeightInches = *override.HeightInches
	}
	if override.SmoothWindow != nil && *override.SmoothWindow >= 0 {
		base.SmoothWindow = *override.SmoothWindow
	}
	return base
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return val
		}
	}
	return ""
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return false
}

func parseIntEnv(key string) (int, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	val, err := strconv.Atoi(raw)
	return val, true, err
}

func parseFloatEnv(key string) (float64, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	return val, true, err
}
