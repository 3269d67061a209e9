package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scan cadences accepted by settings.scan_frequency.
const (
	ScanHourly     = "hourly"
	ScanTwiceDaily = "twice_daily"
	ScanDaily      = "daily"
)

// File is the YAML configuration: portfolio, transfer partners, monitored
// routes and engine settings.
type File struct {
	Portfolio  []ProgramEntry     `yaml:"portfolio"`
	Transfers  TransferTable      `yaml:"transfers"`
	Routes     []RouteEntry       `yaml:"routes"`
	Settings   Settings           `yaml:"settings"`
	Valuations map[string]float64 `yaml:"valuations,omitempty"`
	Alerts     Alerts             `yaml:"alerts"`
}

type ProgramEntry struct {
	Name          string  `yaml:"name"`
	Code          string  `yaml:"code"`
	Balance       int64   `yaml:"balance"`
	TransferRatio float64 `yaml:"transfer_ratio,omitempty"`
}

type RouteEntry struct {
	Origin        string `yaml:"origin"`
	Destination   string `yaml:"destination"`
	Cabin         string `yaml:"cabin"`
	FlexibleDates bool   `yaml:"flexible_dates"`
}

// UnmarshalYAML defaults cabin to economy and flexible_dates to true.
func (r *RouteEntry) UnmarshalYAML(node *yaml.Node) error {
	type plain RouteEntry
	out := plain{Cabin: "economy", FlexibleDates: true}
	if err := node.Decode(&out); err != nil {
		return err
	}
	*r = RouteEntry(out)
	return nil
}

type RankingWeights struct {
	CPP          float64 `yaml:"cpp"`
	Savings      float64 `yaml:"savings"`
	Saver        float64 `yaml:"saver"`
	Availability float64 `yaml:"availability"`
}

type Settings struct {
	HomeAirports        []string       `yaml:"home_airports"`
	UnicornThresholdCPP float64        `yaml:"unicorn_threshold_cpp"`
	SearchWindowDays    int            `yaml:"search_window_days"`
	FlexibleDays        int            `yaml:"flexible_days"`
	ScanFrequency       string         `yaml:"scan_frequency"`
	MaxStops            int            `yaml:"max_stops"`
	CacheTTLHours       int            `yaml:"cache_ttl_hours"`
	RequestDelaySeconds float64        `yaml:"request_delay_seconds"`
	SeatsAeroAPIKey     string         `yaml:"seats_aero_api_key,omitempty"`
	MaxTransferHops     int            `yaml:"max_transfer_hops"`
	Ranking             RankingWeights `yaml:"ranking"`
}

type Alerts struct {
	// Terminal logs every unicorn at warn level.
	Terminal bool `yaml:"terminal"`
	// Telegram pushes unicorns and major price drops to subscribers.
	Telegram   bool `yaml:"telegram"`
	PriceDrops bool `yaml:"price_drops"`
}

// DefaultSettings mirrors the engine defaults.
func DefaultSettings() Settings {
	return Settings{
		HomeAirports:        []string{"SFO"},
		UnicornThresholdCPP: 7.0,
		SearchWindowDays:    90,
		FlexibleDays:        3,
		ScanFrequency:       ScanDaily,
		MaxStops:            1,
		CacheTTLHours:       6,
		RequestDelaySeconds: 2.0,
		MaxTransferHops:     1,
		Ranking:             RankingWeights{CPP: 0.5, Savings: 0.3, Saver: 0.1, Availability: 0.1},
	}
}

// DefaultFile is an empty portfolio with default settings. An empty
// transfer table means the built-in partner graph.
func DefaultFile() *File {
	return &File{
		Settings: DefaultSettings(),
		Alerts:   Alerts{Terminal: true, Telegram: true, PriceDrops: true},
	}
}

// SearchPaths are tried in order when no path is given.
func SearchPaths() []string {
	paths := []string{"config.yaml", "config.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "pointsmaxxer", "config.yaml"),
			filepath.Join(home, ".pointsmaxxer", "config.yaml"),
		)
	}
	return paths
}

// FindFile returns the first existing search path, or "".
func FindFile() string {
	for _, p := range SearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadFile reads path, or the first file in SearchPaths when path is empty.
// A missing or empty file yields DefaultFile.
func LoadFile(path string) (*File, error) {
	if path == "" {
		path = FindFile()
	}
	if path == "" {
		return DefaultFile(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultFile(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseFile(data)
}

// ParseFile decodes YAML over DefaultFile, so omitted settings keep their
// defaults.
func ParseFile(data []byte) (*File, error) {
	f := DefaultFile()
	if len(strings.TrimSpace(string(data))) == 0 {
		return f, nil
	}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// SaveFile writes f to path, creating parent directories.
func SaveFile(path string, f *File) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config dir: %w", err)
		}
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects values the engine cannot use.
func (f *File) Validate() error {
	var errs []error
	s := f.Settings
	if s.UnicornThresholdCPP <= 0 {
		errs = append(errs, errors.New("settings.unicorn_threshold_cpp must be > 0"))
	}
	if s.SearchWindowDays <= 0 {
		errs = append(errs, errors.New("settings.search_window_days must be > 0"))
	}
	if s.FlexibleDays < 0 {
		errs = append(errs, errors.New("settings.flexible_days must be >= 0"))
	}
	if s.MaxStops < 0 {
		errs = append(errs, errors.New("settings.max_stops must be >= 0"))
	}
	if s.CacheTTLHours <= 0 {
		errs = append(errs, errors.New("settings.cache_ttl_hours must be > 0"))
	}
	if s.RequestDelaySeconds < 0 {
		errs = append(errs, errors.New("settings.request_delay_seconds must be >= 0"))
	}
	if w := s.Ranking; w.CPP < 0 || w.Savings < 0 || w.Saver < 0 || w.Availability < 0 {
		errs = append(errs, errors.New("settings.ranking weights must be >= 0"))
	}
	switch s.ScanFrequency {
	case ScanHourly, ScanTwiceDaily, ScanDaily:
	default:
		errs = append(errs, fmt.Errorf("settings.scan_frequency %q: want hourly, twice_daily or daily", s.ScanFrequency))
	}

	for i, p := range f.Portfolio {
		if strings.TrimSpace(p.Code) == "" {
			errs = append(errs, fmt.Errorf("portfolio[%d]: code is required", i))
		}
		if p.Balance < 0 {
			errs = append(errs, fmt.Errorf("portfolio[%d] %s: balance must be >= 0", i, p.Code))
		}
	}
	for i, r := range f.Routes {
		if len(strings.TrimSpace(r.Origin)) != 3 {
			errs = append(errs, fmt.Errorf("routes[%d]: origin must be a 3-letter airport", i))
		}
		if strings.TrimSpace(r.Destination) == "" {
			errs = append(errs, fmt.Errorf("routes[%d]: destination is required", i))
		}
	}
	for _, t := range f.Transfers {
		for _, p := range t.Partners {
			if p.Ratio <= 0 {
				errs = append(errs, fmt.Errorf("transfers.%s.%s: ratio must be > 0", t.Source, p.Partner))
			}
		}
	}
	return errors.Join(errs...)
}

// ScheduleSpec maps scan_frequency to a five-field cron expression. Unknown
// values scan daily.
func ScheduleSpec(frequency string) string {
	switch frequency {
	case ScanHourly:
		return "0 * * * *"
	case ScanTwiceDaily:
		return "0 6,18 * * *"
	default:
		return "0 6 * * *"
	}
}
