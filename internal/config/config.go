package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "todo.db"
	EnvConfigPath         = "TODO_CONFIG"

	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// Keymap binds actions to key names such as "ctrl+r", "enter" or "+".
type Keymap struct {
	Quit         []string `toml:"quit"`
	Confirm      []string `toml:"confirm"`
	Cancel       []string `toml:"cancel"`
	Add          []string `toml:"add"`
	Archive      []string `toml:"archive"`
	Done         []string `toml:"done"`
	PriorityUp   []string `toml:"priority_up"`
	PriorityDown []string `toml:"priority_down"`
	Save         []string `toml:"save"`
	FocusSearch  []string `toml:"focus_search"`
	Help         []string `toml:"help"`
	NextField    []string `toml:"next_field"`
	PrevField    []string `toml:"prev_field"`
}

func (k Keymap) Validate() error {
	return validation.ValidateStruct(&k,
		validation.Field(&k.Quit, validation.Required),
		validation.Field(&k.Confirm, validation.Required),
		validation.Field(&k.Cancel, validation.Required),
		validation.Field(&k.Add, validation.Required),
		validation.Field(&k.Archive, validation.Required),
		validation.Field(&k.Done, validation.Required),
		validation.Field(&k.PriorityUp, validation.Required),
		validation.Field(&k.PriorityDown, validation.Required),
		validation.Field(&k.Save, validation.Required),
		validation.Field(&k.FocusSearch, validation.Required),
		validation.Field(&k.Help, validation.Required),
		validation.Field(&k.NextField, validation.Required),
		validation.Field(&k.PrevField, validation.Required),
	)
}

type Overview struct {
	PrioritySize  int `toml:"priority_size"`
	DiscoverySize int `toml:"discovery_size"`
}

func (o Overview) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.PrioritySize, validation.Min(0), validation.Max(50)),
		validation.Field(&o.DiscoverySize, validation.Min(0), validation.Max(50)),
	)
}

// Theme holds hex colours. Defaults follow the Apollo palette.
type Theme struct {
	Primary  string `toml:"primary"`
	Accent   string `toml:"accent"`
	Text     string `toml:"text"`
	Muted    string `toml:"muted"`
	Disabled string `toml:"disabled"`
	Selected string `toml:"selected"`
	Warning  string `toml:"warning"`
	Error    string `toml:"error"`

	PriorityUrgent   string `toml:"priority_urgent"`
	PriorityHigh     string `toml:"priority_high"`
	PriorityMedium   string `toml:"priority_medium"`
	PriorityLow      string `toml:"priority_low"`
	PriorityWishlist string `toml:"priority_wishlist"`

	StatusTodo       string `toml:"status_todo"`
	StatusInProgress string `toml:"status_in_progress"`
	StatusDone       string `toml:"status_done"`
	StatusArchived   string `toml:"status_archived"`
}

type Config struct {
	// TodoPath overrides todo file discovery when set.
	TodoPath string   `toml:"todo_path"`
	Backend  string   `toml:"backend"`
	DBPath   string   `toml:"db_path"`
	Autosave bool     `toml:"autosave"`
	LogLevel string   `toml:"log_level"`
	LogFile  string   `toml:"log_file"`
	Overview Overview `toml:"overview"`
	Keys     Keymap   `toml:"keys"`
	Theme    Theme    `toml:"theme"`
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendYAML, BackendSQLite)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Overview),
		validation.Field(&c.Keys),
	)
}

// SlogLevel maps LogLevel onto slog, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ResolveConfigPath picks $TODO_CONFIG, then the user config directory,
// then config.toml in the working directory.
func ResolveConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "todo", DefaultConfigFileName)
	}
	return DefaultConfigFileName
}

// LoadOrCreate reads the config at path, writing the defaults there first
// when the file does not exist yet.
func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendYAML
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Default() Config {
	return Config{
		Backend:  BackendYAML,
		Autosave: true,
		LogLevel: "info",
		Overview: Overview{
			PrioritySize:  4,
			DiscoverySize: 3,
		},
		Keys: Keymap{
			Quit:         []string{"esc", "ctrl+x"},
			Confirm:      []string{"enter"},
			Cancel:       []string{"esc"},
			Add:          []string{"ctrl+a"},
			Archive:      []string{"ctrl+r"},
			Done:         []string{"ctrl+d"},
			PriorityUp:   []string{"+", "="},
			PriorityDown: []string{"-"},
			Save:         []string{"ctrl+s"},
			FocusSearch:  []string{"/"},
			Help:         []string{"f1"},
			NextField:    []string{"tab"},
			PrevField:    []string{"shift+tab"},
		},
		Theme: Theme{
			Primary:  "#4f8fba",
			Accent:   "#e8c170",
			Text:     "#e7d5b3",
			Muted:    "#8b9bb4",
			Disabled: "#5a6988",
			Selected: "#3a4466",
			Warning:  "#de9e41",
			Error:    "#a22c40",

			PriorityUrgent:   "#eca8b0",
			PriorityHigh:     "#de7277",
			PriorityMedium:   "#e8c170",
			PriorityLow:      "#75a743",
			PriorityWishlist: "#73bed3",

			StatusTodo:       "#e7d5b3",
			StatusInProgress: "#4f8fba",
			StatusDone:       "#468232",
			StatusArchived:   "#8b9bb4",
		},
	}
}
