package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config controls runtime behavior for the TUI app. Every field can be set
// from the environment; command-line flags are applied on top.
type Config struct {
	LogPath      string        `env:"QUOTEDOJO_LOG"`
	LogLevel     string        `env:"QUOTEDOJO_LOG_LEVEL" envDefault:"info"`
	DataDir      string        `env:"QUOTEDOJO_DATA_DIR"`
	CatalogPath  string        `env:"QUOTEDOJO_CATALOG"`
	Ephemeral    bool          `env:"QUOTEDOJO_EPHEMERAL"`
	ASCIIOnly    bool          `env:"QUOTEDOJO_ASCII"`
	DebugLayout  bool          `env:"QUOTEDOJO_DEBUG_LAYOUT"`
	TickInterval time.Duration `env:"QUOTEDOJO_TICK" envDefault:"1s"`
	UI           UIConfig
}

type UIConfig struct {
	StyleVariant string `env:"QUOTEDOJO_STYLE" envDefault:"dusk"`
	MotionLevel  string `env:"QUOTEDOJO_MOTION" envDefault:"full"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:     "info",
		TickInterval: time.Second,
		UI: UIConfig{
			StyleVariant: "dusk",
			MotionLevel:  "full",
		},
	}
}

// LoadConfig returns the defaults overridden by QUOTEDOJO_* variables.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "":
		c.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	switch c.UI.StyleVariant {
	case "", "dusk", "paper", "phosphor":
	default:
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = "dusk"
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}

	if c.DataDir == "" && !c.Ephemeral {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "quotedojo")
	}
	return nil
}
