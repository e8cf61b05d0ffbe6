package core

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jo-hoe/galleryboard/internal/imageprocessing"
	"github.com/jo-hoe/galleryboard/internal/layout"
)

const (
	defaultPort         = 8080
	defaultBoardWidth   = 800
	defaultBoardHeight  = 600
	defaultBoardGap     = 2
	defaultIdleTimeout  = 30 * time.Minute
	defaultReapSchedule = "@every 1m"
)

// Board is the fixed pixel area the grid is laid out on.
type Board struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Gap    int `yaml:"gap"`
}

type Previews struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type Sessions struct {
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
	ReapSchedule string        `yaml:"reapSchedule"`
}

type ServiceConfig struct {
	Port              int                             `yaml:"port"`
	LogLevel          string                          `yaml:"logLevel"`
	LogFormat         string                          `yaml:"logFormat"`
	MaxImages         int                             `yaml:"maxImages"`
	ThumbnailWidth    int                             `yaml:"thumbnailWidth"`
	Board             Board                           `yaml:"board"`
	Previews          Previews                        `yaml:"previews"`
	Sessions          Sessions                        `yaml:"sessions"`
	ThumbnailCommands []imageprocessing.CommandConfig `yaml:"thumbnailCommands"`
}

// DefaultConfig returns the configuration used when no file overrides a value.
func DefaultConfig() *ServiceConfig {
	config := &ServiceConfig{Board: Board{Gap: defaultBoardGap}}
	config.applyDefaults()
	return config
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// gap is the only field where zero is a meaningful value
	config := ServiceConfig{Board: Board{Gap: defaultBoardGap}}
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateCommands(config.ThumbnailCommands); err != nil {
		return nil, fmt.Errorf("invalid command configuration: %w", err)
	}

	return &config, nil
}

// ApplyEnv overrides the port and log level from PORT and LOG_LEVEL.
func (config *ServiceConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	if value, ok := lookup("PORT"); ok && value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", value, err)
		}
		config.Port = port
	}
	if value, ok := lookup("LOG_LEVEL"); ok && value != "" {
		config.LogLevel = value
	}
	return nil
}

func (config *ServiceConfig) applyDefaults() {
	if config.Port == 0 {
		config.Port = defaultPort
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if config.MaxImages <= 0 {
		config.MaxImages = layout.DefaultMaxCount
	}
	if config.ThumbnailWidth <= 0 {
		config.ThumbnailWidth = imageprocessing.DefaultThumbnailWidth
	}
	if config.Board.Width <= 0 {
		config.Board.Width = defaultBoardWidth
	}
	if config.Board.Height <= 0 {
		config.Board.Height = defaultBoardHeight
	}
	if config.Previews.Type == "" {
		config.Previews.Type = "memory"
	}
	if config.Sessions.IdleTimeout == 0 {
		config.Sessions.IdleTimeout = defaultIdleTimeout
	}
	if config.Sessions.ReapSchedule == "" {
		config.Sessions.ReapSchedule = defaultReapSchedule
	}
}

func (config *ServiceConfig) validate() error {
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d out of range", config.Port)
	}
	if config.Board.Gap < 0 {
		return fmt.Errorf("board.gap must not be negative")
	}
	if config.Sessions.IdleTimeout < 0 {
		return fmt.Errorf("sessions.idleTimeout must not be negative")
	}
	return nil
}

// validateCommands ensures all command configurations have required fields
func validateCommands(commands []imageprocessing.CommandConfig) error {
	seenNames := make(map[string]bool)

	for i, cmd := range commands {
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}

		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate command name: %s", cmd.Name)
		}
		seenNames[cmd.Name] = true
	}

	return nil
}
