package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// RotaOverride customises the shifts matched by its recurrence rule
type RotaOverride struct {
	// RRule selects shift dates, e.g. "FREQ=MONTHLY;BYDAY=1SU"
	RRule string `yaml:"rrule" validate:"required"`

	// ShiftSize replaces the default shift size for matched shifts
	ShiftSize *int `yaml:"shiftSize,omitempty" validate:"omitempty,min=0"`

	// CustomPreallocations are display-only entries that occupy slots on
	// matched shifts without being roster volunteers
	CustomPreallocations []string `yaml:"customPreallocations,omitempty"`

	// PreallocatedVolunteerIDs force roster volunteers onto matched shifts
	PreallocatedVolunteerIDs []string `yaml:"preallocatedVolunteerIds,omitempty"`

	// PreallocatedTeamLeadID forces a team lead onto matched shifts
	PreallocatedTeamLeadID string `yaml:"preallocatedTeamLeadId,omitempty"`

	// Closed excludes matched shifts from allocation
	Closed bool `yaml:"closed,omitempty"`
}

// Config is the application configuration
type Config struct {
	DatabaseURL            string         `yaml:"databaseURL" validate:"required"`
	DefaultShiftSize       int            `yaml:"defaultShiftSize" validate:"min=0"`
	MaxAllocationFrequency float64        `yaml:"maxAllocationFrequency" validate:"gt=0,lte=1"`
	RotaOverrides          []RotaOverride `yaml:"rotaOverrides,omitempty" validate:"dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads and validates the configuration for the given
// environment, e.g. "prod" reads rota_config.prod.yaml. The file is
// looked up in the current directory first, then the home directory.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct constraints and the rrule syntax of every
// override
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, override := range cfg.RotaOverrides {
		if _, err := rrule.StrToRRule(override.RRule); err != nil {
			return fmt.Errorf("invalid rrule in rotaOverrides[%d]: %w", i, err)
		}
	}

	return nil
}

// findConfigFile searches for the environment's config file in the
// current directory and the home directory
func findConfigFile(env string) (string, error) {
	configFileName := fmt.Sprintf("rota_config.%s.yaml", env)

	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", configFileName)
}
