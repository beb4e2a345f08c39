package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the configuration from path on top of the defaults, applies
// CMCTS_* environment overrides and validates the result. An empty path
// skips the file.
func Load(path string) (File, error) {
	config := Default()

	if path != "" {
		if err := loadFile(path, &config); err != nil {
			return config, fmt.Errorf("load config file: %w", err)
		}
	}

	loadEnv(&config)

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func loadFile(path string, config *File) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if jsonErr := json.Unmarshal(data, config); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadEnv(config *File) {
	if v := os.Getenv("CMCTS_DEPTH"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Search.Depth = i
		}
	}
	if v := os.Getenv("CMCTS_ITERATIONS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Search.Iterations = i
		}
	}
	if v := os.Getenv("CMCTS_MAX_TIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Search.MaxTime = d
		}
	}
	if v := os.Getenv("CMCTS_EXPLORATION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Search.Exploration = f
		}
	}
	if v := os.Getenv("CMCTS_SEED"); v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Search.Seed = u
		}
	}
	if v := os.Getenv("CMCTS_KEEP_TREE"); v != "" {
		config.Search.KeepTree = v == "true" || v == "1"
	}
	if v := os.Getenv("CMCTS_NU"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Constraints.Nu = f
		}
	}
	if v := os.Getenv("CMCTS_SCHEDULE"); v != "" {
		config.Constraints.Schedule = v
	}
	if v := os.Getenv("CMCTS_PROBLEM"); v != "" {
		config.Run.Problem = v
	}
	if v := os.Getenv("CMCTS_EPISODES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Run.Episodes = i
		}
	}
	if v := os.Getenv("CMCTS_METRICS_ADDR"); v != "" {
		config.Diagnostics.MetricsAddr = v
	}
	if v := os.Getenv("CMCTS_LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
}
