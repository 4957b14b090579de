package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultConfigFile = "config.ini"
	envPrefix         = "MAGICGEN"
	section           = "default"
)

// Config holds the defaults the CLI and API start from. Values come from the
// [DEFAULT] section of config.ini, overridden by MAGICGEN_<KEY> env vars.
type Config struct {
	Output    string
	Count     int
	Filename  string
	Affix     string
	Lines     int
	Processes int
	LogLevel  string
	RunsDB    string
	BindAddr  string
}

var defaults = map[string]any{
	"output":    ".",
	"count":     1,
	"filename":  "output",
	"affix":     "count",
	"lines":     1000,
	"processes": 1,
	"log":       "INFO",
	"runs_db":   "",
	"bind_addr": ":8080",
}

// Load reads the config file named by MAGICGEN_CONFIG, or config.ini in the
// working directory. A missing file is not an error.
func Load() (*Config, error) {
	return LoadFile(getEnv(envPrefix+"_CONFIG", DefaultConfigFile))
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("ini")

	for key, val := range defaults {
		v.SetDefault(section+"."+key, val)
		if err := v.BindEnv(section+"."+key, envPrefix+"_"+strings.ToUpper(key)); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	return &Config{
		Output:    v.GetString(section + ".output"),
		Count:     v.GetInt(section + ".count"),
		Filename:  v.GetString(section + ".filename"),
		Affix:     v.GetString(section + ".affix"),
		Lines:     v.GetInt(section + ".lines"),
		Processes: v.GetInt(section + ".processes"),
		LogLevel:  v.GetString(section + ".log"),
		RunsDB:    v.GetString(section + ".runs_db"),
		BindAddr:  v.GetString(section + ".bind_addr"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
