package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// config is a YAML configuration file, providing defaults for the global flags.
// A flag, which is set explicitly or via environment variable, takes precedence.
type config struct {
	URL      string `yaml:"url" validate:"omitempty,url"`
	Username string `yaml:"username" validate:"required_with=Password"`
	Password string `yaml:"password" validate:"required_with=Username"`
	Timeout  string `yaml:"timeout"`
	Debug    bool   `yaml:"debug"`
	HAL      bool   `yaml:"hal"`
	Output   string `yaml:"output" validate:"omitempty,oneof=table json"`
}

func readConfig(name string) (config, error) {
	var cfg config

	b, err := os.ReadFile(name)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %v", name, err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %v", name, err)
	}

	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return cfg, err
		}

		messages := make([]string, len(validationErrors))
		for i, fieldError := range validationErrors {
			messages[i] = fmt.Sprintf("config %s: %s %s", fieldError.Field(), fieldError.Tag(), fieldError.Param())
		}
		return cfg, fmt.Errorf("invalid config file %s:\n%s", name, strings.TrimSpace(strings.Join(messages, "\n")))
	}

	return cfg, nil
}

// apply sets flags, which are neither changed nor set via environment variable.
func (c config) apply(flags *pflag.FlagSet, fromEnv map[string]bool) error {
	values := map[string]string{
		"url":      c.URL,
		"username": c.Username,
		"password": c.Password,
		"timeout":  c.Timeout,
		"output":   c.Output,
	}
	if c.Debug {
		values["debug"] = strconv.FormatBool(c.Debug)
	}
	if c.HAL {
		values["hal"] = strconv.FormatBool(c.HAL)
	}

	for name, value := range values {
		if value == "" || fromEnv[name] {
			continue
		}

		f := flags.Lookup(name)
		if f == nil || f.Changed {
			continue
		}

		if err := f.Value.Set(value); err != nil {
			return fmt.Errorf("config %s: %v", name, err)
		}
	}

	return nil
}
