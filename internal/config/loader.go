package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "SAVRA_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SAVRA_CONFIG is set
//  3. env (prefix SAVRA_), after loading a .env file if present
func Load(_ context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// SAVRA_QUEUE_SIZE -> queue_size. Underscores are kept to match koanf tags.
	envProvider := env.ProviderWithValue(envPrefix, ".", envValue)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// listKeys are comma-separated when set from the environment.
var listKeys = map[string]bool{"assessment_kinds": true}

// envValue maps SAVRA_ASSESSMENT_KINDS=quiz,question_paper to
// assessment_kinds: [quiz question_paper].
func envValue(name, value string) (string, any) {
	key := strings.TrimPrefix(strings.ToLower(name), strings.ToLower(envPrefix))
	if !listKeys[key] {
		return key, value
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return key, out
}

// loadDotEnv reads SAVRA_ENV_FILE (default .env) without overriding the
// environment. A missing default file is not an error.
func loadDotEnv() error {
	path, explicit := os.LookupEnv(envPrefix + "ENV_FILE")
	if path == "" {
		path, explicit = ".env", false
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("%w: env file %s: %w", ErrLoadConfig, path, err)
}
