// Package config holds the category/sheet configuration. Adding a category
// means adding a rule here (or in an override file), not branching code.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"skusheet/internal/category"
)

//go:embed categories.yaml
var defaultYAML []byte

// Config is the engine configuration: the ordered category table.
type Config struct {
	Categories []category.Rule `yaml:"categories"`
}

// Default returns the built-in category table (FSV and SF_PUCK).
func Default() Config {
	cfg, err := parse(defaultYAML)
	if err != nil {
		// The embedded default is part of the build; a parse failure here
		// is a programming error.
		panic(fmt.Sprintf("config: embedded categories: %v", err))
	}
	return cfg
}

// Load reads a category table from a yaml file. An empty path yields the
// built-in default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	for _, rule := range cfg.Categories {
		if rule.Name == "" {
			return Config{}, fmt.Errorf("category with empty name")
		}
		if len(rule.Match) == 0 {
			return Config{}, fmt.Errorf("category %s has no match patterns", rule.Name)
		}
	}
	return cfg, nil
}
