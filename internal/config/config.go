package config

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Model struct {
		Path         string `yaml:"path"`
		MetadataPath string `yaml:"metadata_path"`
	} `yaml:"model"`
	Dataset struct {
		Dir   string `yaml:"dir"`
		Limit int    `yaml:"limit"`
	} `yaml:"dataset"`
	Gallery struct {
		Output   string `yaml:"output"`
		Start    int    `yaml:"start"`
		Overview bool   `yaml:"overview"`
	} `yaml:"gallery"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Development bool `yaml:"development"`
	} `yaml:"log"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.Model.Path = "models/model_embedded.onnx"
	cfg.Model.MetadataPath = "models/model_metadata.json"
	cfg.Dataset.Dir = "data/test"
	cfg.Gallery.Output = "gallery.png"
	cfg.Server.Port = "8080"
	cfg.Log.Development = true
	return cfg
}

// LoadConfig reads configuration from the specified YAML file on top of the
// defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return config, nil
}

// Binary selects which command-line flags Parse registers.
type Binary int

const (
	Server Binary = iota
	Gallery
)

// Parse loads the file named by -config (if any) and applies the remaining
// flags on top of it. Only the flags meaningful to b are registered. A PORT
// environment variable overrides the server port.
func Parse(fs *flag.FlagSet, args []string, b Binary) (*Config, error) {
	apply := make(map[string]func(*Config))
	str := func(name, usage string, set func(*Config, string)) {
		v := fs.String(name, "", usage)
		apply[name] = func(c *Config) { set(c, *v) }
	}
	num := func(name, usage string, set func(*Config, int)) {
		v := fs.Int(name, 0, usage)
		apply[name] = func(c *Config) { set(c, *v) }
	}

	configPath := fs.String("config", "", "path to YAML config file")
	str("model", "ONNX model file", func(c *Config, v string) { c.Model.Path = v })
	str("metadata", "model metadata JSON file", func(c *Config, v string) { c.Model.MetadataPath = v })

	switch b {
	case Server:
		str("port", "HTTP port", func(c *Config, v string) { c.Server.Port = v })
	case Gallery:
		str("dataset", "dataset directory laid out as <class>/<image>", func(c *Config, v string) { c.Dataset.Dir = v })
		num("limit", "maximum number of samples to load", func(c *Config, v int) { c.Dataset.Limit = v })
		str("out", "output file (.png or .pdf)", func(c *Config, v string) { c.Gallery.Output = v })
		num("start", "index of the first sample to display", func(c *Config, v int) { c.Gallery.Start = v })
		overview := fs.Bool("overview", false, "draw Actual/Pred/Index captions instead of verdict titles")
		apply["overview"] = func(c *Config) { c.Gallery.Overview = *overview }
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	if *configPath != "" {
		var err error
		if cfg, err = LoadConfig(*configPath); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		if set, ok := apply[f.Name]; ok {
			set(cfg)
		}
	})

	if b == Server {
		if port := os.Getenv("PORT"); port != "" {
			cfg.Server.Port = port
		}
	}
	return cfg, nil
}

// NewLogger builds the zap logger selected by the log section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	if c.Log.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
