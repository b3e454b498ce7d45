package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when --config
// is not given.
const DefaultConfigFile = "elems.yaml"

// Config is the optional CLI configuration file.
type Config struct {
	// SearchPath lists package roots, earliest first. Roots given on the
	// command line come before these.
	SearchPath []string `yaml:"search_path"`

	// IndexDB is the package index database path used by index/packages.
	IndexDB string `yaml:"index_db"`
}

// LoadConfig reads the configuration file. An explicitly named file must
// exist; the default file is optional and its absence yields an empty
// config.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// searchPath merges command line roots with config roots, command line
// first.
func searchPath(flagRoots []string, cfg *Config) []string {
	return append(append([]string(nil), flagRoots...), cfg.SearchPath...)
}
