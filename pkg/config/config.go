// Package config holds the settings of a database instance and loads them
// from HCL files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"heapstore/pkg/logging"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/types"

	"github.com/hashicorp/hcl"
)

const (
	DefaultDataDir     = "data"
	DefaultBufferPages = 50
	DefaultLockTimeout = 500 * time.Millisecond
	DefaultCatalogFile = "catalog.hcl"
)

// Config describes one database instance. The page size is fixed for the
// lifetime of the instance; every table file it opens uses it.
type Config struct {
	DataDir     string
	PageSize    int
	BufferPages int
	LockTimeout time.Duration
	CatalogFile string
	LogLevel    string
	LogFile     string
	LogFormat   string
}

// fileConfig mirrors the keys accepted in a config file.
type fileConfig struct {
	DataDir     string `hcl:"data_dir"`
	PageSize    int    `hcl:"page_size"`
	BufferPages int    `hcl:"buffer_pages"`
	LockTimeout string `hcl:"lock_timeout"`
	CatalogFile string `hcl:"catalog_file"`
	LogLevel    string `hcl:"log_level"`
	LogFile     string `hcl:"log_file"`
	LogFormat   string `hcl:"log_format"`
}

var knownKeys = map[string]struct{}{
	"data_dir": {}, "page_size": {}, "buffer_pages": {}, "lock_timeout": {},
	"catalog_file": {}, "log_level": {}, "log_file": {}, "log_format": {},
}

func Default() *Config {
	return &Config{
		DataDir:     DefaultDataDir,
		PageSize:    page.DefaultPageSize,
		BufferPages: DefaultBufferPages,
		LockTimeout: DefaultLockTimeout,
		CatalogFile: DefaultCatalogFile,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Load reads the HCL file at path over the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes HCL text over the defaults and validates the result.
func Parse(text string) (*Config, error) {
	cfg := Default()
	if err := cfg.apply(text); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) apply(text string) error {
	var raw map[string]interface{}
	if err := hcl.Decode(&raw, text); err != nil {
		return err
	}
	for name := range raw {
		if _, ok := knownKeys[name]; !ok {
			return fmt.Errorf("%s is not a config variable", name)
		}
	}

	var fc fileConfig
	if err := hcl.Decode(&fc, text); err != nil {
		return err
	}

	if fc.DataDir != "" {
		c.DataDir = fc.DataDir
	}
	if _, ok := raw["page_size"]; ok {
		c.PageSize = fc.PageSize
	}
	if _, ok := raw["buffer_pages"]; ok {
		c.BufferPages = fc.BufferPages
	}
	if fc.LockTimeout != "" {
		d, err := time.ParseDuration(fc.LockTimeout)
		if err != nil {
			return fmt.Errorf("lock_timeout: %w", err)
		}
		c.LockTimeout = d
	}
	if fc.CatalogFile != "" {
		c.CatalogFile = fc.CatalogFile
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.LogFile != "" {
		c.LogFile = fc.LogFile
	}
	if fc.LogFormat != "" {
		c.LogFormat = fc.LogFormat
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	// one header byte plus one slot of the narrowest field type
	if minPage := 1 + int(types.IntType.Size()); c.PageSize < minPage {
		return fmt.Errorf("page_size %d is below the minimum of %d bytes", c.PageSize, minPage)
	}
	if c.BufferPages <= 0 {
		return fmt.Errorf("buffer_pages must be positive, got %d", c.BufferPages)
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("lock_timeout must be positive, got %s", c.LockTimeout)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// CatalogPath returns the schema file location, resolved against DataDir
// when relative.
func (c *Config) CatalogPath() string {
	return c.resolve(c.CatalogFile)
}

// TablePath resolves a table file name against DataDir when relative.
func (c *Config) TablePath(file string) string {
	return c.resolve(file)
}

func (c *Config) resolve(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.DataDir, file)
}

// LoggingConfig converts the log settings for logging.Init.
func (c *Config) LoggingConfig() logging.Config {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.Config{
		Level:      level,
		OutputPath: c.LogFile,
		Format:     c.LogFormat,
	}
}
