// Package config loads the HCL configuration shared by the irchands commands.
package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/allenfrostline/PokerHandsDataset/internal/ircdb"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// DefaultFile is the configuration file read when none is given.
const DefaultFile = "irchands.hcl"

// DefaultGames are the archive game types known to hold hold'em hands.
var DefaultGames = []string{
	"holdem", "holdem1", "holdem2", "holdem3", "holdemii", "holdempot",
	"nolimit", "tourney",
}

// Config represents the complete irchands configuration
type Config struct {
	Input  InputSettings
	Output OutputSettings
	Parse  ParseSettings
	Log    LogSettings
}

// fileConfig is the HCL shape of Config; every block is optional.
type fileConfig struct {
	Input  *InputSettings  `hcl:"input,block"`
	Output *OutputSettings `hcl:"output,block"`
	Parse  *ParseSettings  `hcl:"parse,block"`
	Log    *LogSettings    `hcl:"log,block"`
}

// InputSettings locates the archives and extracted file groups
type InputSettings struct {
	BaseDir    string   `hcl:"base_dir,optional"`
	ExtractDir string   `hcl:"extract_dir,optional"`
	Games      []string `hcl:"games,optional"`
}

// OutputSettings controls the JSON lines outputs
type OutputSettings struct {
	File      string `hcl:"file,optional"`
	CleanFile string `hcl:"clean_file,optional"`
	Truncate  *bool  `hcl:"truncate,optional"`
}

// ParseSettings holds the validity policy knobs
type ParseSettings struct {
	DuplicateIDs       string `hcl:"duplicate_ids,optional"`
	StrictPlayerCount  bool   `hcl:"strict_player_count,optional"`
	RequirePocketCards *bool  `hcl:"require_pocket_cards,optional"`
	NormalizeNames     bool   `hcl:"normalize_names,optional"`
}

// LogSettings selects log verbosity and encoding
type LogSettings struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

func boolPtr(b bool) *bool { return &b }

// Default returns the default configuration
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from an HCL file. A missing file yields defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	var cfg Config
	if fc.Input != nil {
		cfg.Input = *fc.Input
	}
	if fc.Output != nil {
		cfg.Output = *fc.Output
	}
	if fc.Parse != nil {
		cfg.Parse = *fc.Parse
	}
	if fc.Log != nil {
		cfg.Log = *fc.Log
	}

	// Apply defaults for missing values
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Input.BaseDir == "" {
		c.Input.BaseDir = "."
	}
	if c.Input.ExtractDir == "" {
		c.Input.ExtractDir = c.Input.BaseDir
	}
	if len(c.Input.Games) == 0 {
		c.Input.Games = slices.Clone(DefaultGames)
	}
	if c.Output.File == "" {
		c.Output.File = "hands.json"
	}
	if c.Output.CleanFile == "" {
		c.Output.CleanFile = "hands_valid.json"
	}
	if c.Output.Truncate == nil {
		c.Output.Truncate = boolPtr(true)
	}
	if c.Parse.DuplicateIDs == "" {
		c.Parse.DuplicateIDs = string(ircdb.DuplicateOverwrite)
	}
	if c.Parse.RequirePocketCards == nil {
		c.Parse.RequirePocketCards = boolPtr(true)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch ircdb.DuplicatePolicy(c.Parse.DuplicateIDs) {
	case ircdb.DuplicateOverwrite, ircdb.DuplicateInvalidate:
	default:
		return fmt.Errorf("invalid duplicate_ids policy: %s", c.Parse.DuplicateIDs)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	if c.Output.File == c.Output.CleanFile {
		return fmt.Errorf("output file and clean file must differ: %s", c.Output.File)
	}
	return nil
}

// ParseOptions converts the parse block into assembly options
func (c *Config) ParseOptions() ircdb.Options {
	return ircdb.Options{
		DuplicateIDs:       ircdb.DuplicatePolicy(c.Parse.DuplicateIDs),
		StrictPlayerCount:  c.Parse.StrictPlayerCount,
		RequirePocketCards: c.Parse.RequirePocketCards == nil || *c.Parse.RequirePocketCards,
		NormalizeNames:     c.Parse.NormalizeNames,
	}
}

// AllowsGame reports whether an archive game type is on the allowlist
func (c *Config) AllowsGame(game string) bool {
	return slices.Contains(c.Input.Games, game)
}

// ShouldTruncate reports whether the parse output is reset before a run
func (c *Config) ShouldTruncate() bool {
	return c.Output.Truncate == nil || *c.Output.Truncate
}
