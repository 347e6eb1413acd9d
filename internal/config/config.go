// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	sdkmath "cosmossdk.io/math"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/blinklabs-io/stakegov/database/plugin"
	"github.com/blinklabs-io/stakegov/governance"
)

type ctxKey string

const configContextKey ctxKey = "stakegov.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
	DefaultDataDir        = ".stakegov"

	envPrefix = "stakegov"
)

// ErrPluginListRequested is returned when the user requests to list available plugins
// This is not an error condition but a successful operation that displays plugin information
var ErrPluginListRequested = errors.New("plugin list requested")

type tempConfig struct {
	Config   yaml.Node       `yaml:"config,omitempty"`
	Database *databaseConfig `yaml:"database,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// GovernanceConfig holds the parameters and feature flags used when the
// governance store is initialized
type GovernanceConfig struct {
	MinVotingThreshold    string `yaml:"minVotingThreshold"    split_words:"true"`
	RequiredProposerStake uint64 `yaml:"requiredProposerStake" split_words:"true"`
	VotingDurationSecs    uint64 `yaml:"votingDurationSecs"    split_words:"true"`
	PartialVoting         bool   `yaml:"partialVoting"         split_words:"true"`
	ModuleEvents          bool   `yaml:"moduleEvents"          split_words:"true"`
}

type Config struct {
	DataDir        string           `yaml:"dataDir"        split_words:"true"`
	BlobPlugin     string           `yaml:"blobPlugin"     envconfig:"DATABASE_BLOB_PLUGIN"`
	MetadataPlugin string           `yaml:"metadataPlugin" envconfig:"DATABASE_METADATA_PLUGIN"`
	Debug          bool             `yaml:"debug"`
	Tracing        bool             `yaml:"tracing"`
	TracingStdout  bool             `yaml:"tracingStdout"  split_words:"true"`
	Governance     GovernanceConfig `yaml:"governance"`
}

// DefaultConfig returns the configuration used when no file or environment
// overrides are present
func DefaultConfig() *Config {
	return &Config{
		DataDir:        DefaultDataDir,
		BlobPlugin:     DefaultBlobPlugin,
		MetadataPlugin: DefaultMetadataPlugin,
		Governance: GovernanceConfig{
			MinVotingThreshold:    "0",
			RequiredProposerStake: 0,
			// 7 days
			VotingDurationSecs: 7 * 24 * 60 * 60,
		},
	}
}

// Params converts the configured governance parameters
func (g GovernanceConfig) Params() (governance.Params, error) {
	threshold, err := sdkmath.ParseUint(g.MinVotingThreshold)
	if err != nil {
		return governance.Params{}, fmt.Errorf(
			"invalid minVotingThreshold %q: %w",
			g.MinVotingThreshold,
			err,
		)
	}
	return governance.Params{
		MinVotingThreshold:    threshold,
		RequiredProposerStake: g.RequiredProposerStake,
		VotingDurationSecs:    g.VotingDurationSecs,
	}, nil
}

// Features returns the configured governance feature flags
func (g GovernanceConfig) Features() governance.Features {
	return governance.Features{
		PartialVoting: g.PartialVoting,
		ModuleEvents:  g.ModuleEvents,
	}
}

// ListPlugins writes the available plugins to w and returns
// ErrPluginListRequested if either plugin name is "list"
func (c *Config) ListPlugins(w io.Writer) error {
	var pluginType plugin.PluginType
	switch {
	case c.BlobPlugin == "list":
		pluginType = plugin.PluginTypeBlob
	case c.MetadataPlugin == "list":
		pluginType = plugin.PluginTypeMetadata
	default:
		return nil
	}
	fmt.Fprintf(w, "Available %s plugins:\n", plugin.PluginTypeName(pluginType))
	for _, p := range plugin.GetPlugins(pluginType) {
		fmt.Fprintf(w, "  %s: %s\n", p.Name, p.Description)
	}
	return ErrPluginListRequested
}

// findConfigFile returns the first config file found in the default locations
func findConfigFile() string {
	// Check for config file in this path: ~/.stakegov/stakegov.yaml
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".stakegov", "stakegov.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/stakegov/stakegov.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

// LoadConfig builds the configuration from defaults, the YAML config file and
// the environment, in that order. Plugin options in the file's database
// section are applied to the plugin registry.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := cfg.loadYaml(buf); err != nil {
			return nil, err
		}
	}
	// Process environment variables
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if _, err := cfg.Governance.Params(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYaml(buf []byte) error {
	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if !tempCfg.Config.IsZero() {
		// Overlay config values onto existing defaults
		if err := tempCfg.Config.Decode(c); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else {
		// Otherwise unmarshal the whole file as main config
		if err := yaml.Unmarshal(buf, c); err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if tempCfg.Database == nil {
		return nil
	}
	if err := applyPluginSection(
		plugin.PluginTypeBlob,
		tempCfg.Database.Blob,
		&c.BlobPlugin,
	); err != nil {
		return err
	}
	return applyPluginSection(
		plugin.PluginTypeMetadata,
		tempCfg.Database.Metadata,
		&c.MetadataPlugin,
	)
}

// applyPluginSection handles a database section of the form
//
//	plugin: <name>
//	<name>:
//	  <option>: <value>
//
// setting the selected plugin name and each plugin option
func applyPluginSection(
	pluginType plugin.PluginType,
	section map[string]any,
	pluginName *string,
) error {
	if section == nil {
		return nil
	}
	if pluginVal, ok := section["plugin"]; ok {
		name, ok := pluginVal.(string)
		if !ok {
			return fmt.Errorf(
				"%s plugin name must be a string, got %T",
				plugin.PluginTypeName(pluginType),
				pluginVal,
			)
		}
		*pluginName = name
	}
	for name, val := range section {
		if name == "plugin" {
			continue
		}
		opts, ok := val.(map[string]any)
		if !ok {
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				plugin.PluginTypeName(pluginType),
				name,
				val,
			)
			continue
		}
		for optName, optVal := range opts {
			if err := plugin.SetPluginOption(
				pluginType,
				name,
				optName,
				optVal,
			); err != nil {
				return fmt.Errorf("error processing plugin config: %w", err)
			}
		}
	}
	return nil
}
