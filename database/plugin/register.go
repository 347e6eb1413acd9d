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

package plugin

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
)

type PluginType int

const (
	PluginTypeBlob PluginType = iota + 1
	PluginTypeMetadata
)

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota + 1
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

// PluginOption describes a configurable option for a plugin. Dest must be a
// pointer matching Type.
type PluginOption struct {
	Name         string
	Type         PluginOptionType
	Description  string
	DefaultValue any
	Dest         any
}

// PluginDeps carries the shared dependencies handed to a plugin when it is
// created. Nil fields fall back to plugin defaults.
type PluginDeps struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

type PluginEntry struct {
	Type               PluginType
	Name               string
	Description        string
	NewFromOptionsFunc func(PluginDeps) Plugin
	Options            []PluginOption
}

var (
	pluginEntries      []PluginEntry
	pluginEntriesMutex sync.RWMutex
)

// Register adds a plugin entry to the registry. It's meant to be called from
// the init() function of each plugin package.
func Register(pluginEntry PluginEntry) {
	pluginEntriesMutex.Lock()
	defer pluginEntriesMutex.Unlock()
	pluginEntries = append(pluginEntries, pluginEntry)
}

// GetPlugins returns all registered plugin entries of the given type
func GetPlugins(pluginType PluginType) []PluginEntry {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	ret := []PluginEntry{}
	for _, p := range pluginEntries {
		if p.Type == pluginType {
			ret = append(ret, p)
		}
	}
	return ret
}

// GetPlugin returns a new instance of the named plugin with default
// dependencies, or nil if it isn't registered
func GetPlugin(pluginType PluginType, pluginName string) Plugin {
	return NewPlugin(pluginType, pluginName, PluginDeps{})
}

// NewPlugin returns a new instance of the named plugin, or nil if it isn't
// registered
func NewPlugin(
	pluginType PluginType,
	pluginName string,
	deps PluginDeps,
) Plugin {
	pluginEntriesMutex.RLock()
	var newFunc func(PluginDeps) Plugin
	for _, p := range pluginEntries {
		if p.Type == pluginType && p.Name == pluginName {
			newFunc = p.NewFromOptionsFunc
			break
		}
	}
	pluginEntriesMutex.RUnlock()
	if newFunc == nil {
		return nil
	}
	return newFunc(deps)
}

// PopulateCmdlineOptions adds a flag for every registered plugin option. Flags
// are named <type>-<plugin>-<option>, e.g. blob-badger-data-dir.
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for _, p := range pluginEntries {
		for _, opt := range p.Options {
			flagName := fmt.Sprintf(
				"%s-%s-%s",
				PluginTypeName(p.Type),
				p.Name,
				opt.Name,
			)
			if err := addFlag(fs, flagName, opt); err != nil {
				return fmt.Errorf(
					"%s plugin '%s': %w",
					PluginTypeName(p.Type),
					p.Name,
					err,
				)
			}
		}
	}
	return nil
}

func addFlag(fs *pflag.FlagSet, flagName string, opt PluginOption) error {
	switch opt.Type {
	case PluginOptionTypeString:
		dest, ok := opt.Dest.(*string)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s", opt.Name)
		}
		def, _ := opt.DefaultValue.(string)
		fs.StringVar(dest, flagName, def, opt.Description)
	case PluginOptionTypeBool:
		dest, ok := opt.Dest.(*bool)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s", opt.Name)
		}
		def, _ := opt.DefaultValue.(bool)
		fs.BoolVar(dest, flagName, def, opt.Description)
	case PluginOptionTypeInt:
		dest, ok := opt.Dest.(*int)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s", opt.Name)
		}
		def, _ := opt.DefaultValue.(int)
		fs.IntVar(dest, flagName, def, opt.Description)
	case PluginOptionTypeUint:
		dest, ok := opt.Dest.(*uint64)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s", opt.Name)
		}
		def, _ := opt.DefaultValue.(uint64)
		fs.Uint64Var(dest, flagName, def, opt.Description)
	default:
		return fmt.Errorf(
			"unknown plugin option type %d for option %s",
			opt.Type,
			opt.Name,
		)
	}
	return nil
}
