package am

import (
	"os"
	"sort"
	"strings"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/pantry/pantry.toml
	SourceUser        ConfigSource = "user"        // ~/.pantry/pantry.toml
	SourceProject     ConfigSource = "project"     // nearest pantry.toml
	SourceEnvironment ConfigSource = "environment" // PANTRY_* env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // File path or environment variable name
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key" yaml:"key"`
	Value      interface{}  `json:"value" yaml:"value"`
	Source     ConfigSource `json:"source" yaml:"source"`
	SourcePath string       `json:"source_path,omitempty" yaml:"source_path,omitempty"`
}

// ConfigIntrospection provides metadata about the active configuration
type ConfigIntrospection struct {
	ConfigFile string        `json:"config_file" yaml:"config_file"`
	Settings   []SettingInfo `json:"settings" yaml:"settings"`
}

// Introspect returns every effective setting with the source that supplied it
func Introspect() *ConfigIntrospection {
	loadMu.Lock()
	defer loadMu.Unlock()

	v := initViperLocked()
	keys := v.AllKeys()
	sort.Strings(keys)

	out := &ConfigIntrospection{
		ConfigFile: configFileUsed,
		Settings:   make([]SettingInfo, 0, len(keys)),
	}
	for _, key := range keys {
		info := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := ConfigSources[key]; ok {
			info = si
		}
		if envKey, ok := envOverride(key); ok {
			info = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}
		out.Settings = append(out.Settings, SettingInfo{
			Key:        key,
			Value:      v.Get(key),
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
	return out
}

// envOverride reports the environment variable overriding key, if any
func envOverride(key string) (string, bool) {
	names := []string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
	switch key {
	case "database.path":
		names = append(names, "PANTRY_DB")
	case "executor.floor_policy":
		names = append(names, "PANTRY_FLOOR_POLICY")
	}
	for _, name := range names {
		if _, ok := os.LookupEnv(name); ok {
			return name, true
		}
	}
	return "", false
}

// CountBySource returns how many settings each source supplied
func (ci *ConfigIntrospection) CountBySource() map[ConfigSource]int {
	counts := make(map[ConfigSource]int)
	for _, s := range ci.Settings {
		counts[s.Source]++
	}
	return counts
}
