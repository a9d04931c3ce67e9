// Package config loads the Memory Core's layered configuration via
// viper, following the same project→user→home precedence and
// SetEnvKeyReplacer idiom as the teacher's config.Initialize(), generalized
// from the issue-tracker's flag surface to the options enumerated in
// spec.md §6.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/aeonmind/mcore/internal/retention"
)

var v *viper.Viper

// Backend selects the active storage engine (spec §6 backend: {sqlite, markdown}).
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendMarkdown Backend = "markdown"
)

// candidateDirs returns the three precedence tiers the teacher's
// config.Initialize() walks: project (walking up from cwd), user config
// dir, then home dir.
func candidateDirs() []string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			dirs = append(dirs, filepath.Join(dir, ".mcore"))
		}
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(configDir, "mcore"))
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(homeDir, ".mcore"))
	}
	return dirs
}

// Initialize sets up the viper configuration singleton. Should be called
// once at application startup, mirroring the teacher's config.Initialize().
// Each candidate directory is checked for config.yaml first, then
// config.toml, for operators who prefer TOML (the teacher ships both).
func Initialize() error {
	v = viper.New()
	v.SetEnvPrefix("MCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	for _, dir := range candidateDirs() {
		yamlPath := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			return mergeYAMLFile(v, yamlPath)
		}
		tomlPath := filepath.Join(dir, "config.toml")
		if _, err := os.Stat(tomlPath); err == nil {
			return mergeTOMLFile(v, tomlPath)
		}
	}
	return nil
}

// mergeYAMLFile decodes a YAML config file via yaml.v3 and merges it into v
// as a config map (rather than v.SetConfigFile+ReadInConfig, so this
// package exercises yaml.v3 directly instead of only through viper's
// internal decoder).
func mergeYAMLFile(v *viper.Viper, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("parse yaml config %s: %w", path, err)
	}
	return v.MergeConfigMap(m)
}

// mergeTOMLFile decodes a TOML config file via BurntSushi/toml and merges
// it into v.
func mergeTOMLFile(v *viper.Viper, path string) error {
	var m map[string]any
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return fmt.Errorf("parse toml config %s: %w", path, err)
	}
	return v.MergeConfigMap(m)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", string(BackendSQLite))
	v.SetDefault("hygiene_enabled", true)
	v.SetDefault("archive_after_days", 90)
	v.SetDefault("purge_after_days", 365)

	v.SetDefault("layer_retention_working_days", 7)
	v.SetDefault("layer_retention_episodic_days", 90)
	v.SetDefault("layer_retention_semantic_days", 0)
	v.SetDefault("layer_retention_procedural_days", 0)
	v.SetDefault("layer_retention_identity_days", 0)
	v.SetDefault("layer_retention_default_days", 0)

	v.SetDefault("embedding_provider", "anthropic")
	v.SetDefault("embedding_model", "voyage-3")
	v.SetDefault("embedding_dimensions", 1024)

	v.SetDefault("vector_weight", 0.35)
	v.SetDefault("keyword_weight", 0.25)
	v.SetDefault("fusion_mode", "weighted")

	v.SetDefault("embedding_cache_size", 4096)
	v.SetDefault("chunk_max_tokens", 512)
	v.SetDefault("dedup_cache_capacity", 2048)
	v.SetDefault("embedding_backfill_queue_size", 256)
	v.SetDefault("embedding_backfill_workers", 2)

	v.SetDefault("ledger_retention_days", 0)
	v.SetDefault("lock_timeout", "30s")
}

func value() *viper.Viper {
	if v == nil {
		v = viper.New()
		setDefaults(v)
	}
	return v
}

func GetString(key string) string          { return value().GetString(key) }
func GetBool(key string) bool               { return value().GetBool(key) }
func GetInt(key string) int                 { return value().GetInt(key) }
func GetFloat64(key string) float64         { return value().GetFloat64(key) }
func GetDuration(key string) time.Duration  { return value().GetDuration(key) }
func Set(key string, val interface{})       { value().Set(key, val) }
func AllSettings() map[string]interface{}   { return value().AllSettings() }

// RetentionDays builds the per-layer TTL configuration (spec §6
// layer_retention_{layer}_days) that retention.Derive needs to compute a
// MemoryEvent's retention_expires_at.
func RetentionDays() retention.Days {
	return retention.Days{
		Working:    GetInt("layer_retention_working_days"),
		Episodic:   GetInt("layer_retention_episodic_days"),
		Semantic:   GetInt("layer_retention_semantic_days"),
		Procedural: GetInt("layer_retention_procedural_days"),
		Identity:   GetInt("layer_retention_identity_days"),
		Default:    GetInt("layer_retention_default_days"),
	}
}

// StorageBackend returns the configured Backend, defaulting to sqlite on
// an unrecognized value rather than failing startup.
func StorageBackend() Backend {
	switch Backend(GetString("backend")) {
	case BackendMarkdown:
		return BackendMarkdown
	default:
		return BackendSQLite
	}
}
