package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestMergeYAMLFileOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("vector_weight: 0.5\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	vv := newTestViper()
	if err := mergeYAMLFile(vv, path); err != nil {
		t.Fatalf("mergeYAMLFile: %v", err)
	}
	if got := vv.GetFloat64("vector_weight"); got != 0.5 {
		t.Fatalf("expected vector_weight 0.5, got %v", got)
	}
}

func TestMergeTOMLFileOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("backend = \"markdown\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	vv := newTestViper()
	if err := mergeTOMLFile(vv, path); err != nil {
		t.Fatalf("mergeTOMLFile: %v", err)
	}
	if got := vv.GetString("backend"); got != "markdown" {
		t.Fatalf("expected backend markdown, got %v", got)
	}
}

func TestDefaultsCoverAllLayerRetentionKeys(t *testing.T) {
	vv := newTestViper()
	for _, key := range []string{
		"layer_retention_working_days",
		"layer_retention_episodic_days",
		"layer_retention_semantic_days",
		"layer_retention_procedural_days",
		"layer_retention_identity_days",
		"layer_retention_default_days",
	} {
		if !vv.IsSet(key) {
			t.Fatalf("expected default for %s", key)
		}
	}
}

func newTestViper() *viper.Viper {
	vv := viper.New()
	setDefaults(vv)
	return vv
}
