// Package config loads the daemon's flat environment-variable configuration.
// The donor has no config loader of its own (its config is a literal
// constructor argument supplied by its WASM host); this follows the
// "explicit struct, no framework" style the donor uses for its other
// plain-data configuration (e.g. pkg/batch.Config) applied to the env-var
// surface this spec defines.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config is the daemon's process-wide configuration snapshot, captured once
// at startup. Nothing in the core reads the environment directly after that.
type Config struct {
	Port          int
	DBPath        string
	ModelDir      string
	SkipTools     map[string]bool
	BatchWindowMS int
	GenModel      string
	EmbedModel    string
	GenDType      string
}

const defaultPort = 3456

// Load populates a Config from the environment, applying the defaults from
// the persisted-state-layout section of the specification.
func Load() Config {
	home, _ := os.UserHomeDir()
	defaultDB := filepath.Join(home, ".claude-mem", "memory.db")
	defaultModelDir := filepath.Join(home, ".claude-mem", "models")

	cfg := Config{
		Port:          intEnv("PORT", defaultPort),
		DBPath:        stringEnv("DB", defaultDB),
		ModelDir:      stringEnv("MODEL_DIR", defaultModelDir),
		SkipTools:     toSet(stringEnv("SKIP_TOOLS", "TodoRead,TodoWrite,LS")),
		BatchWindowMS: intEnv("BATCH_WINDOW_MS", 3000),
		GenModel:      stringEnv("GEN_MODEL", ""),
		EmbedModel:    stringEnv("EMBED_MODEL", ""),
		GenDType:      stringEnv("GEN_DTYPE", ""),
	}
	return cfg
}

func stringEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func toSet(csv string) map[string]bool {
	out := make(map[string]bool)
	for _, s := range strings.Split(csv, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out[s] = true
		}
	}
	return out
}
