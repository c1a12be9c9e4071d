package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func TestLoad(t *testing.T) {
	_, path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "/var/lib/kalima/test.db"
resolver:
  split_affixes: false
  deterministic_occurrence_ids: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Address() != "127.0.0.1:9000" {
		t.Errorf("address = %s", cfg.Server.Address())
	}
	if cfg.Storage.DatabasePath != "/var/lib/kalima/test.db" {
		t.Errorf("database_path = %s", cfg.Storage.DatabasePath)
	}
	if cfg.Resolver.SplitAffixesOrDefault() || !cfg.Resolver.DeterministicOccurrenceIDs {
		t.Errorf("resolver flags not read: %+v", cfg.Resolver)
	}
	if cfg.Resolver.SegmentCacheSize != 10000 {
		t.Errorf("segment cache default = %d", cfg.Resolver.SegmentCacheSize)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	_, path := writeConfig(t, "server: [not, a, map]\n")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir, path := writeConfig(t, `
storage:
  database_path: "./data/db/kalima.db"
  lexicon_index_path: "./data/indices/lexicon"
import:
  directories: ["./import"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "db", "kalima.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "data", "indices", "lexicon"); cfg.Storage.LexiconIndexPath != want {
		t.Errorf("lexicon_index_path = %s, want %s", cfg.Storage.LexiconIndexPath, want)
	}
	if len(cfg.Import.Directories) != 1 || cfg.Import.Directories[0] != filepath.Join(dir, "import") {
		t.Errorf("import directories = %v", cfg.Import.Directories)
	}
	if !cfg.Import.RecursiveOrDefault() {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestExpandPath_home(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandPath("~/kalima/db", "/etc"); got != filepath.Join(home, "kalima", "db") {
		t.Errorf("expandPath(~/kalima/db) = %s", got)
	}
	if got := expandPath("", "/etc"); got != "" {
		t.Errorf("empty path should stay empty, got %s", got)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("default server: %+v", cfg.Server)
	}
	if cfg.Lexicon.DefaultLimit != 20 || cfg.Lexicon.MaxLimit != 200 || cfg.Lexicon.SuggestMaxDistance != 2 {
		t.Errorf("default lexicon: %+v", cfg.Lexicon)
	}
	if cfg.Import.DebounceMS != 400 {
		t.Errorf("default debounce: %d", cfg.Import.DebounceMS)
	}
	if len(cfg.Import.Extensions) != 11 || cfg.Import.Extensions[0] != ".xlsx" {
		t.Errorf("import extensions: %v", cfg.Import.Extensions)
	}
	if cfg.Import.Recursive != nil {
		t.Error("recursive stays unset without directories")
	}
}

func TestImportConfig_RecursiveOrDefault(t *testing.T) {
	f := false
	tests := []struct {
		name string
		cfg  ImportConfig
		want bool
	}{
		{"nil_returns_true", ImportConfig{}, true},
		{"false_returns_false", ImportConfig{Recursive: &f}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.RecursiveOrDefault(); got != tt.want {
				t.Errorf("RecursiveOrDefault() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolverConfig_SplitAffixesOrDefault(t *testing.T) {
	f := false
	tests := []struct {
		name string
		cfg  ResolverConfig
		want bool
	}{
		{"nil_returns_true", ResolverConfig{}, true},
		{"false_returns_false", ResolverConfig{SplitAffixes: &f}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.SplitAffixesOrDefault(); got != tt.want {
				t.Errorf("SplitAffixesOrDefault() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/kalima.db"},
		Import:  ImportConfig{Directories: []string{"/tmp/import"}},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 || loaded.Import.Directories[0] != "/tmp/import" {
		t.Errorf("loaded config: %+v", loaded)
	}
}
