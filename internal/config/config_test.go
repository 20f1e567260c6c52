package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(envFile, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if *cfg != *want {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, "engine_depth: 14\nmax_games: 50\ncache_compression: gzip\nverbose: true\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.EngineDepth != 14 || cfg.MaxGames != 50 || !cfg.Verbose {
		t.Errorf("Load() = %+v, want depth 14, games 50, verbose", cfg)
	}
	if cfg.CacheCompression != "gzip" {
		t.Errorf("CacheCompression = %q, want %q", cfg.CacheCompression, "gzip")
	}
	if cfg.EnginePath != "stockfish" {
		t.Errorf("EnginePath = %q, want default kept", cfg.EnginePath)
	}
}

func TestLoad_PathBeatsEnvFile(t *testing.T) {
	envPath := writeConfigFile(t, "engine_depth: 14\n")
	argPath := writeConfigFile(t, "engine_depth: 18\n")
	t.Setenv(envFile, envPath)

	cfg, err := Load(argPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.EngineDepth != 18 {
		t.Errorf("EngineDepth = %d, want explicit path value 18", cfg.EngineDepth)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "engine_depth: 14\n")
	t.Setenv("CHESSLEAKS_ENGINE_DEPTH", "16")
	t.Setenv("CHESSLEAKS_ENGINE_PATH", "/opt/engines/stockfish")
	t.Setenv("CHESSLEAKS_CACHE_DIR", "/var/cache/chessleaks")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.EngineDepth != 16 {
		t.Errorf("EngineDepth = %d, want env value 16", cfg.EngineDepth)
	}
	if cfg.EnginePath != "/opt/engines/stockfish" {
		t.Errorf("EnginePath = %q, want env value", cfg.EnginePath)
	}
	if cfg.CacheDir != "/var/cache/chessleaks" {
		t.Errorf("CacheDir = %q, want env value", cfg.CacheDir)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() error = nil, want missing file error")
	}
}

func TestLoad_EmptyEnginePath(t *testing.T) {
	path := writeConfigFile(t, "engine_path: \" \"\n")

	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want empty engine_path error")
	}
}

func TestEngineArgs(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantBin  string
		wantArgs []string
	}{
		{"bare binary", "stockfish", "stockfish", nil},
		{"with flags", "lc0 --weights=maia.pb --threads=2", "lc0", []string{"--weights=maia.pb", "--threads=2"}},
		{"empty", "", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EnginePath: tt.path}
			bin, args := cfg.EngineArgs()
			if bin != tt.wantBin {
				t.Errorf("binary = %q, want %q", bin, tt.wantBin)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("args[%d] = %q, want %q", i, args[i], tt.wantArgs[i])
				}
			}
		})
	}
}
