package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scylla.URI == "" {
		t.Error("Expected a non-empty Scylla.URI default")
	}

	if cfg.Server.Port != 6080 {
		t.Errorf("Expected Port=6080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host == "" {
		t.Error("Expected a non-empty Server.Host default")
	}
	if !cfg.Server.CORS {
		t.Error("Expected Server.CORS=true")
	}
	if cfg.Server.BackgroundThreads != 4 {
		t.Errorf("Expected BackgroundThreads=4, got %d", cfg.Server.BackgroundThreads)
	}

	if cfg.VectorIndex.Backend != "bruteforce" {
		t.Errorf("Expected Backend=bruteforce, got %s", cfg.VectorIndex.Backend)
	}

	if !cfg.RateLimit.Enabled {
		t.Error("Expected RateLimit.Enabled=true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		expectErr bool
	}{
		{
			name:      "valid config",
			modify:    func(c *Config) {},
			expectErr: false,
		},
		{
			name: "empty scylla uri",
			modify: func(c *Config) {
				c.Scylla.URI = ""
			},
			expectErr: true,
		},
		{
			name: "invalid port",
			modify: func(c *Config) {
				c.Server.Port = 99999
			},
			expectErr: true,
		},
		{
			name: "negative background threads",
			modify: func(c *Config) {
				c.Server.BackgroundThreads = -1
			},
			expectErr: true,
		},
		{
			name: "invalid logging level",
			modify: func(c *Config) {
				c.Logging.Level = "invalid"
			},
			expectErr: true,
		},
		{
			name: "invalid vector index backend",
			modify: func(c *Config) {
				c.VectorIndex.Backend = "invalid"
			},
			expectErr: true,
		},
		{
			name: "qdrant backend requires a url",
			modify: func(c *Config) {
				c.VectorIndex.Backend = "qdrant"
				c.VectorIndex.QdrantURL = ""
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.expectErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestLoadConfigNoFile(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd) //nolint:errcheck
	_ = os.Chdir(tmpDir)

	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", oldHome)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error with missing config, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected config, got nil")
	}
	if cfg.Server.Port != 6080 {
		t.Errorf("Expected default port 6080, got %d", cfg.Server.Port)
	}
}

func TestLoadConfigWithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
scylla:
  uri: 10.0.0.5:9042
server:
  host: 127.0.0.1
  port: 4000
  cors: false
  background_threads: 8
logging:
  level: debug
  format: json
vector_index:
  backend: qdrant
  qdrant_url: http://localhost:6333
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd) //nolint:errcheck
	_ = os.Chdir(tmpDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Scylla.URI != "10.0.0.5:9042" {
		t.Errorf("Expected scylla.uri=10.0.0.5:9042, got %s", cfg.Scylla.URI)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Expected port=4000, got %d", cfg.Server.Port)
	}
	if cfg.Server.CORS {
		t.Error("Expected CORS=false, got true")
	}
	if cfg.Server.BackgroundThreads != 8 {
		t.Errorf("Expected background_threads=8, got %d", cfg.Server.BackgroundThreads)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level=debug, got %s", cfg.Logging.Level)
	}
	if cfg.VectorIndex.Backend != "qdrant" {
		t.Errorf("Expected backend=qdrant, got %s", cfg.VectorIndex.Backend)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd) //nolint:errcheck
	_ = os.Chdir(tmpDir)

	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", oldHome)

	os.Setenv("SCYLLADB_URI", "scylla.example.com:9042")
	defer os.Unsetenv("SCYLLADB_URI")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Scylla.URI != "scylla.example.com:9042" {
		t.Errorf("Expected SCYLLADB_URI to override scylla.uri, got %s", cfg.Scylla.URI)
	}
}
