package config

import (
	"testing"
)

func TestLoad_NonexistentFile(t *testing.T) {
	if _, err := Load("/definitely/not/a/real/file-12345.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.yaml", "addr: :8080\n: broken\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected YAML unmarshal error")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.json", `{ "addr": ":8080", "data_dir": }`)
	if _, err := Load(p); err == nil {
		t.Fatalf("expected JSON unmarshal error")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.toml", "addr=:8080\ndata_dir\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected TOML unmarshal error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"OLLAMA_HOST":                       "gpu-box:11434",
		"OLLAMAKIT_ADDR":                    ":9000",
		"OLLAMAKIT_SETTINGS_DB":             "/var/lib/ok.db",
		"OLLAMAKIT_CORS_ORIGINS":            "http://a, http://b,",
		"OLLAMAKIT_REQUEST_TIMEOUT_SECONDS": "30",
		"OLLAMAKIT_LOG_LEVEL":               "  ",
	}
	cfg, err := Config{Addr: ":1", LogLevel: "warn"}.ApplyEnv(func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.OllamaHost != "gpu-box:11434" || cfg.Addr != ":9000" || cfg.SettingsDB != "/var/lib/ok.db" || cfg.RequestTimeoutSeconds != 30 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b" {
		t.Fatalf("cors: %v", cfg.CORSOrigins)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("blank env must not override: %q", cfg.LogLevel)
	}

	env["OLLAMAKIT_REQUEST_TIMEOUT_SECONDS"] = "soon"
	if _, err := (Config{}).ApplyEnv(func(k string) string { return env[k] }); err == nil {
		t.Fatalf("expected error for bad timeout")
	}
}

func TestSplitCSV(t *testing.T) {
	cases := []struct{ in string; want []string }{
		{"a,b,c", []string{"a","b","c"}},
		{" a , b , c ", []string{"a","b","c"}},
		{"a,,c", []string{"a","c"}},
		{"", nil},
	}
	for _, c := range cases {
		got := SplitCSV(c.in)
		if len(got) != len(c.want) { t.Fatalf("%q -> %v, want %v", c.in, got, c.want) }
		for i := range got {
			if got[i] != c.want[i] { t.Fatalf("%q -> %v, want %v", c.in, got, c.want) }
		}
	}
}
