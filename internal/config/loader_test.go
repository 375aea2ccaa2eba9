package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const baseYAML = `
site_name: Northlight Digital
base_url: https://northlight.example
session:
  secret: 0123456789abcdef0123456789abcdef
security:
  csrf_key: %s
contact:
  send_delay: 250ms
routes:
  aliases:
    /work: /portfolio
`

func writeConf(t *testing.T, csrf string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	body := strings.Replace(baseYAML, "%s", csrf, 1)
	if err := os.WriteFile(filepath.Join(root, "conf", "site.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

type fakeSecrets map[string]string

func (f fakeSecrets) Resolve(_ context.Context, ref Ref) (string, error) {
	v, ok := f[ref.Path+"#"+ref.Key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestLoadFrom_DefaultsAndOverrides(t *testing.T) {
	root := writeConf(t, "fedcba9876543210fedcba9876543210")
	t.Setenv("SITE_HTTP__LISTEN_ADDR", "127.0.0.1:9090")

	cfg, err := LoadFrom(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.HTTP.ListenAddr != "127.0.0.1:9090" {
		t.Fatalf("listen addr = %q, env override ignored", cfg.HTTP.ListenAddr)
	}
	if cfg.Contact.SendDelay != 250*time.Millisecond {
		t.Fatalf("send delay = %v", cfg.Contact.SendDelay)
	}
	if cfg.Contact.DismissAfter != 5*time.Second || cfg.Contact.Mode != "simulated" {
		t.Fatalf("defaults not applied: %+v", cfg.Contact)
	}
	if cfg.Routes.Aliases["/work"] != "/portfolio" {
		t.Fatalf("aliases = %v", cfg.Routes.Aliases)
	}
	if cfg.Paths.Root != root {
		t.Fatalf("root = %q", cfg.Paths.Root)
	}
	if Get() != cfg {
		t.Fatal("Get did not return the cached config")
	}
}

func TestLoadFrom_VaultRef(t *testing.T) {
	root := writeConf(t, "vault:kv/data/site#csrf_key")
	secret := "00112233445566778899aabbccddeeff"

	cfg, err := LoadFrom(context.Background(), root, fakeSecrets{"kv/data/site#csrf_key": secret})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Security.CSRFKey != secret {
		t.Fatalf("csrf key = %q", cfg.Security.CSRFKey)
	}
}

func TestLoadFrom_VaultRefWithoutSource(t *testing.T) {
	root := writeConf(t, "vault:kv/data/site#csrf_key")
	_, err := LoadFrom(context.Background(), root, nil)
	if err == nil || !strings.Contains(err.Error(), "security.csrf_key") {
		t.Fatalf("err = %v, want mention of security.csrf_key", err)
	}
}

func TestLoadFrom_Validation(t *testing.T) {
	root := writeConf(t, "short")
	_, err := LoadFrom(context.Background(), root, nil)
	if err == nil || !strings.Contains(err.Error(), "security.csrf_key: min=32") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	if _, err := LoadFrom(context.Background(), t.TempDir(), nil); err == nil {
		t.Fatal("expected error for missing site.yaml")
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in     string
		ok     bool
		hasErr bool
		want   Ref
	}{
		{"plain", false, false, Ref{}},
		{"vault:kv/data/site#key", true, false, Ref{Path: "kv/data/site", Key: "key"}},
		{"vault:/kv/site/#k", true, false, Ref{Path: "kv/site", Key: "k"}},
		{"vault:kv/data/site", true, true, Ref{}},
		{"vault:#key", true, true, Ref{}},
	}
	for _, tc := range tests {
		ref, ok, err := ParseRef(tc.in)
		if ok != tc.ok || (err != nil) != tc.hasErr || ref != tc.want {
			t.Errorf("ParseRef(%q) = %+v, %v, %v", tc.in, ref, ok, err)
		}
	}
}
