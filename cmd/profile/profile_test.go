package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klytics/rosterfmt/internal/profile"
)

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles", "roster.yaml")
	if err := WriteDefault(path, false); err != nil {
		t.Fatal(err)
	}

	p, err := profile.Load(path)
	if err != nil {
		t.Fatalf("written profile should load: %v", err)
	}
	if p.Name != profile.Default().Name {
		t.Errorf("expected the built-in profile, got %q", p.Name)
	}
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(path, []byte("name: mine\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := WriteDefault(path, false)
	if err == nil || !strings.Contains(err.Error(), "--force") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "name: mine\n" {
		t.Error("existing file should be untouched")
	}

	if err := WriteDefault(path, true); err != nil {
		t.Fatal(err)
	}
	if _, err := profile.Load(path); err != nil {
		t.Errorf("forced write should produce a valid profile: %v", err)
	}
}
