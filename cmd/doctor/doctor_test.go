package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klytics/rosterfmt/internal/auth"
	"github.com/klytics/rosterfmt/internal/config"
)

func findCheck(t *testing.T, checks []Check, name string) Check {
	t.Helper()
	for _, c := range checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no %q check in %+v", name, checks)
	return Check{}
}

func TestRunChecks(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	auth.TokenPathOverride = filepath.Join(dir, "token.json")
	t.Cleanup(func() { auth.TokenPathOverride = "" })

	cfg := &config.Config{Output: filepath.Join(dir, "roster.xlsx")}
	checks := RunChecks(cfg)

	if c := findCheck(t, checks, "Profile"); c.Status != "ok" {
		t.Errorf("built-in profile should pass: %+v", c)
	}
	if c := findCheck(t, checks, "Output"); c.Status != "ok" {
		t.Errorf("existing output dir should pass: %+v", c)
	}
	if c := findCheck(t, checks, "Azure Client ID"); c.Status != "warning" {
		t.Errorf("missing client id should warn: %+v", c)
	}
	if c := findCheck(t, checks, "Auth Token"); c.Status != "warning" {
		t.Errorf("missing token should warn: %+v", c)
	}
}

func TestRunChecksBadProfile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	cfg := &config.Config{Output: "roster.xlsx", Profile: filepath.Join(dir, "missing.yaml")}

	if c := findCheck(t, RunChecks(cfg), "Profile"); c.Status != "error" {
		t.Errorf("missing profile should fail: %+v", c)
	}
}

func TestOutputCheck(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		out  string
		want string
	}{
		{filepath.Join(dir, "roster.xlsx"), "ok"},
		{filepath.Join(dir, "new", "roster.xlsx"), "warning"},
		{filepath.Join(file, "roster.xlsx"), "error"},
	}
	for _, tt := range tests {
		if got := outputCheck(tt.out); got.Status != tt.want {
			t.Errorf("outputCheck(%q) = %+v, want %s", tt.out, got, tt.want)
		}
	}
}
