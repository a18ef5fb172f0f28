package cmd

import (
	"path/filepath"
	"testing"

	"github.com/klytics/rosterfmt/internal/output"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"convert", "fetch", "watch", "inspect", "profile", "auth", "config", "doctor", "completion", "version"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("expected %q subcommand, got %v (%v)", name, c, err)
		}
	}
}

func TestRootPersistentFlags(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"json", "debug", "out", "profile", "no-color"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
	if f := root.PersistentFlags().ShorthandLookup("o"); f == nil || f.Name != "out" {
		t.Error("-o should be the shorthand for --out")
	}
}

func TestConvertMissingFileIsUserError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	root := NewRootCommand()
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetArgs([]string{"convert", filepath.Join(dir, "Staff Roster.xls"), "-o", filepath.Join(dir, "roster.xlsx")})

	_, err := root.ExecuteC()
	if err == nil {
		t.Fatal("expected an error for a missing source file")
	}
	if code := output.ExitCode(err); code != output.ExitUserError {
		t.Errorf("exit code = %d, want %d (err %v)", code, output.ExitUserError, err)
	}
}
