package completion

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func run(t *testing.T, shell string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "rosterfmt"}
	root.AddCommand(&cobra.Command{Use: "convert", Short: "Reformat local .xls report exports", Run: func(*cobra.Command, []string) {}})
	root.AddCommand(&cobra.Command{Use: "fetch", Short: "Pull report attachments from Outlook", Run: func(*cobra.Command, []string) {}})
	root.AddCommand(NewCommand(root))

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"completion", shell})
	err := root.Execute()
	return buf.String(), err
}

func TestCompletionScripts(t *testing.T) {
	tests := []struct {
		shell string
		want  []string
	}{
		{"bash", []string{"# rosterfmt bash completion", "/etc/bash_completion.d/rosterfmt", "_rosterfmt"}},
		{"zsh", []string{"_rosterfmt", "compdef"}},
		{"fish", []string{"complete -c rosterfmt"}},
		{"powershell", []string{"$PROFILE", "rosterfmt"}},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			out, err := run(t, tt.shell)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("%s completion should contain %q", tt.shell, w)
				}
			}
		})
	}
}

func TestCompletionUnsupportedShell(t *testing.T) {
	_, err := run(t, "tcsh")
	if err == nil || !strings.Contains(err.Error(), "unsupported shell") {
		t.Errorf("expected unsupported shell error, got %v", err)
	}
}
