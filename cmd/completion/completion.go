// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"

	"github.com/spf13/cobra"
)

var installHints = map[string][]string{
	"bash": {
		"rosterfmt completion bash > /etc/bash_completion.d/rosterfmt",
		"echo 'source <(rosterfmt completion bash)' >> ~/.bashrc",
	},
	"zsh":        {"rosterfmt completion zsh > ~/.zsh/completions/_rosterfmt"},
	"fish":       {"rosterfmt completion fish > ~/.config/fish/completions/rosterfmt.fish"},
	"powershell": {"rosterfmt completion powershell >> $PROFILE"},
}

// NewCommand returns the completion command.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for rosterfmt.

Install instructions:
  Bash:       rosterfmt completion bash > /etc/bash_completion.d/rosterfmt
              echo 'source <(rosterfmt completion bash)' >> ~/.bashrc
  Zsh:        rosterfmt completion zsh > ~/.zsh/completions/_rosterfmt
  Fish:       rosterfmt completion fish > ~/.config/fish/completions/rosterfmt.fish
  PowerShell: rosterfmt completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hints, ok := installHints[args[0]]
			if !ok {
				return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# rosterfmt %s completion\n", args[0])
			for i, h := range hints {
				label := "# Install:"
				if i > 0 {
					label = "# Or:     "
				}
				fmt.Fprintf(out, "%s %s\n", label, h)
			}
			fmt.Fprintln(out)

			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			default:
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
	return cmd
}
