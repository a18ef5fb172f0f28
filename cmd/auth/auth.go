// Package auth provides CLI commands for Microsoft 365 sign-in.
package auth

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/rosterfmt/internal/auth"
	"github.com/klytics/rosterfmt/internal/config"
	"github.com/klytics/rosterfmt/internal/output"
)

// NewCommand returns the auth command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in to Microsoft 365 for mailbox fetches",
		Long: `Manage the Microsoft 365 sign-in used by "rosterfmt fetch".

Setup:
  1. Register an Azure AD app at portal.azure.com (public client, Mail.ReadWrite)
  2. Run: rosterfmt config set azure.client_id <app-client-id>
     (or export ROSTER_AZURE_CLIENT_ID)
  3. Run: rosterfmt auth login`,
	}

	cmd.AddCommand(newLoginCommand())
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newLogoutCommand())

	return cmd
}

func clientID() (string, error) {
	cfg, err := config.Current()
	if err != nil {
		return "", err
	}
	if cfg.Azure.ClientID == "" {
		return "", output.Usage(fmt.Errorf("azure.client_id is not set\n\nSetup:\n  1. Register an Azure AD app at portal.azure.com\n  2. rosterfmt config set azure.client_id <app-client-id>  (or export %s)\n  3. rosterfmt auth login", auth.ClientIDEnv))
	}
	return cfg.Azure.ClientID, nil
}

func newLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with the device code flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := clientID()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			token, err := auth.DeviceCodeFlow(ctx, id, os.Stderr)
			if err != nil {
				return err
			}

			path, _ := auth.TokenPath()
			client := &http.Client{
				Transport: &auth.BearerTransport{Token: token.AccessToken},
			}
			name, email, err := auth.WhoAmI(ctx, client)
			if err != nil {
				fmt.Println("Authenticated (could not fetch user details)")
				return nil
			}

			green := color.New(color.FgGreen)
			green.Printf("Authenticated as %s (%s)\n", name, email)
			fmt.Printf("Token saved to %s\n", path)
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sign-in status",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			token, err := auth.LoadToken()
			if err != nil {
				if jsonFlag {
					return output.PrintJSON("auth status", map[string]any{
						"authenticated": false,
						"error":         err.Error(),
					})
				}
				fmt.Println("Not authenticated — run: rosterfmt auth login")
				return nil
			}

			if jsonFlag {
				return output.PrintJSON("auth status", map[string]any{
					"authenticated": true,
					"expired":       token.IsExpired(),
					"expiresAt":     token.ExpiresAt.Format(time.RFC3339),
					"expiresIn":     int(token.ExpiresIn().Minutes()),
					"scopes":        auth.Scopes(),
				})
			}

			if token.IsExpired() && token.RefreshToken == "" {
				color.New(color.FgRed).Println("Token expired — run: rosterfmt auth login")
				return nil
			}

			green := color.New(color.FgGreen)
			green.Print("Authenticated")

			// user details need a live token
			if id, err := clientID(); err == nil {
				if client, err := auth.RequireAuth(cmd.Context(), id); err == nil {
					if name, email, err := auth.WhoAmI(cmd.Context(), client); err == nil {
						green.Printf(": %s (%s)", name, email)
					}
				}
			}
			fmt.Println()

			fmt.Printf("Token expires: %s (%d minutes)\n",
				token.ExpiresAt.Format("2006-01-02 15:04"),
				int(token.ExpiresIn().Minutes()))

			scopes := auth.Scopes()
			filtered := make([]string, 0, len(scopes))
			for _, s := range scopes {
				if s != "offline_access" {
					filtered = append(filtered, s)
				}
			}
			fmt.Printf("Scopes: %s\n", strings.Join(filtered, ", "))
			return nil
		},
	}
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved sign-in (delete token)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.DeleteToken(); err != nil {
				return err
			}
			fmt.Println("Logged out — token deleted")
			return nil
		},
	}
}
