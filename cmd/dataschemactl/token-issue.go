package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshmarlow/data-schema/pkg/config"
	"github.com/joshmarlow/data-schema/pkg/server/middleware"
)

// tokenIssueCmd represents the token issue command
var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token for the write endpoints",
	Long: `Issue a bearer token for the write endpoints.

The token is signed with DATA_SCHEMA_JWT_SECRET. Its lifetime defaults to
the configured token_ttl.

Example:
  dataschemactl token issue --subject loader
  dataschemactl token issue --subject ci --ttl 15m`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		token, err := issueToken(subject, ttl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
	},
}

func init() {
	tokenCmd.AddCommand(tokenIssueCmd)
	tokenIssueCmd.Flags().StringP("subject", "s", "", "subject of the token")
	tokenIssueCmd.Flags().Duration("ttl", 0, "token lifetime (defaults to token_ttl)")
	_ = tokenIssueCmd.MarkFlagRequired("subject")
}

func issueToken(subject string, ttl time.Duration) (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return issueTokenWithConfig(cfg, subject, ttl)
}

func issueTokenWithConfig(cfg *config.Config, subject string, ttl time.Duration) (string, error) {
	if !cfg.AuthEnabled() {
		return "", fmt.Errorf("DATA_SCHEMA_JWT_SECRET is not configured")
	}
	if ttl <= 0 {
		ttl = cfg.TokenLifetime()
	}
	return middleware.IssueToken([]byte(cfg.JWTSecret), cfg.JWTIssuer, subject, ttl)
}
