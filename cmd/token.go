package cmd

import (
	"fmt"
	"time"

	"github.com/frahmantamala/pos-backoffice/internal/auth"
	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

// tokenCmd mints access tokens for local testing; production tokens come from the identity provider.
var tokenCmd = &cobra.Command{
	Use:   "token [username]",
	Short: "Issue a development access token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := bootstrapConfig()
		if err != nil {
			return err
		}

		validator := auth.NewJWTTokenValidator(cfg.Security.JWTSecret, cfg.Security.TokenIssuer)
		token, err := validator.IssueAccessToken(args[0], tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
