package commands

import (
	"fmt"
	"os"
	"teamchat/backend/internal/auth"
	"teamchat/backend/internal/config"
	"time"

	"github.com/howeyc/gopass"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	tokenEmail      string
	tokenUnverified bool
	tokenTTL        time.Duration
	promptForKey    bool
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issues an access token",
	Long: `token signs an access token for a user with the configured signing key.

If no signing key is configured, or --prompt-for-key is set, the key is read
from the terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := viper.GetString("auth.signingKey")
		if promptForKey || key == "" {
			fmt.Fprint(os.Stderr, "Signing key: ")
			pass, err := gopass.GetPasswd()
			if err != nil {
				return errors.Wrap(err, "read signing key")
			}
			key = string(pass)
		}
		if len(key) < config.MinSigningKeyLen {
			return errors.Errorf("the signing key must be at least %d bytes", config.MinSigningKeyLen)
		}

		ttl := tokenTTL
		if ttl <= 0 {
			ttl = viper.GetDuration("auth.tokenTTL")
		}

		issuer := auth.NewTokenIssuer([]byte(key), viper.GetString("auth.issuer"), ttl)
		token, err := issuer.Issue(auth.Identity{
			UserID:     args[0],
			Email:      tokenEmail,
			IsVerified: !tokenUnverified,
		})
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVarP(&tokenEmail, "email", "e", "", "email claim of the token")
	tokenCmd.Flags().BoolVar(&tokenUnverified, "unverified", false, "issue a token for an account that is not verified yet")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default is auth.tokenTTL)")
	tokenCmd.Flags().BoolVarP(&promptForKey, "prompt-for-key", "p", false, "prompt for the signing key instead of reading it from the config")
}
