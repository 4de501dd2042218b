// Package commands implements the teamchat command line.
package commands

import (
	"fmt"
	"os"
	"teamchat/backend/internal/config"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgDir string
	log    = logrus.New()
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "teamchat",
	Short: "Team chat real-time hub",
	Long: `Teamchat keeps persistent client connections, joins them to the rooms
of the channels their users belong to, and fans messages and membership
changes out to every device that should see them.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default is $HOME/.config/teamchat)")
}

// initConfig loads .env, then the config file and TEAMCHAT_* variables.
func initConfig() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: Error loading .env file")
	}

	if cfgDir == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfgDir = dir
	}

	if err := config.Prepare(viper.GetViper(), cfgDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config file: %s\n", err)
		os.Exit(1)
	}
}
