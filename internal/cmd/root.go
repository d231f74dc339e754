// Package cmd wires the agentctl command tree.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	quiet   bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "agentctl",
	Short: "Manage voice assistants and squads from configuration to deployment",
	Long: `agentctl keeps conversational assistants and squads as versioned
configuration directories, and provisions them against the remote
platform per environment.

Example:
  agentctl assistant init greeter --template receptionist
  agentctl assistant create greeter --env staging
  agentctl squad bootstrap support --template front-office --deploy
  agentctl squad status support`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("agentctl version %s\n", version)
	},
}

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
}

func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the run logger honoring --verbose and --quiet.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	switch {
	case quiet:
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	case verbose:
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "quiet output (errors only)")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newAssistantCmd())
	rootCmd.AddCommand(newSquadCmd())
	rootCmd.AddCommand(newToolCmd())
}
