package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/soundvault/timbre/config"
	"github.com/soundvault/timbre/logging"
)

var (
	configPath string
	verbose    bool

	cfg *config.Config
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "timbre",
		Short:         "Acoustic feature extraction for audio libraries",
		Long:          "timbre extracts a fixed-dimension acoustic fingerprint from every track in an audio library so a similarity layer can compare them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logging.SetLevel(logging.DebugLevel)
			}

			var err error
			cfg, err = config.Load(configPath)
			return err
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newScanCommand())
	root.AddCommand(newAnalyzeCommand())
	root.AddCommand(newAggregateCommand())

	return root
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "timbre.toml"
	}
	return home + "/.timbre/config.toml"
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logging.Error(err, "command failed")
		os.Exit(1)
	}
}
