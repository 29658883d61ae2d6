package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/fxprep/internal/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose    bool
	configPath string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "fxprep",
		Short: "Prepare marketplace bulk-upload files from seed spreadsheets",
		Long: `fxprep turns a lean seed spreadsheet into a bulk-upload CSV that matches
a marketplace template.

Each seed row may be enriched by scraping its listing page and by rewriting
its title and description with an LLM, then validated and mapped onto the
template's columns.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Verbose logging")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Settings file (default ./fxprep.yaml or ~/.config/fxprep/fxprep.yaml)")

	cmd.AddCommand(newBuildCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newPhotosCmd())
	cmd.AddCommand(newCatalogCmd(opts))

	return cmd
}

// loadSettings binds the command's flags and reads the settings file.
func loadSettings(cmd *cobra.Command, opts *rootOptions, flags map[string]string) (config.Settings, error) {
	v := config.New()
	if err := config.BindFlags(v, cmd.Flags(), flags); err != nil {
		return config.Settings{}, err
	}
	s, err := config.Load(v, opts.configPath)
	if err != nil {
		return config.Settings{}, err
	}
	if used := config.Used(v); used != "" {
		slog.Debug("Loaded settings", "path", used)
	}
	return s, nil
}
