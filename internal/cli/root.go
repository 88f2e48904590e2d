package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/memoria/internal/config"
)

// version is set at build time with -ldflags "-X".
var version = "0.1.0"

var (
	cfg     *config.Config
	dbPath  string
	verbose bool
	quiet   bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "memoria",
	Short: "A searchable memory of project discussions",
	Long: `Memoria records projects, discussion topics, logs, decisions and tasks
in a local SQLite database and keeps them searchable by trigram keyword
match and, when an embedding provider is configured, by meaning.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupOutput,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	loadConfig()
	rootCmd.AddCommand(
		newInitCommand(),
		newProjectCommand(),
		newTopicCommand(),
		newLogCommand(),
		newDecisionCommand(),
		newTaskCommand(),
		newSearchCommand(),
		newShowCommand(),
		newEmbeddingsCommand(),
		newExportCommand(),
		newImportCommand(),
		newInfoCommand(),
		newConfigCommand(),
		newMCPCommand(),
		newTuiCommand(),
		newWebCommand(),
	)
	return rootCmd.Execute()
}

func loadConfig() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}
}

func setupOutput(cmd *cobra.Command, args []string) error {
	switch {
	case verbose:
		log.SetLevel(log.DebugLevel)
	case quiet:
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}

	colors := cfg == nil || cfg.Display.ColorOutput == nil || *cfg.Display.ColorOutput
	if noColor || !colors {
		lipgloss.SetColorProfile(termenv.Ascii)
		log.SetColorProfile(termenv.Ascii)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "database", "d", "", "Database name or path (default: $XDG_DATA_HOME/memoria/memoria.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func resolveDBPath() (string, error) {
	if dbPath != "" {
		return config.ResolveDatabasePath(dbPath)
	}
	return config.GetDefaultDatabase()
}
