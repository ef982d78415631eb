package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coolbeans/ejar/pkg/config"
	"github.com/coolbeans/ejar/pkg/contract"
	"github.com/coolbeans/ejar/pkg/logging"
	"github.com/coolbeans/ejar/pkg/template"
)

var version = "0.1.0"

// Global state shared by the subcommands
var (
	configPath string
	logLevel   string
	noColor    bool

	cfg    *config.Config
	logger zerolog.Logger
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ejar",
		Short: "Ejar lease contract extractor",
		Long: `Ejar extracts structured data from bilingual (Arabic/English) Ejar
residential lease contracts.

It reads the text layer of a contract PDF and produces one JSON record with:
  - Contract terms, rent figures and tenancy period
  - Lessors, tenants, representatives and brokers
  - Property, title deed and rental unit details
  - VAT and the rent payment schedule`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				loaded.Log.Level = logLevel
				if err := loaded.Validate(); err != nil {
					return err
				}
			}
			cfg = loaded
			logger = logging.New(logging.Config{
				Level:   cfg.Log.Level,
				Format:  cfg.Log.Format,
				Service: "ejar",
			})
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	root.AddCommand(extractCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(templatesCmd())
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ejar %s\n", version)
		},
	}
}

// loadRegistry returns the embedded templates plus the configured template
// directory, if any.
func loadRegistry() (*template.DefaultRegistry, error) {
	var (
		reg *template.DefaultRegistry
		err error
	)
	if cfg.Templates.Dir != "" {
		reg, err = template.NewRegistryWithDirectory(cfg.Templates.Dir)
	} else {
		reg, err = template.NewDefaultRegistry()
	}
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	reg.SetLogger(logger)
	return reg, nil
}

// newAssembler pins the configured template, or detects one per document
// and falls back to the embedded Ejar template.
func newAssembler(reg template.Registry, format string) (*contract.Assembler, error) {
	if format != "" {
		t, ok := reg.Get(format)
		if !ok {
			return nil, fmt.Errorf("unknown template %q", format)
		}
		return contract.New(t, logger), nil
	}
	fallback, _ := reg.Get(template.DefaultFormatID)
	return contract.NewWithDetector(reg, fallback, logger), nil
}
