package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coolbeans/ejar/pkg/document"
	"github.com/coolbeans/ejar/pkg/template"
	"github.com/coolbeans/ejar/pkg/textnorm"
)

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect and validate contract templates",
		Long: `Inspect the contract templates used for detection and extraction.

The embedded Ejar template is always available; templates.dir in the config
adds or overrides templates by format_id.

Examples:
  ejar templates list
  ejar templates validate my-layout.yaml
  ejar templates detect contract.pdf`,
	}

	cmd.AddCommand(templatesListCmd())
	cmd.AddCommand(templatesValidateCmd())
	cmd.AddCommand(templatesDetectCmd())

	return cmd
}

func templatesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")

			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			templates := reg.List()

			out := cmd.OutOrStdout()
			if formatStr == "json" {
				type entry struct {
					FormatID   string `json:"format_id"`
					Name       string `json:"name"`
					Version    string `json:"version"`
					DatePolicy string `json:"date_policy"`
					Fields     int    `json:"fields"`
				}
				entries := make([]entry, 0, len(templates))
				for _, t := range templates {
					entries = append(entries, entry{t.FormatID, t.Name, t.Version, t.DatePolicy(), len(t.Fields)})
				}
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(entries)
			}

			fmt.Fprintf(out, "%-24s %-32s %-8s %-10s %6s\n", "FORMAT ID", "NAME", "VERSION", "DATES", "FIELDS")
			fmt.Fprintln(out, strings.Repeat("-", 84))
			for _, t := range templates {
				fmt.Fprintf(out, "%-24s %-32s %-8s %-10s %6d\n",
					truncate(t.FormatID, 24),
					truncate(t.Name, 32),
					t.Version,
					t.DatePolicy(),
					len(t.Fields),
				)
			}
			fmt.Fprintf(out, "\n%d template(s)\n", len(templates))
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", "table", "Output format (table, json)")
	return cmd
}

func templatesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check that template files parse, validate and compile",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := newUI(cmd.OutOrStdout(), noColor)
			failed := 0
			for _, path := range args {
				if err := validateTemplateFile(path); err != nil {
					failed++
					u.failure("%s: %v", path, err)
					continue
				}
				u.success("%s", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d templates invalid", failed, len(args))
			}
			return nil
		},
	}
}

func validateTemplateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	t, err := template.Parse(data)
	if err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	return t.Compile()
}

func templatesDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect FILE",
		Short: "Rank the registered templates against a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, _ := cmd.Flags().GetString("backend")
			if backend == "" {
				backend = cfg.Extraction.Backend
			}

			reg, err := loadRegistry()
			if err != nil {
				return err
			}

			src, err := document.Open(args[0], backend)
			if err != nil {
				return err
			}
			doc := document.Read(src, logger)
			if err := src.Close(); err != nil {
				logger.Warn().Err(err).Str("path", args[0]).Msg("closing document")
			}

			out := cmd.OutOrStdout()
			matches := template.NewDetector(reg).Detect(textnorm.Normalize(doc.Text))
			if len(matches) == 0 {
				fmt.Fprintln(out, "No template matched.")
				return nil
			}
			for i := range matches {
				fmt.Fprintf(out, "%d. %s\n", i+1, matches[i].String())
			}
			return nil
		},
	}

	cmd.Flags().StringP("backend", "b", "", "Text backend: auto, pdf, mupdf or text")
	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
