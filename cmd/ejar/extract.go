package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/coolbeans/ejar/pkg/contract"
	"github.com/coolbeans/ejar/pkg/value"
)

type extractFlags struct {
	debug      bool
	stdout     bool
	noProgress bool
	outputDir  string
	workers    int
	format     string
	backend    string
	datePolicy string
}

func extractCmd() *cobra.Command {
	var flags extractFlags

	cmd := &cobra.Command{
		Use:   "extract FILE...",
		Short: "Extract contract records from PDF or text files",
		Long: `Extract one JSON record per contract file.

Each FILE is written to <output-dir>/<name>_result.json. With --debug the
record carries a "debug" object and the normalized text is saved next to it
as <name>_raw_text.txt. Files are processed in parallel. Inputs that would
write the same output file are rejected before anything runs.`,
		Example: `  ejar extract contract.pdf
  ejar extract --output-dir out/ --workers 8 contracts/*.pdf
  ejar extract --stdout --date-policy hijri contract.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyExtractFlags(cmd, &flags)
			return runExtract(cmd.OutOrStdout(), args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Include debug data and save the normalized text")
	cmd.Flags().BoolVar(&flags.stdout, "stdout", false, "Print records to stdout instead of writing files")
	cmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "Disable the progress bar")
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "", "Output directory (default: next to each input)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Number of files processed in parallel")
	cmd.Flags().StringVarP(&flags.format, "template", "t", "", "Template format ID (default: detect)")
	cmd.Flags().StringVarP(&flags.backend, "backend", "b", "", "Text backend: auto, pdf, mupdf or text")
	cmd.Flags().StringVar(&flags.datePolicy, "date-policy", "", "Payment date policy: gregorian or hijri")

	return cmd
}

// applyExtractFlags fills unset flags from the loaded config.
func applyExtractFlags(cmd *cobra.Command, flags *extractFlags) {
	f := cmd.Flags()
	if !f.Changed("debug") {
		flags.debug = cfg.Extraction.Debug
	}
	if !f.Changed("output-dir") {
		flags.outputDir = cfg.Extraction.OutputDir
	}
	if !f.Changed("workers") {
		flags.workers = cfg.Extraction.Workers
	}
	if !f.Changed("template") {
		flags.format = cfg.Templates.Format
	}
	if !f.Changed("backend") {
		flags.backend = cfg.Extraction.Backend
	}
	if !f.Changed("date-policy") {
		flags.datePolicy = cfg.Extraction.DatePolicy
	}
}

type fileResult struct {
	path    string
	record  *value.Object
	text    string
	outputs []string
	err     error
}

func runExtract(out io.Writer, files []string, flags extractFlags) error {
	if flags.workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", flags.workers)
	}

	if !flags.stdout {
		if err := checkCollisions(files, flags.outputDir); err != nil {
			return err
		}
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	assembler, err := newAssembler(reg, flags.format)
	if err != nil {
		return err
	}

	if flags.outputDir != "" && !flags.stdout {
		if err := os.MkdirAll(flags.outputDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	// status lines go to stderr when records go to stdout
	status := out
	if flags.stdout {
		status = os.Stderr
	}
	u := newUI(status, noColor)
	if flags.debug && flags.stdout {
		u.warning("raw text files are not written with --stdout")
	}
	if !flags.noProgress && !flags.stdout {
		u.startProgress(len(files), "extracting")
	}

	opts := contract.Options{Debug: flags.debug, DatePolicy: flags.datePolicy}
	results := make([]fileResult, len(files))

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(flags.workers)
	for i, path := range files {
		g.Go(func() error {
			res := extractOne(assembler, path, flags, opts)
			results[i] = res

			mu.Lock()
			u.step()
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	u.finishProgress()

	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
			logger.Error().Err(res.err).Str("file", res.path).Msg("extraction failed")
			u.failure("%s: %v", res.path, res.err)
			continue
		}
		if flags.stdout {
			if err := value.WriteJSON(out, res.record); err != nil {
				return fmt.Errorf("writing record: %w", err)
			}
			continue
		}
		u.success("%s -> %s", res.path, strings.Join(res.outputs, ", "))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	if len(files) > 1 {
		u.info("%d files extracted", len(files))
	}
	return nil
}

func extractOne(a *contract.Assembler, path string, flags extractFlags, opts contract.Options) fileResult {
	res := fileResult{path: path}

	rec, text, err := a.ExtractFile(path, flags.backend, opts)
	if err != nil {
		res.err = err
		return res
	}
	res.record = rec
	res.text = text
	if flags.stdout {
		return res
	}

	jsonPath, textPath := outputPaths(path, flags.outputDir)
	if err := writeRecord(jsonPath, rec); err != nil {
		res.err = err
		return res
	}
	res.outputs = append(res.outputs, jsonPath)

	if flags.debug {
		if err := os.WriteFile(textPath, []byte(text), 0o644); err != nil {
			res.err = fmt.Errorf("writing raw text: %w", err)
			return res
		}
		res.outputs = append(res.outputs, textPath)
	}
	return res
}

// outputPaths returns the record and raw text paths for input. An empty dir
// places them next to the input.
func outputPaths(input, dir string) (jsonPath, textPath string) {
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, base+"_result.json"), filepath.Join(dir, base+"_raw_text.txt")
}

// checkCollisions fails when two inputs would write the same record file,
// as lease.pdf and lease.txt do, or a/lease.pdf and b/lease.pdf under one
// output directory.
func checkCollisions(files []string, dir string) error {
	owners := make(map[string]string, len(files))
	for _, path := range files {
		jsonPath, _ := outputPaths(path, dir)
		if prev, ok := owners[jsonPath]; ok {
			return fmt.Errorf("output collision: %s and %s both write %s", prev, path, jsonPath)
		}
		owners[jsonPath] = path
	}
	return nil
}

func writeRecord(path string, rec *value.Object) error {
	var buf bytes.Buffer
	if err := value.WriteJSON(&buf, rec); err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}
