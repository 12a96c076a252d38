// Command spaar-import parses a bank statement from disk and prints the
// result as JSON. With -persist the batch is stored in the configured backend
// and insights are refreshed.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"spaar/internal/cli"
	"spaar/internal/csvimport"
	"spaar/internal/log"
)

func main() {
	var (
		file     = flag.String("file", "", "statement CSV to import (required)")
		preview  = flag.Int("preview", 0, "only print the first N parsed transactions")
		validate = flag.Bool("validate", false, "only check the header for the required columns")
		persist  = flag.Bool("persist", false, "store the batch and refresh insights")
	)
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentImport)

	content, err := os.ReadFile(*file)
	if err != nil {
		logger.Error("Failed to read statement", log.FieldError, err, log.FieldSource, *file)
		os.Exit(1)
	}

	ic, err := cli.ImporterConfig(cfg)
	if err != nil {
		logger.Error("Failed to load import rules", log.FieldError, err)
		os.Exit(1)
	}
	importer := csvimport.New(ic)

	switch {
	case *validate:
		printJSON(map[string]bool{"valid": importer.ValidateStructure(string(content))})
	case *preview > 0:
		printJSON(importer.Preview(string(content), *preview))
	case *persist:
		ctx := context.Background()
		be := cli.Backend(ctx, cfg, logger)
		if be.Cleanup != nil {
			defer be.Cleanup()
		}
		svc, err := cli.NewServices(cfg, be.Backend, logger)
		if err != nil {
			logger.Error("Failed to initialize services", log.FieldError, err)
			os.Exit(1)
		}
		out, err := svc.Imports.Import(ctx, filepath.Base(*file), bytes.NewReader(content))
		if err != nil {
			logger.Error("Import failed", log.FieldError, err)
			os.Exit(1)
		}
		if out.ImportedRows > 0 {
			if _, err := svc.Insights.Refresh(ctx); err != nil {
				logger.Error("Insight refresh failed", log.FieldError, err)
			}
		}
		printJSON(out)
	default:
		printJSON(importer.Parse(string(content)))
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
