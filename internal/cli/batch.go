package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felo/mail2pdf/internal/config"
	"github.com/felo/mail2pdf/internal/converter"
	"github.com/felo/mail2pdf/internal/logging"
	"github.com/felo/mail2pdf/internal/manifest"
)

var batchCmd = &cobra.Command{
	Use:   "batch <directory>",
	Short: "Convert every .eml and .msg file under a directory tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := batchConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log := logging.New(verbose)
		defer log.Sync()

		var store *manifest.Store
		if cfg.ManifestPath != "" {
			store, err = manifest.Open(cfg.ManifestPath)
			if err != nil {
				return err
			}
			defer store.Close()
		}

		conv := converter.New(cfg, store, log)
		result, err := conv.ConvertAll(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Batch complete: %d found, %d converted, %d skipped, %d failed\n",
			result.TotalFound, result.Converted, result.Skipped, result.Failed)

		if result.Failed > 0 {
			return fmt.Errorf("failed to convert %d file(s): %s",
				result.Failed, strings.Join(result.FailedFiles, ", "))
		}
		return nil
	},
}

// batchConfig loads the YAML config when --config is given, then lets
// explicitly set flags override it.
func batchConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	if cfgPath != "" {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("out-dir") {
		cfg.OutputDir, _ = cmd.Flags().GetString("out-dir")
	}
	if cmd.Flags().Changed("pdf-dir") {
		cfg.PDFDir, _ = cmd.Flags().GetString("pdf-dir")
	}
	if cmd.Flags().Changed("manifest") {
		cfg.ManifestPath, _ = cmd.Flags().GetString("manifest")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("overwrite") {
		cfg.Overwrite, _ = cmd.Flags().GetBool("overwrite")
	}
	return cfg, nil
}

func init() {
	batchCmd.Flags().String("config", "", "YAML config file")
	batchCmd.Flags().String("out-dir", "./output", "directory for extracted attachments")
	batchCmd.Flags().String("pdf-dir", "", "directory for PDFs (default: out-dir)")
	batchCmd.Flags().String("manifest", "", "conversion manifest path; empty disables skip tracking")
	batchCmd.Flags().Int("workers", 0, "worker pool size (default: 2x CPUs)")
	batchCmd.Flags().Bool("overwrite", false, "re-convert files already in the manifest")
}
