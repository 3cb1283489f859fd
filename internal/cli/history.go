package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felo/mail2pdf/internal/config"
	"github.com/felo/mail2pdf/internal/manifest"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show conversions recorded in the manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		manifestPath, err := cmd.Flags().GetString("manifest")
		if err != nil {
			return err
		}
		if manifestPath == "" {
			manifestPath = config.Default().ManifestPath
		}

		store, err := manifest.Open(manifestPath)
		if err != nil {
			return err
		}
		defer store.Close()

		forget, err := cmd.Flags().GetString("forget")
		if err != nil {
			return err
		}
		if forget != "" {
			if err := store.Delete(forget); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s; the next batch run will re-convert it\n", forget)
			return nil
		}

		count, err := store.Count()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d recorded conversion(s)\n", count)

		conversions, err := store.List()
		if err != nil {
			return err
		}
		for _, c := range conversions {
			fmt.Fprintf(cmd.OutOrStdout(), "- %s (%s) -> %s, %d attachment(s)\n",
				c.SourcePath, c.Format, c.PDFPath, c.AttachmentCount)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().String("manifest", "", "conversion manifest path (default: the configured manifest)")
	historyCmd.Flags().String("forget", "", "remove the record for a source path instead of listing")
}
