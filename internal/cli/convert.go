package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felo/mail2pdf/internal/config"
	"github.com/felo/mail2pdf/internal/converter"
	"github.com/felo/mail2pdf/internal/logging"
	"github.com/felo/mail2pdf/internal/parser"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a single email file to a PDF, extracting its attachments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, err := cmd.Flags().GetString("out-dir")
		if err != nil {
			return err
		}
		pdfPath, err := cmd.Flags().GetString("pdf")
		if err != nil {
			return err
		}
		formatName, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}

		format, err := resolveFormat(formatName)
		if err != nil {
			return err
		}

		srcPath := args[0]
		if pdfPath == "" {
			base := filepath.Base(srcPath)
			stem := strings.TrimSuffix(base, filepath.Ext(base))
			pdfPath = filepath.Join(outDir, stem+".pdf")
		}

		log := logging.New(verbose)
		defer log.Sync()

		cfg := config.Default()
		cfg.OutputDir = outDir

		conv := converter.New(cfg, nil, log)
		res, err := conv.ConvertFile(srcPath, format, outDir, pdfPath)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Converted %s\n", srcPath)
		fmt.Fprintf(cmd.OutOrStdout(), "- PDF: %s\n", res.PDFPath)
		for _, name := range res.AttachmentNames {
			fmt.Fprintf(cmd.OutOrStdout(), "- Attachment: %s\n", filepath.Join(outDir, name))
		}
		return nil
	},
}

func resolveFormat(name string) (parser.Format, error) {
	switch name {
	case "auto":
		return parser.FormatUnknown, nil
	case "eml":
		return parser.FormatEML, nil
	case "msg":
		return parser.FormatMSG, nil
	default:
		return parser.FormatUnknown, fmt.Errorf("unknown format %q (want auto, eml or msg)", name)
	}
}

func init() {
	convertCmd.Flags().String("out-dir", "./output", "directory for extracted attachments")
	convertCmd.Flags().String("pdf", "", "PDF output path (default <out-dir>/<basename>.pdf)")
	convertCmd.Flags().String("format", "auto", "input format: auto, eml or msg")
}
