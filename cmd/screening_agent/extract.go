package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/screening-agent/internal/ingestion"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the plain text of a resume",
	Long: `Extracts and cleans the text of a PDF, DOCX, HTML, Markdown or plain-text resume and prints it.
With --meta, prints the file name, format, character count and SHA-256 of the extracted text instead.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var extractMeta bool

func init() {
	extractCmd.Flags().BoolVar(&extractMeta, "meta", false, "Print document metadata as JSON instead of the text")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if key := os.Getenv("UNIDOC_LICENSE_API_KEY"); key != "" {
		if err := ingestion.SetLicenseKey(key); err != nil {
			return fmt.Errorf("failed to install PDF license key: %w", err)
		}
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	text, err := ingestion.ExtractText(data, args[0])
	if err != nil {
		return err
	}

	if extractMeta {
		meta, err := ingestion.NewMetadata(text, args[0]).ToJSON()
		if err != nil {
			return err
		}
		text = string(meta)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
