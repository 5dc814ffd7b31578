// Command resumectl works with resume documents offline: extract structure
// from files, validate backups, render previews and print PDFs.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "resumectl",
		Short:         "Offline tools for resume documents",
		Long:          "resumectl extracts resume documents from PDF, DOCX, HTML or text files, validates JSON backups, renders them with the built-in templates and prints one-page PDFs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newExtractCmd(),
		newRenderCmd(),
		newPDFCmd(),
		newValidateCmd(),
		newScoreCmd(),
	)
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
