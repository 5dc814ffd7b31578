package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resumeForge/internal/extract"
	"resumeForge/internal/resume"
)

func newExtractCmd() *cobra.Command {
	var (
		out       string
		mergeInto string
	)
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract a resume document from a PDF, DOCX, HTML or text file",
		Long:  "Reads the file, converts it to plain text and runs the heuristic extractor. With --merge-into the result is merged into an existing JSON backup without overwriting its data with empty values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			text, err := extract.TextFromFile(cmd.Context(), data, "", args[0])
			if err != nil {
				return fmt.Errorf("failed to read resume text: %w", err)
			}

			base := &resume.Document{}
			if mergeInto != "" {
				if base, err = readDocument(mergeInto); err != nil {
					return err
				}
			}
			doc, report := extract.ExtractInto(base, text)
			if !report.Found() {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "warning: nothing recognisable was found")
			}

			encoded, err := resume.Export(doc)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, append(encoded, '\n'))
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output JSON file (default stdout)")
	cmd.Flags().StringVar(&mergeInto, "merge-into", "", "Existing JSON backup to merge the extracted data into")
	return cmd
}
