package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"resumeForge/internal/pdf"
	"resumeForge/internal/render"
)

func newPDFCmd() *cobra.Command {
	var (
		out        string
		templateID string
		chromeBin  string
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "pdf <resume.json>",
		Short: "Print a resume to a one-page A4 PDF with headless Chromium",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			settings := doc.Settings
			if templateID != "" {
				settings.TemplateID = templateID
			}
			html, err := render.Render(doc, settings)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
			exporter := pdf.NewExporter(pdf.Options{Bin: chromeBin, Timeout: timeout}, logger)
			data, err := exporter.Export(cmd.Context(), html)
			if err != nil {
				return fmt.Errorf("failed to export pdf: %w", err)
			}
			return writeOutput(cmd, out, data)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output PDF file (required)")
	cmd.Flags().StringVarP(&templateID, "template", "t", "", "Template id (default: the document's setting)")
	cmd.Flags().StringVar(&chromeBin, "chrome", "", "Chromium binary (default: auto-detect)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Browser timeout")
	if err := cmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}
	return cmd
}
