package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"resumeForge/internal/render"
)

func newRenderCmd() *cobra.Command {
	var (
		out        string
		templateID string
		accent     string
		format     string
	)
	cmd := &cobra.Command{
		Use:   "render <resume.json>",
		Short: "Render a resume as HTML or plain text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			switch strings.ToLower(format) {
			case "text", "txt":
				return writeOutput(cmd, out, []byte(render.RenderText(doc)))
			case "html", "":
			default:
				return fmt.Errorf("unknown format %q (want html or text)", format)
			}

			settings := doc.Settings
			if templateID != "" {
				settings.TemplateID = templateID
			}
			if accent != "" {
				settings.AccentColor = accent
			}
			html, err := render.Render(doc, settings)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, html)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVarP(&templateID, "template", "t", "", "Template id (default: the document's setting)")
	cmd.Flags().StringVar(&accent, "accent", "", "Accent colour override")
	cmd.Flags().StringVarP(&format, "format", "f", "html", "Output format: html or text")
	return cmd
}
