package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"resumeForge/internal/render"
	"resumeForge/internal/resume"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <resume.json>",
		Short: "Check that a JSON backup can be imported and rendered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				var ie *resume.ImportError
				if errors.As(err, &ie) {
					for _, f := range ie.Fields {
						_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", f.Field, f.Message)
					}
				}
				return err
			}
			if _, err := render.ResolveSettings(doc.Settings); err != nil {
				return fmt.Errorf("invalid settings: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	}
}
