package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"resumeForge/internal/resume"
)

func newScoreCmd() *cobra.Command {
	var minScore int
	cmd := &cobra.Command{
		Use:   "score <resume.json>",
		Short: "Print the ATS completeness report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			report := resume.Score(doc)
			encoded, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal report: %w", err)
			}
			if err := writeOutput(cmd, "", append(encoded, '\n')); err != nil {
				return err
			}
			if report.Total < minScore {
				return fmt.Errorf("score %d is below the required %d", report.Total, minScore)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&minScore, "min", 0, "Fail when the total score is below this value")
	return cmd
}
