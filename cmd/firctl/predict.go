package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/firdesk/internal/classify"
)

var predictCmd = &cobra.Command{
	Use:   "predict [text]",
	Short: "Predict legal sections for a complaint narrative",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := classify.NewClient(cfg.ClassifierURL, cfg.ClassifierTopK)
		sections, err := c.Predict(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		for i, s := range sections {
			line := fmt.Sprintf("%d. %s %s", i+1, s.Act, s.Code)
			if s.Title != "" {
				line += " - " + s.Title
			}
			if s.Probability > 0 {
				line += fmt.Sprintf(" (%.2f)", s.Probability)
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}
