package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the questions the chat asks, in order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		t := table.New().Headers("#", "KEY", "LABEL", "KIND", "DEFAULT")
		for i, f := range cat.Fields {
			kind := string(f.Kind)
			if kind == "" {
				kind = "text"
			}
			def := ""
			if f.Default != nil {
				def = fmt.Sprint(f.Default)
			}
			t.Row(fmt.Sprint(i+1), f.Key, f.Label, kind, def)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}
