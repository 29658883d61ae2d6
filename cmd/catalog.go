package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lehigh-university-libraries/fxprep/internal/catalog"
	"github.com/lehigh-university-libraries/fxprep/internal/config"
	"github.com/spf13/cobra"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the allowed values for enumerated seed fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd, root, map[string]string{config.KeyCatalog: "catalog"})
			if err != nil {
				return err
			}
			cat, err := catalog.Load(settings.Catalog)
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetTitle("Catalog " + cat.Version())
			t.AppendHeader(table.Row{"Field", "Allowed values"})
			for _, field := range catalog.KnownFields {
				values := cat.AllowedValues(field)
				if field == catalog.FieldCondition {
					for i, v := range values {
						if id, ok := cat.ConditionID(v); ok {
							values[i] = fmt.Sprintf("%s (%d)", v, id)
						}
					}
				}
				t.AppendRow(table.Row{field, strings.Join(values, "\n")})
				t.AppendSeparator()
			}
			if d := cat.DefaultCondition(); d != "" {
				t.AppendRow(table.Row{"Default condition", d})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}

	cmd.Flags().String("catalog", "", "Allowed-values catalog (default built in)")

	return cmd
}
