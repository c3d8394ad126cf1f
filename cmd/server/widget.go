package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/yukikurage/agencyboard-api/internal/database"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/reporting"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/services"
	"gopkg.in/yaml.v3"
)

func widgetCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "widget",
		Short: "Work with report widgets",
	}
	cmd.AddCommand(widgetRunCmd(e))
	return cmd
}

func widgetRunCmd(e *env) *cobra.Command {
	var (
		file        string
		principalID string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a widget definition (yaml or json) and print its table",
		RunE: func(cmd *cobra.Command, args []string) error {
			widget, err := readWidget(file)
			if err != nil {
				return err
			}

			if err := database.Connect(e.cfg, e.log); err != nil {
				return err
			}
			db := database.GetDB()

			role := models.RoleOwner
			if principalID != "" {
				user, err := repository.NewUserRepository(db).FindByID(cmd.Context(), principalID)
				if err != nil {
					return fmt.Errorf("failed to load principal %s: %w", principalID, err)
				}
				role = user.Role
			}

			visibility := services.NewVisibilityService(repository.NewUserRepository(db), repository.NewVisibilityRepository(db))
			engine := reporting.NewEngine(db, visibility, e.log)

			result, err := engine.RunWidget(cmd.Context(), widget, principalID, role)
			if err != nil {
				return err
			}
			renderWidget(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "widget definition file")
	cmd.Flags().StringVar(&principalID, "principal", "", "run as this user ID (defaults to an unrestricted owner)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readWidget decodes a widget definition. JSON is valid YAML, so both work.
func readWidget(path string) (models.Widget, error) {
	var widget models.Widget
	data, err := os.ReadFile(path)
	if err != nil {
		return widget, fmt.Errorf("failed to read widget file: %w", err)
	}
	if err := yaml.Unmarshal(data, &widget); err != nil {
		return widget, fmt.Errorf("failed to parse widget file: %w", err)
	}
	return widget, nil
}

func renderWidget(w io.Writer, result reporting.WidgetResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, 0, len(result.Columns))
	for _, c := range result.Columns {
		header = append(header, c.Label)
	}
	t.AppendHeader(header)
	for _, row := range result.Rows {
		t.AppendRow(table.Row(row))
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d rows", len(result.Rows))})
	t.Render()
}
