package main

import (
	"github.com/spf13/cobra"
	"github.com/yukikurage/agencyboard-api/internal/database"
)

func migrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations and create indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Connect(e.cfg, e.log); err != nil {
				return err
			}
			return database.Migrate(e.log)
		},
	}
}
