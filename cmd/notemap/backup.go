package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"notemap/internal/backup"
	"notemap/internal/models"
	"notemap/internal/store"
)

func newBackupCmd(a *app) *cobra.Command {
	var email string
	var list bool

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot a user's categories and notes",
		Long:  "Snapshot a user's categories, notes, and metrics to JSON. The snapshot is uploaded to S3 when configured; --list prints the backup history instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			user, err := store.NewUserStore(db).FindUserByEmail(cmd.Context(), email)
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("no user with email %s", email)
			}

			uploader, err := newUploader(a.cfg)
			if err != nil {
				return err
			}
			svc := backup.New(store.NewRepository(db), store.NewBackupStore(db), uploader, a.logger)

			var out any
			if list {
				out, err = svc.History(cmd.Context(), user.ID)
			} else {
				var rec *models.Backup
				rec, err = svc.Run(cmd.Context(), user.ID)
				out = rec
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user to back up")
	cmd.Flags().BoolVar(&list, "list", false, "print backup history instead of running a backup")

	return cmd
}
