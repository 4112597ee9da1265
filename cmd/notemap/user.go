package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"notemap/internal/models"
	"notemap/internal/store"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var email, password, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(email)
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}
			if len(password) < 8 {
				return fmt.Errorf("password must be at least 8 characters")
			}

			hash, err := store.HashPassword(password)
			if err != nil {
				return err
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			u, err := store.NewUserStore(db).CreateUser(cmd.Context(), &models.User{
				Email:        email,
				PasswordHash: hash,
				DisplayName:  name,
			})
			if err != nil {
				return err
			}
			a.logger.Info("user created", "user_id", u.ID, "email", u.Email)
			fmt.Fprintln(cmd.OutOrStdout(), u.ID)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "login email")
	create.Flags().StringVar(&password, "password", "", "login password (min 8 characters)")
	create.Flags().StringVar(&name, "name", "", "display name")

	cmd.AddCommand(create)
	return cmd
}
