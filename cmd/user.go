package cmd

import (
	"errors"
	"fmt"

	"imsystem/internal/database"
	"imsystem/internal/repository"
	"imsystem/internal/users"
	custom_error "imsystem/pkg/errors"
	"imsystem/pkg/models"
	"imsystem/pkg/roles"

	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login accounts.",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a login account.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := userRequestFromFlags(cmd)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := database.NewPostgresConnection(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := users.NewRepository(repository.NewRepository(db))
			if err := users.CreateUser(cmd.Context(), repo, req); err != nil {
				if custom_error.IsUniqueViolation(err) {
					return fmt.Errorf("user %q already exists", req.Username)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "User %s created with role %s\n", req.Username, req.Role)
			return nil
		},
	}
	addCmd.Flags().String("username", "", "Login name")
	addCmd.Flags().String("password", "", "Password, at least 6 characters")
	addCmd.Flags().String("fullname", "", "Display name")
	addCmd.Flags().String("role", string(roles.User), "One of user, moderator, admin")
	_ = addCmd.MarkFlagRequired("username")
	_ = addCmd.MarkFlagRequired("password")

	userCmd.AddCommand(addCmd)
	return userCmd
}

func userRequestFromFlags(cmd *cobra.Command) (models.CreateUserRequest, error) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	fullname, _ := cmd.Flags().GetString("fullname")
	role, _ := cmd.Flags().GetString("role")

	req := models.CreateUserRequest{
		Username: username,
		Password: password,
		Fullname: fullname,
		Role:     roles.Role(role),
	}
	if req.Username == "" {
		return req, errors.New("username is required")
	}
	if len(req.Password) < 6 {
		return req, errors.New("password must be at least 6 characters")
	}
	if !req.Role.IsValid() {
		return req, fmt.Errorf("invalid role %q", role)
	}
	return req, nil
}
