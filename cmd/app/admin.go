package main

import (
	"context"
	"fmt"

	"github.com/BloggingApp/artblog-service/internal/dto"
	"github.com/BloggingApp/artblog-service/internal/service"
	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	var username, password string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := context.Background()
			repos, closeRepos, err := openRepository(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeRepos()

			services := service.New(logger, repos, cfg, service.Deps{})
			user, err := services.Auth.Register(ctx, dto.RegisterRequest{Username: username, Password: password})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&username, "username", "", "admin username (3-32 characters)")
	createCmd.Flags().StringVar(&password, "password", "", "admin password (at least 8 characters)")
	createCmd.MarkFlagRequired("username")
	createCmd.MarkFlagRequired("password")

	adminCmd.AddCommand(createCmd)
	return adminCmd
}
