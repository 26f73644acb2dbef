package main

import (
	"context"
	"fmt"
	"strings"

	"waypoint/account"
	"waypoint/persistence"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage login accounts",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a login account with roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		nickname, _ := cmd.Flags().GetString("nickname")
		password, _ := cmd.Flags().GetString("password")
		roles, _ := cmd.Flags().GetStringSlice("roles")

		ds, err := startDataSource()
		if err != nil {
			return err
		}
		defer ds.Stop()

		accounts := account.NewAccounts(ds)
		if err := accounts.Migrate(); err != nil {
			return err
		}
		user, err := accounts.Create(context.Background(), name, nickname, password, roles)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "user %s created with id %s and roles [%s]\n", user.Name, user.ID.String(), strings.Join(user.Perms(), ","))
		return nil
	},
}

func startDataSource() (*persistence.DataSourceManager, error) {
	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("parse database config failed: %w", err)
	}
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			return nil, fmt.Errorf("failed to prepare database: %w", err)
		}
	}
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return ds, nil
}

func init() {
	usersCreateCmd.Flags().String("name", "", "Login name")
	usersCreateCmd.Flags().String("nickname", "", "Display name")
	usersCreateCmd.Flags().String("password", "", "Login password")
	usersCreateCmd.Flags().StringSlice("roles", nil, "Roles granted to the user")
	_ = usersCreateCmd.MarkFlagRequired("name")
	_ = usersCreateCmd.MarkFlagRequired("password")
	usersCmd.AddCommand(usersCreateCmd)
	rootCmd.AddCommand(usersCmd)
}
