package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Add a user to the directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		email, _ := cmd.Flags().GetString("email")
		pwd, _ := cmd.Flags().GetString("password")
		firstName, _ := cmd.Flags().GetString("first-name")
		lastName, _ := cmd.Flags().GetString("last-name")

		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.authCtx.CreateUser(cmd.Context(), email, pwd, firstName, lastName)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), u.UserId)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createUserCmd)
	createUserCmd.Flags().String("email", "", "Email address (required)")
	createUserCmd.Flags().String("password", "", "Password (required)")
	createUserCmd.Flags().String("first-name", "", "First name")
	createUserCmd.Flags().String("last-name", "", "Last name")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")
}
