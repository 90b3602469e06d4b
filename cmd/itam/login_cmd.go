package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the backend and store the session tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("ITAM_PASSWORD")
			if password == "" {
				return withCode(exitUsage, fmt.Errorf("set ITAM_PASSWORD to sign in"))
			}
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			u, err := rt.users().Login(cmd.Context(), stringsTrim(email), password)
			if err != nil {
				return classify(err)
			}
			return writeJSONLine(u)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			return classify(rt.users().Logout(cmd.Context()))
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			u, err := rt.users().Current(cmd.Context())
			if err != nil {
				return classify(err)
			}
			return writeJSONLine(u)
		},
	}
}
