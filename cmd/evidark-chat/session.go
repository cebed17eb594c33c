package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/akarshrajput/evidark-v2-sub001/internal/auth"
	"github.com/akarshrajput/evidark-v2-sub001/internal/core"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an authentication token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := auth.SaveToken(cmd.Context(), a.Storage(), token)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", s.UserID)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "token issued by the EviDark API")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := auth.ClearToken(cmd.Context(), a.Storage()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user of the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := auth.SessionFromStorage(cmd.Context(), a.Storage())
			if errors.Is(err, core.ErrNoSession) {
				return errors.New("not logged in")
			}
			if err != nil {
				return err
			}

			claims, err := auth.ParseClaims(s.Token)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user: %s\n", s.UserID)
			if !claims.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "expires: %s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}
