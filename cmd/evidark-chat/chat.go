package main

import (
	"github.com/spf13/cobra"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var room string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join a room and chat interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Chat(cmd.Context(), room, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&room, "room", "", "chat id to join")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}
