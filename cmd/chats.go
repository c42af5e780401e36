package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var chatsCmd = &cobra.Command{
	Use:   "chats [chatListInfo.edb]",
	Short: "List chat room names from a chatListInfo container",
	Long: `Decrypt a chatListInfo container and print the chat id to display
name mapping.

Example:
  edbtool chats ./chat_data/chatListInfo.edb`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decryptor, err := newDecryptor()
		if err != nil {
			return err
		}

		names, err := decryptor.ChatNames(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		for id, name := range names {
			fmt.Printf("%s\t%s\n", id, name)
		}
		fmt.Printf("%d chat rooms\n", len(names))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatsCmd)
}
