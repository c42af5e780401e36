package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials [container.edb]",
	Short: "Run the credential search against a container",
	Long: `Run the brute-force credential search against one encrypted container
and print the recovered network key, user id, and pragma.

Example:
  edbtool credentials ./chat_data/chatLogs_12345.edb`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decryptor, err := newDecryptor()
		if err != nil {
			return err
		}

		creds, err := decryptor.Credentials(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Network key: %s\n", hex.EncodeToString(creds.NetworkKey[:]))
		fmt.Printf("User id:     %d\n", creds.UserID)
		fmt.Printf("Pragma:      %s\n", creds.Pragma)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
}
