package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var decryptOut string

var decryptCmd = &cobra.Command{
	Use:   "decrypt [container.edb]",
	Short: "Decrypt a container to a plaintext SQLite file",
	Long: `Decrypt one encrypted container and write the recovered SQLite
database to the given output path.

Example:
  edbtool decrypt ./chat_data/chatLogs_12345.edb --out ./chatLogs_12345.db`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decryptor, err := newDecryptor()
		if err != nil {
			return err
		}

		plaintext, err := decryptor.DecryptFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if err := os.WriteFile(decryptOut, plaintext, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", decryptOut, err)
		}

		fmt.Printf("Decrypted %d bytes to %s\n", len(plaintext), decryptOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decryptCmd)

	decryptCmd.Flags().StringVarP(&decryptOut, "out", "o", "", "output path for the plaintext database (required)")
	decryptCmd.MarkFlagRequired("out")
}
