package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seanshin0214/kakaotalk-mcp/internal/edb"
)

var (
	messagesKeyword string
	messagesLimit   int
	messagesJSON    bool
)

var messagesCmd = &cobra.Command{
	Use:   "messages [container.edb]",
	Short: "Extract message rows from a container",
	Long: `Decrypt one container and extract its most recent message rows,
optionally filtered by keyword.

Examples:
  edbtool messages ./chat_data/chatLogs_12345.edb
  edbtool messages ./chat_data/chatLogs_12345.edb --keyword deadline --limit 20 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decryptor, err := newDecryptor()
		if err != nil {
			return err
		}

		rows, report, err := decryptor.ExtractMessages(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if messagesKeyword != "" {
			rows = edb.SearchRows(rows, messagesKeyword, messagesLimit)
		} else if messagesLimit > 0 && len(rows) > messagesLimit {
			rows = rows[:messagesLimit]
		}

		for _, failure := range report.Failed() {
			fmt.Fprintf(os.Stderr, "warning: table %s skipped: %v\n", failure.Table, failure.Err)
		}

		if messagesJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(rows)
		}

		for _, row := range rows {
			fmt.Println(edb.MessageText(row))
		}
		fmt.Fprintf(os.Stderr, "%d rows extracted\n", len(rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(messagesCmd)

	messagesCmd.Flags().StringVarP(&messagesKeyword, "keyword", "k", "", "filter rows by keyword")
	messagesCmd.Flags().IntVarP(&messagesLimit, "limit", "n", 0, "maximum rows to print (0 = no limit)")
	messagesCmd.Flags().BoolVar(&messagesJSON, "json", false, "print rows as JSON")
}
