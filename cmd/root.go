package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/seanshin0214/kakaotalk-mcp/internal/credentials"
	"github.com/seanshin0214/kakaotalk-mcp/internal/device"
	"github.com/seanshin0214/kakaotalk-mcp/internal/edb"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "edbtool",
	Short: "Recover plaintext from KakaoTalk EDB containers",
	Long: `edbtool recovers plaintext SQLite databases from the encrypted .edb
containers the KakaoTalk desktop client keeps on disk, without the user ever
supplying a key. The container key is derived from machine-identifying
secrets; the unknown per-installation user id is recovered by a bounded
brute-force search validated against the SQLite header.

Device secrets and network adapter identifiers are supplied through the
config file or environment (EDBTOOL_* variables), e.g.:

  device:
    uuid: "..."
    model: "..."
    serial: "..."
    network_keys:
      - "{96C2F3B1-DB13-4D4E-8C5A-01FE2D8E1A90}"

Commands:
  credentials  Run the credential search against a container
  decrypt      Decrypt a container to a plaintext SQLite file
  messages     Extract message rows from a container
  chats        List chat room names from a chatListInfo container`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./edbtool.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("edbtool")
	}

	viper.SetEnvPrefix("EDBTOOL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("search.max_attempts", credentials.DefaultMaxAttempts)
	viper.SetDefault("search.workers", 1)
	viper.SetDefault("search.reuse_policy", "trust-cache")

	// A missing config file is fine; secrets may arrive via environment.
	_ = viper.ReadInConfig()
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// newDecryptor wires a decryptor from the active configuration.
func newDecryptor() (*edb.Decryptor, error) {
	logger := newLogger()

	policy, err := credentials.ParseReusePolicy(viper.GetString("search.reuse_policy"))
	if err != nil {
		return nil, err
	}

	opts := edb.Options{
		Logger: logger,
		Search: credentials.Options{
			MaxAttempts: viper.GetInt("search.max_attempts"),
			Workers:     viper.GetInt("search.workers"),
			ReusePolicy: policy,
			Progress: func(attempted, bound int) {
				logger.Info().Int("attempted", attempted).Int("bound", bound).Msg("searching user id")
			},
		},
	}

	return edb.NewDecryptor(device.NewConfigProvider(viper.GetViper()), opts)
}
