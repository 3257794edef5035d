// file: cmd/root.go
// version: 2.0.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdfalk/spit/internal/app"
	"github.com/jdfalk/spit/internal/config"
	"github.com/jdfalk/spit/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "spit",
	Short: "Fetch music metadata from many sources at once",
	Long: `spit asks every configured provider for one kind of music metadata
(cover art, lyrics, relations, biographies, similar artists and more),
then merges the answers into a single de-duplicated, ranked list.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/"+config.ConfigFileName+")")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json or logfmt")
	rootCmd.PersistentFlags().Bool("strict", false, "fail when every provider fails")
	rootCmd.PersistentFlags().String("cache", "", "cache backend: none, memory, pebble or sqlite")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(strings.TrimSuffix(config.ConfigFileName, ".yaml"))
	}

	// Bound here rather than in init so a viper.Reset keeps them.
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("strict", rootCmd.PersistentFlags().Lookup("strict"))
	_ = viper.BindPFlag("cache.type", rootCmd.PersistentFlags().Lookup("cache"))
	bindServeFlags()

	viper.SetEnvPrefix("SPIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("lastfm.api_key", "SPIT_LASTFM_API_KEY", "LASTFM_API_KEY")
}

// loadConfig reads the config file (when present), decodes it into
// config.AppConfig and installs the logger.
func loadConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := config.InitConfig(); err != nil {
		return err
	}

	logger := logging.Setup(logging.Options{
		Level:  config.AppConfig.Log.Level,
		Format: config.AppConfig.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if used := viper.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			logger.Debug("Using config file", "file", used)
		}
	}
	return nil
}

// buildApp wires the current configuration into an application.
func buildApp() (*app.App, error) {
	return app.Build(config.AppConfig, slog.Default())
}
