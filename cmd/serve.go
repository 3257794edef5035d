// file: cmd/serve.go
// version: 1.0.0
// guid: 937166a9-b637-40a0-b647-5ca42f397a9b

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdfalk/spit/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API. Retrievals are served on /api/v1/get, provider
listings on /api/v1/providers and Prometheus metrics on /metrics.

Changes to the config file are picked up without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.NewServer(a)
		if viper.ConfigFileUsed() != "" {
			srv.WatchConfig(viper.GetViper())
		}
		return srv.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().String("host", "", "host to bind the server to (default from config)")
	serveCmd.Flags().Int("port", 0, "port to run the server on (default from config)")
}

// bindServeFlags maps the serve flags onto config keys. Called from
// initConfig so the bindings survive a viper reset.
func bindServeFlags() {
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
