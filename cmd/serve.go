package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/salamyar/salamyar/internal/server"
	"github.com/salamyar/salamyar/pkg/basalam"
	"github.com/salamyar/salamyar/pkg/selection"
	"github.com/salamyar/salamyar/pkg/similar"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the salamyar HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")
		username, _ := cmd.Flags().GetString("auth-user")
		password, _ := cmd.Flags().GetString("auth-pass")
		if username == "" {
			username = viper.GetString("server.username")
		}
		if password == "" {
			password = viper.GetString("server.password")
		}

		client := basalam.NewClient(
			viper.GetString("basalam.search_url"),
			viper.GetString("basalam.mlt_url"),
		)
		if d := viper.GetDuration("basalam.request_timeout"); d > 0 {
			client.Timeout = d
		}
		fetcher := similar.NewFetcher(client)
		fetcher.Cap = viper.GetInt("similar.cap")
		fetcher.PageSize = viper.GetInt("similar.page_size")

		srv := server.New(selection.NewStore(), client, fetcher, username, password)
		srv.Concurrency = viper.GetInt("aggregate.concurrency")
		return srv.Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("auth-user", "", "Basic auth username (empty disables auth)")
	serveCmd.Flags().String("auth-pass", "", "Basic auth password")
}
