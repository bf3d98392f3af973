package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "skillpod session enforcement server",
	Long:  "DLP policy evaluation, override workflow and watermarking for skillpod sessions",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

// Execute 入口
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

var (
	flagListen    string
	flagDBDriver  string
	flagDBDSN     string
	flagGeoIPPath string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagListen, "listen", "l", "0.0.0.0:25880", "listen address")
	rootCmd.PersistentFlags().StringVarP(&flagDBDriver, "database-type", "t", "sqlite", "database driver (sqlite or mysql)")
	rootCmd.PersistentFlags().StringVarP(&flagDBDSN, "database-dsn", "d", "", "database DSN (sqlite file path or mysql dsn)")
	rootCmd.PersistentFlags().StringVar(&flagGeoIPPath, "geoip", "", "path to a maxmind country mmdb for audit enrichment")
}
