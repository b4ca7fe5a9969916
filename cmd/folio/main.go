// Command folio runs the portfolio server and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// configFile is set by the --config flag.
var configFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "folio serves a portfolio site with a single-user CMS",
	Long: `folio serves published projects as HTML, JSON and RSS and exposes an
admin API for editing, ordering and illustrating them.

Configuration comes from folio.yaml, FOLIO_* environment variables and a
.env file in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the folio version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("folio %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./folio.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(exportCmd)
}
