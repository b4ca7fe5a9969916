package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/folio-cms/folio/content"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write published projects as Markdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configFile)
		if err != nil {
			return err
		}
		store, err := content.Open(dbURL(cfg.DatabaseURL))
		if err != nil {
			return err
		}
		defer store.Close()

		md, err := store.ExportMarkdown(cmd.Context())
		if err != nil {
			return err
		}
		if exportOut == "" {
			fmt.Fprintln(cmd.OutOrStdout(), md)
			return nil
		}
		if err := os.WriteFile(exportOut, []byte(md+"\n"), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", exportOut, err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("exported to %s", exportOut))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: stdout)")
}
