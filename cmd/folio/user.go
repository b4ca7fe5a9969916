package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/folio-cms/folio/auth"
	"github.com/folio-cms/folio/content"
)

var (
	userEmail    string
	userPassword string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage the admin credential",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the admin user, or reset its password",
	Long: `Create the admin user, or reset its password when the email already
exists. The password is read from --password, FOLIO_ADMIN_PASSWORD, or the
first line of standard input, in that order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configFile)
		if err != nil {
			return err
		}
		password := userPassword
		if password == "" {
			password = os.Getenv("FOLIO_ADMIN_PASSWORD")
		}
		if password == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			if password, err = readLine(cmd.InOrStdin()); err != nil {
				return err
			}
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}

		store, err := content.Open(dbURL(cfg.DatabaseURL))
		if err != nil {
			return err
		}
		defer store.Close()
		u, err := store.UpsertUser(cmd.Context(), userEmail, hash)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("saved admin user %s (id %d)", u.Email, u.ID))
		return nil
	},
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// dbURL applies the same default as folio.SiteConfig for commands that open
// the store directly.
func dbURL(u string) string {
	if u == "" {
		return "data/folio.db"
	}
	return u
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "admin email")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "admin password")
	_ = userCreateCmd.MarkFlagRequired("email")
	userCmd.AddCommand(userCreateCmd)
}
