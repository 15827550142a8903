package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/vacation-engine/api"
	"github.com/warp/vacation-engine/seed"
)

var (
	seedYear int

	importAdminEmail string
	importHREmail    string

	resetConfirm bool

	tokenTTL time.Duration
)

func init() {
	rootCmd.AddCommand(migrateCmd, seedHolidaysCmd, importEmployeesCmd, resetRequestsCmd, tokenCmd)

	seedHolidaysCmd.Flags().IntVar(&seedYear, "year", time.Now().Year(), "calendar year to seed")

	importEmployeesCmd.Flags().StringVar(&importAdminEmail, "admin-email", "", "email that receives the admin role")
	importEmployeesCmd.Flags().StringVar(&importHREmail, "hr-email", "", "email that receives the hr role")

	resetRequestsCmd.Flags().BoolVar(&resetConfirm, "yes", false, "confirm deletion")

	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		a.logger.Info("database migrated", "path", a.cfg.Database.Path)
		return nil
	},
}

var seedHolidaysCmd = &cobra.Command{
	Use:   "seed-holidays",
	Short: "Load the institution's holiday calendar for a year",
	Long: `Load the general and campus holidays for --year.

Holidays already present (same date, location and name) are skipped, so the
command can be re-run safely.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		inserted, err := seed.SeedHolidays(cmd.Context(), a.store, seedYear)
		if err != nil {
			return err
		}
		a.logger.Info("holidays seeded", "year", seedYear, "inserted", inserted, "total", len(seed.Holidays(seedYear)))
		fmt.Fprintf(cmd.OutOrStdout(), "%d holidays added for %d\n", inserted, seedYear)
		return nil
	},
}

var importEmployeesCmd = &cobra.Command{
	Use:   "import-employees <file.csv>",
	Short: "Upsert staff from a CSV export",
	Long: `Import employees from a CSV with the columns CORREO, NOMBRES, AREA,
CORREO_JEFE and NOMBRE_JEFE. The delimiter may be ";" or ",".

Each employee is keyed by lower-cased email. A boss that has no row of their
own is created from the boss columns. Everyone named as a boss becomes a
manager. Existing vacation periods are not touched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := seed.ImportEmployees(cmd.Context(), f, a.service(a.store), seed.ImportOptions{
			AdminEmail: importAdminEmail,
			HREmail:    importHREmail,
		})
		if err != nil {
			return err
		}
		for _, s := range res.Skipped {
			a.logger.Warn("import row skipped", "reason", s)
		}
		a.logger.Info("employees imported", "employees", res.Employees, "ghosts", res.Ghosts, "links", res.Links, "skipped", len(res.Skipped))
		fmt.Fprintf(cmd.OutOrStdout(), "%d employees (%d created from boss columns), %d manager links, %d skipped\n",
			res.Employees, res.Ghosts, res.Links, len(res.Skipped))
		return nil
	},
}

var resetRequestsCmd = &cobra.Command{
	Use:   "reset-requests",
	Short: "Delete every vacation period, change request and audit entry",
	Long: `Delete every vacation period together with its modification and
suspension requests and its audit history. Employees, policies, holidays and
settings are kept. Requires --yes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirm {
			return errors.New("refusing to delete requests without --yes")
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.store.ResetRequests(cmd.Context())
		if err != nil {
			return err
		}
		a.logger.Warn("requests reset", "periods_removed", removed)
		fmt.Fprintf(cmd.OutOrStdout(), "%d periods removed\n", removed)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <employee-id>",
	Short: "Print a bearer token for an employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.store.GetEmployee(cmd.Context(), args[0]); err != nil {
			return err
		}
		tok, err := api.NewAuthenticator(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer).Issue(args[0], tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}
