// Command migrate creates or updates the payments schema.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"paybridge.app/app/internal/config"
	"paybridge.app/app/internal/modules/payments"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dsn string

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the payments and payment_callbacks tables",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "MySQL DSN (defaults to DB_DSN)")

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Create or update the tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open(dsn, false)
			if err != nil {
				return err
			}
			if err := payments.AutoMigrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ payments schema up to date")
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "sql",
		Short: "Print the DDL that up would run, without executing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open(dsn, true)
			if err != nil {
				return err
			}
			return printDDL(cmd.OutOrStdout(), db)
		},
	})

	return root
}

func open(dsn string, dryRun bool) (*gorm.DB, error) {
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		dsn = cfg.DB.DSN
	}
	if dsn == "" {
		return nil, fmt.Errorf("no DSN: pass --dsn or set DB_DSN")
	}

	if dryRun {
		// Skip the version query so no server is needed.
		return gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			SkipInitializeWithVersion: true,
			ServerVersion:             "8.0.0",
		}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, Logger: logger.Discard})
	}
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}

func printDDL(w io.Writer, db *gorm.DB) error {
	for _, m := range []any{&payments.Payment{}, &payments.CallbackLog{}} {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return err
		}
		fmt.Fprintf(w, "-- %s\n", stmt.Schema.Table)
		for _, f := range stmt.Schema.Fields {
			if f.DBName == "" {
				continue
			}
			fmt.Fprintf(w, "--   %-18s %s\n", f.DBName, db.Migrator().FullDataTypeOf(f).SQL)
		}
	}
	return nil
}
