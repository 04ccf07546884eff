// quotes-admin runs maintenance jobs against the quotes database.
//
// Usage (from backend directory):
//
//	DB_DRIVER=mysql DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/quotes-admin migrate
//	go run ./cmd/quotes-admin export-quotations --from 2025-06-01 --to 2025-06-30 --out june.xlsx
//	go run ./cmd/quotes-admin renumber-check --date 2025-06-01
//	go run ./cmd/quotes-admin import-products --file products.xlsx
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/config"
	"bitbucket.org/mmdatafocus/quotes_backend/models"
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "quotes-admin",
		Short:         "Maintenance jobs for the quotes backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newExportQuotationsCommand())
	root.AddCommand(newRenumberCheckCommand())
	root.AddCommand(newImportProductsCommand())
	return root
}

func openStore() (*models.GormStore, error) {
	db, err := config.ConnectDatabase()
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return models.NewGormStore(db), nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := models.MigrateTable(store.DB()); err != nil {
				return err
			}
			config.GetLogger().WithFields(logrus.Fields{"field": "migrations"}).Info("schema is up to date")
			return nil
		},
	}
}

// parseDateFlag reads an optional YYYY-MM-DD flag in the app timezone.
func parseDateFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(raw, config.AppLocation())
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}

func newExportQuotationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-quotations",
		Short: "Write quotations emitted in a date range to an xlsx file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseDateFlag(cmd, "from")
			if err != nil {
				return err
			}
			to, err := parseDateFlag(cmd, "to")
			if err != nil {
				return err
			}
			if to != nil {
				_, end := utils.DayBounds(*to, config.AppLocation())
				to = &end
			}
			out, _ := cmd.Flags().GetString("out")

			store, err := openStore()
			if err != nil {
				return err
			}
			n, err := writeExport(out, func(w io.Writer) (int, error) {
				return store.ExportQuotations(context.Background(), w, from, to)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d quotations to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().String("out", "quotations.xlsx", "output file")
	cmd.Flags().String("from", "", "first emission date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "last emission date (YYYY-MM-DD)")
	return cmd
}

// writeExport writes to path and removes the file when the export or the
// close fails, so no truncated workbook is left behind.
func writeExport(path string, export func(io.Writer) (int, error)) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return export(f)
}

// newRenumberCheckCommand reports codes handed out twice on one day, which
// can happen when two creates race without SEQUENCE_LOCK_ENABLED.
func newRenumberCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "renumber-check",
		Short: "List quotation and order codes that were issued more than once on a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDateFlag(cmd, "date")
			if err != nil {
				return err
			}
			if day == nil {
				now := time.Now()
				day = &now
			}
			start, end := utils.DayBounds(*day, config.AppLocation())

			store, err := openStore()
			if err != nil {
				return err
			}
			dups, err := store.DuplicateDocumentCodes(context.Background(), start, end)
			if err != nil {
				return err
			}
			if len(dups) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no duplicate codes on %s\n", start.Format("2006-01-02"))
				return nil
			}
			for _, d := range dups {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\n", d.Table, d.Code, d.Count)
			}
			return fmt.Errorf("%d duplicate codes on %s", len(dups), start.Format("2006-01-02"))
		},
	}
	cmd.Flags().String("date", "", "day to check (YYYY-MM-DD, default today)")
	return cmd
}

func newImportProductsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-products",
		Short: "Upsert products by code from an xlsx file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			store, err := openStore()
			if err != nil {
				return err
			}
			n, err := store.ImportProductsFromXlsx(context.Background(), f)
			if err != nil {
				return fmt.Errorf("imported %d products before failing: %w", n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d products\n", n)
			return nil
		},
	}
	cmd.Flags().String("file", "", "xlsx file with code, name, description, unitPrice, unit columns")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
