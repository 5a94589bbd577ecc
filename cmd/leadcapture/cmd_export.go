package main

import (
	"fmt"
	"os"

	"github.com/osr-alliance/backend-lead-capture/config"
	"github.com/osr-alliance/backend-lead-capture/export"
	"github.com/spf13/cobra"
)

var exportFlags struct {
	out string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every lead to an Excel file, newest first",
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportFlags.out, "out", "o", "leads.xlsx", "Output file path")
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	// no cache; read straight from the db
	c, err := openStore(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer c.Close()

	leads, err := c.store.ListLeads(cmd.Context())
	if err != nil {
		return err
	}

	out, err := os.Create(exportFlags.out)
	if err != nil {
		return fmt.Errorf("create %s: %w", exportFlags.out, err)
	}
	if err := export.Write(out, leads); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "exported %d leads to %s\n", len(leads), exportFlags.out)
	return nil
}
