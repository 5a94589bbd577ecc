package main

import (
	"github.com/osr-alliance/backend-lead-capture/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the leads table if it doesn't exist",
	Long:  "Create the leads table if it doesn't exist. Existing leads are never touched.",
	RunE:  runInitDB,
}

func runInitDB(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	c, err := openStore(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer c.Close()

	logrus.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
		"dsn":    cfg.Database.DSN,
	}).Info("leads table ready")
	return nil
}
