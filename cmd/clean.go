package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pdfquery/internal/config"
	"pdfquery/internal/pdftext"
	"pdfquery/internal/service/assistant"
	"pdfquery/internal/session"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every leftover file from the upload directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadLocal(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}
		extractor, err := pdftext.NewExtractor(cmd.Context(), config.MaxContentLength)
		if err != nil {
			return err
		}
		svc, err := assistant.NewService(assistant.Options{
			UploadDir: cfg.BasicConfig.UploadDir,
			Extractor: extractor,
			Store:     session.NewMemoryStore(cfg.Session.TTL),
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		removed := svc.CleanTempFiles(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d file(s) from %s\n", removed, svc.UploadDir())
		return nil
	},
}
