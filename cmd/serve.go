package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pdfquery/internal/api"
	"pdfquery/internal/config"
	"pdfquery/internal/pdftext"
	"pdfquery/internal/service/ai"
	"pdfquery/internal/service/assistant"
	"pdfquery/internal/session"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := session.NewStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.WithError(err).Warn("close session store failed")
		}
	}()

	chatModel, err := ai.NewChatModel(ctx, cfg.Provider, cfg.ActiveProvider())
	if err != nil {
		return fmt.Errorf("init chat model: %w", err)
	}
	answerer := ai.NewService(chatModel, ai.DefaultRetryPolicy(), logger)

	extractor, err := pdftext.NewExtractor(ctx, config.MaxContentLength)
	if err != nil {
		return err
	}
	assistantService, err := assistant.NewService(assistant.Options{
		UploadDir: cfg.BasicConfig.UploadDir,
		Extractor: extractor,
		Answerer:  answerer,
		Store:     store,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("init assistant service: %w", err)
	}
	if cfg.BasicConfig.JanitorInterval > 0 {
		assistantService.StartTempFileCleaner(ctx, cfg.BasicConfig.JanitorInterval)
	}

	sessions := session.NewManager(store, session.Options{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.CookieSecure,
	}, logger)
	router, err := api.NewRouter(api.NewHandler(assistantService, sessions, logger), logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":     srv.Addr,
			"provider": cfg.Provider,
			"sessions": cfg.Session.Backend,
		}).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
