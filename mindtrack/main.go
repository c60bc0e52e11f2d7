package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mindtrack/mindtrack/config"
	"mindtrack/mindtrack/controllers"
	"mindtrack/mindtrack/routes"
	"mindtrack/mindtrack/services/classifier"
	"mindtrack/mindtrack/services/composer"
	"mindtrack/mindtrack/sources/psql"
	"mindtrack/mindtrack/sources/psql/dao"
	"mindtrack/mindtrack/sources/storage"
	"mindtrack/mindtrack/utils/logging"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	if err := logging.InitLogger(cfg.LogDir); err != nil {
		panic(err)
	}
	if err := run(cfg); err != nil {
		logging.ErrorLogger.Error("server exited", zap.Error(err))
		logging.Sync()
		os.Exit(1)
	}
	logging.Sync()
}

// run owns every resource so deferred cleanup happens before main exits.
func run(cfg config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		return pkgerrors.Wrap(err, "database connection")
	}
	defer db.Close()

	catalog := composer.DefaultCatalog()
	if cfg.TemplatesFile != "" {
		catalog, err = composer.LoadCatalog(cfg.TemplatesFile)
		if err != nil {
			return pkgerrors.Wrap(err, "response templates")
		}
	}

	userDAO := dao.NewUserDAO(db.DB)
	authCtrl := controllers.NewAuthController(userDAO, cfg)
	userCtrl := controllers.NewUserController(userDAO)
	journalCtrl := controllers.NewJournalController(dao.NewJournalDAO(db.DB))
	chatCtrl := controllers.NewChatController(
		dao.NewChatSessionDAO(db.DB),
		dao.NewChatMessageDAO(db.DB),
		classifier.NewClient(cfg.MLAPIURL, cfg.MLTimeout),
		composer.New(catalog, nil),
	)

	minioClient, err := storage.NewMinIOClient(ctx, cfg)
	if err != nil {
		return pkgerrors.Wrap(err, "minio connection")
	}
	if minioClient != nil {
		chatCtrl.WithTranscripts(minioClient)
	} else {
		logging.AppLogger.Info("MINIO_ENDPOINT not set, transcript export disabled")
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return pkgerrors.Wrap(err, "database handle")
	}

	r := routes.NewRouter(routes.Controllers{
		Auth:    authCtrl,
		User:    userCtrl,
		Journal: journalCtrl,
		Chat:    chatCtrl,
		Health:  controllers.NewHealthController(sqlDB),
	}, cfg)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	listenErr := make(chan error, 1)
	go func() {
		logging.AppLogger.Info("server listening", zap.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		return pkgerrors.Wrap(err, "server listen")
	case <-sigCh:
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return pkgerrors.Wrap(err, "server shutdown")
	}
	logging.AppLogger.Info("server shutdown complete")
	return nil
}
