package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"school-directory/config"
	"school-directory/controllers"
	"school-directory/driver"
	"school-directory/imagehost"
	"school-directory/repository"
	"school-directory/utils"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log, err := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("init logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := driver.ConnectDB(ctx, cfg.DB)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	defer db.Close()

	if err := driver.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("migrate database")
	}

	images, err := imagehost.New(cfg.Image)
	if err != nil {
		log.WithError(err).Fatal("init image host")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(log, db, repository.NewSchoolRepository(db), images, cfg.Image.MaxBytes),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": cfg.HTTPAddr, "image_host": cfg.Image.Host}).Info("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}

func newRouter(log logrus.FieldLogger, db controllers.Pinger, store controllers.SchoolStore, images imagehost.Uploader, maxImageBytes int64) http.Handler {
	controller := controllers.Controller{Log: log}
	schoolController := controllers.SchoolController{
		Log:           log,
		Validate:      utils.NewValidator(),
		MaxImageBytes: maxImageBytes,
	}

	router := mux.NewRouter()
	router.NotFoundHandler = controller.NotFound()
	router.MethodNotAllowedHandler = controller.MethodNotAllowed()

	router.HandleFunc("/api/schools/add", schoolController.AddSchool(store, images)).Methods("POST")
	router.HandleFunc("/api/schools/list", schoolController.GetSchools(store)).Methods("GET")
	router.HandleFunc("/api/health", controller.Health(db)).Methods("GET")

	return utils.RequestLogger(log)(router)
}
