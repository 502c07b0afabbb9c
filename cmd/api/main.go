package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tms-admin/tms-api/internal/handler"
	"github.com/tms-admin/tms-api/internal/models"
	"github.com/tms-admin/tms-api/internal/repository"
	"github.com/tms-admin/tms-api/internal/service"
	"github.com/tms-admin/tms-api/pkg/config"
	"github.com/tms-admin/tms-api/pkg/database"
	"github.com/tms-admin/tms-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database open failed", "provider", cfg.Database.Provider, "error", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.ServerVersion != "" {
		logr.Sugar().Infow("database connected", "provider", cfg.Database.Provider, "server_version", cfg.Database.ServerVersion)
	} else {
		logr.Sugar().Infow("database connected", "provider", cfg.Database.Provider)
	}

	if err := repository.CreateSchema(ctx, db); err != nil {
		logr.Sugar().Fatalw("schema migration failed", "error", err)
	}

	factory := repository.NewFactory(db)
	validate := validator.New()

	metrics := service.NewMetricsService()
	factory.OnSave(metrics.ObserveSaveCycle)

	authCfg := service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		Audience:           cfg.JWT.Audience,
	}

	svcs := handler.Services{
		Auth:         service.NewAuthService(factory.New().Users, validate, logr, authCfg),
		Participants: service.NewParticipantService(factory, validate, logr),
		Trainings:    service.NewTrainingService(factory, validate, logr),
		Enrollments:  service.NewEnrollmentService(factory, validate, logr),
		Allowances:   service.NewAllowanceService(factory, validate, logr),
		Exports:      service.NewExportService(factory, logr),
		Metrics:      metrics,

		Departments: service.NewLookupService[models.Department, *models.Department](factory, func(u *repository.UnitOfWork) service.LookupStore[models.Department] {
			return u.Departments
		}, "department", validate, logr),
		Facilities: service.NewLookupService[models.Facility, *models.Facility](factory, func(u *repository.UnitOfWork) service.LookupStore[models.Facility] {
			return u.Facilities
		}, "facility", validate, logr),
		Designations: service.NewLookupService[models.Designation, *models.Designation](factory, func(u *repository.UnitOfWork) service.LookupStore[models.Designation] {
			return u.Designations
		}, "designation", validate, logr),
		SalaryScales: service.NewLookupService[models.SalaryScale, *models.SalaryScale](factory, func(u *repository.UnitOfWork) service.LookupStore[models.SalaryScale] {
			return u.SalaryScales
		}, "salary scale", validate, logr),
		Sponsors: service.NewLookupService[models.Sponsor, *models.Sponsor](factory, func(u *repository.UnitOfWork) service.LookupStore[models.Sponsor] {
			return u.Sponsors
		}, "sponsor", validate, logr),
		AllowanceTypes: service.NewLookupService[models.AllowanceType, *models.AllowanceType](factory, func(u *repository.UnitOfWork) service.LookupStore[models.AllowanceType] {
			return u.AllowanceTypes
		}, "allowance type", validate, logr),
		AllowanceStatuses: service.NewLookupService[models.AllowanceStatus, *models.AllowanceStatus](factory, func(u *repository.UnitOfWork) service.LookupStore[models.AllowanceStatus] {
			return u.AllowanceStatuses
		}, "allowance status", validate, logr),
	}

	router := handler.NewRouter(cfg, logr, svcs)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logr.Sugar().Fatalw("server failed", "error", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
		return
	}
	logr.Sugar().Infow("server stopped")
}
