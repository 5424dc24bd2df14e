package app

import (
	"context"
	"fmt"
	"time"

	"github.com/henjigg/consumption/internal/consumption/api/server"
	ar "github.com/henjigg/consumption/internal/consumption/repository/authrepo/postgres"
	mc "github.com/henjigg/consumption/internal/consumption/repository/menucache/redis"
	ur "github.com/henjigg/consumption/internal/consumption/repository/userrepo/postgres"
	"github.com/henjigg/consumption/internal/consumption/services/authservice"
	"github.com/henjigg/consumption/internal/consumption/services/userservice"
	"github.com/henjigg/consumption/internal/pkg/config"
	"github.com/henjigg/consumption/pkg/logger"
)

type Server interface {
	Start(context.Context) error
	Shutdown(context.Context) error
}

type ConsumptionApp struct {
	s   Server
	lg  logger.Logger
	cfg config.Config
}

func New(ctx context.Context, cfg config.Config) (ConsumptionApp, error) {
	lg, err := logger.New(cfg.Logger)
	if err != nil {
		return ConsumptionApp{}, fmt.Errorf("can't get logger error: %w", err)
	}

	userRepo, err := ur.New(ctx, cfg.PostgresDB)
	if err != nil {
		return ConsumptionApp{}, fmt.Errorf("postgres user repo initializing error: %w", err)
	}

	authRepo, err := ar.New(ctx, cfg.PostgresDB)
	if err != nil {
		return ConsumptionApp{}, fmt.Errorf("postgres auth repo initializing error: %w", err)
	}

	menuCache, err := mc.New(ctx, cfg.MenuCache)
	if err != nil {
		return ConsumptionApp{}, fmt.Errorf("redis menu cache initializing error: %w", err)
	}

	authService := authservice.New(userRepo, authRepo, menuCache, lg, cfg.PostgresDB.QueryTimeout)
	userService := userservice.New(userRepo, menuCache, lg, cfg.PostgresDB.QueryTimeout)

	if err := userService.EnsureAdmin(ctx, cfg.Admin.Account, cfg.Admin.Password); err != nil {
		return ConsumptionApp{}, fmt.Errorf("ensure admin error: %w", err)
	}

	s := server.New(cfg.Server, userService, authService, lg)

	return ConsumptionApp{
		s:   s,
		lg:  lg,
		cfg: cfg,
	}, nil
}

func (ca *ConsumptionApp) Run(ctx context.Context) {
	ca.lg.Infof("STARTED SERVER ON %s", ca.cfg.Server.Addr)

	go func() {
		if err := ca.s.Start(ctx); err != nil {
			ca.lg.Errorf("server start error: %s", err.Error())
			ctx.Done()

			return
		}
	}()

	<-ctx.Done()

	ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	if err := ca.Stop(ctxS); err != nil { //nolint:contextcheck
		ca.lg.Errorf("server shutdown error: %s", err.Error())
	}
}

func (ca *ConsumptionApp) Stop(ctx context.Context) error {
	if err := ca.s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	ca.lg.Info("Shutdowned successfully")

	return nil
}
