package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/go-redis/redis/v8"
	"github.com/jrsteele09/go-tenant-api/auth"
	"github.com/jrsteele09/go-tenant-api/internal/config"
	"github.com/jrsteele09/go-tenant-api/server"
	"github.com/jrsteele09/go-tenant-api/tenants"
	"github.com/jrsteele09/go-tenant-api/tenants/cipher"
	"github.com/jrsteele09/go-tenant-api/tenants/postgres"
	"github.com/jrsteele09/go-tenant-api/tenants/rediscache"
	"github.com/jrsteele09/go-tenant-api/tenants/repofakes"
	"github.com/jrsteele09/go-tenant-api/token"
	"github.com/jrsteele09/go-tenant-api/users"
	userspostgres "github.com/jrsteele09/go-tenant-api/users/postgres"
	"github.com/jrsteele09/go-tenant-api/users/repofake"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("server exited")
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	configureLogging(c)
	displayAppname(c.GetAppName())

	services, cleanup, err := buildServices(c)
	if err != nil {
		return err
	}
	defer cleanup()

	apiServer, err := server.New(c, services)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: apiServer}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

// buildServices composes the domain services. With DATABASE_URL unset the
// service runs on in-memory repositories, which only makes sense for local
// development.
func buildServices(c config.Config) (server.Services, func(), error) {
	cleanup := func() {}

	encryptionKey, err := c.GetEncryptionKey()
	if err != nil {
		return server.Services{}, cleanup, err
	}
	credCipher, err := cipher.New(encryptionKey)
	if err != nil {
		return server.Services{}, cleanup, err
	}

	var (
		tenantRepo tenants.Repo
		userRepo   users.Repo
	)
	if dsn := c.GetDatabaseURL(); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return server.Services{}, cleanup, errors.Wrap(err, "open database")
		}
		if err := db.Ping(); err != nil {
			return server.Services{}, cleanup, errors.Wrap(err, "ping database")
		}
		cleanup = func() { _ = db.Close() }
		tenantRepo = postgres.NewTenantRepo(db)
		userRepo = userspostgres.NewUserRepo(db)
	} else {
		if c.IsProduction() {
			return server.Services{}, cleanup, errors.New("DATABASE_URL is required in production")
		}
		log.Warn().Msg("DATABASE_URL not set, using in-memory repositories")
		tenantRepo = repofakes.NewFakeTenantRepo()
		userRepo = repofake.NewFakeUserRepo()
	}

	if addr := c.GetRedisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rediscache.Ping(ctx, client); err != nil {
			return server.Services{}, cleanup, errors.Wrap(err, "ping redis")
		}
		tenantRepo = rediscache.New(tenantRepo, client, rediscache.DefaultTTL)
		log.Info().Str("addr", addr).Msg("tenant cache enabled")
	}

	directory, err := tenants.NewDirectory(tenantRepo, credCipher)
	if err != nil {
		return server.Services{}, cleanup, err
	}
	userService, err := users.NewService(userRepo)
	if err != nil {
		return server.Services{}, cleanup, err
	}

	accessSecret := c.GetAccessTokenSecret()
	refreshSecret := c.GetRefreshTokenSecret()
	if accessSecret == "" || refreshSecret == "" {
		return server.Services{}, cleanup, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must be set")
	}
	tokenService, err := token.NewService(
		userService,
		token.NewHMACSigner(accessSecret),
		token.NewHMACSigner(refreshSecret),
		token.WithExpiry(c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry()),
		token.WithIssuer(c.GetBaseURL()),
	)
	if err != nil {
		return server.Services{}, cleanup, err
	}
	authService, err := auth.NewService(userService, tokenService)
	if err != nil {
		return server.Services{}, cleanup, err
	}

	return server.Services{
		Directory: directory,
		Users:     userService,
		Tokens:    tokenService,
		Auth:      authService,
	}, cleanup, nil
}

func configureLogging(c config.Config) {
	if c.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
