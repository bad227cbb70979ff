package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conduitlabs/conduit/backend/internal/articles"
	"github.com/conduitlabs/conduit/backend/internal/auth"
	"github.com/conduitlabs/conduit/backend/internal/config"
	"github.com/conduitlabs/conduit/backend/internal/database"
	"github.com/conduitlabs/conduit/backend/internal/logging"
	"github.com/conduitlabs/conduit/backend/internal/server"
	"github.com/conduitlabs/conduit/backend/internal/social"
	"github.com/conduitlabs/conduit/backend/internal/users"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "conduit-api",
		Short: "Conduit blogging platform backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("token.ttl_minutes"), "Bearer token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Token signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "token.ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	tokenIssuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        appConfig.TokenIssuer,
		Audience:      appConfig.TokenAudience,
		TokenTTL:      appConfig.TokenTTL,
	})

	userService, err := users.NewService(users.ServiceConfig{
		Database:   db,
		IDProvider: users.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	followGraph, err := social.NewGraph(social.GraphConfig{
		Database: db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	articleStore, err := articles.NewStore(articles.StoreConfig{
		Database:   db,
		IDProvider: articles.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	favoriteTracker, err := articles.NewFavorites(db, time.Now)
	if err != nil {
		return err
	}

	tagCatalog, err := articles.NewCatalog(db)
	if err != nil {
		return err
	}

	articleQuery, err := articles.NewQuery(articles.QueryConfig{
		Store:     articleStore,
		Favorites: favoriteTracker,
		Follows:   followGraph,
		Authors:   server.NewAuthorResolver(userService),
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Tokens:    tokenIssuer,
		Users:     userService,
		Store:     articleStore,
		Favorites: favoriteTracker,
		Catalog:   tagCatalog,
		Follows:   followGraph,
		Query:     articleQuery,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
