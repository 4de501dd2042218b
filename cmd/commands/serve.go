package commands

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"teamchat/backend/internal/api/handler"
	"teamchat/backend/internal/auth"
	"teamchat/backend/internal/chathub"
	"teamchat/backend/internal/config"
	"teamchat/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the chat hub",
	RunE:  runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("bind", "b", ":8080", "Bind the server to host:port. Leave host empty to bind to all interfaces.")
	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	serveCmd.Flags().Bool("dev-tokens", false, "Enable POST /auth/token. Never use in production.")
	viper.BindPFlag("auth.allowDevTokens", serveCmd.Flags().Lookup("dev-tokens"))
	serveCmd.Flags().StringP("log-level", "l", "info", "Log level (debug, info, warn, error)")
	viper.BindPFlag("log.level", serveCmd.Flags().Lookup("log-level"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return err
	}
	l, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	log = l
	if log.Level < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(cfg.Database.DSN)
	if err != nil {
		return err
	}
	rdb, err := openRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	store := storage.NewStorageService(db, rdb)
	if cfg.Database.AutoMigrate {
		if err := store.Migrate(); err != nil {
			return err
		}
	}

	hub := chathub.NewManagerService(store, log, chathub.Options{
		Shards:      cfg.Hub.Shards,
		PushTimeout: cfg.Hub.PushTimeout,
	})

	opts := handler.Options{
		AllowedOrigins: cfg.Hub.AllowedOrigins,
		Pump: chathub.PumpOptions{
			SendBuffer:     cfg.Hub.SendBuffer,
			MaxMessageSize: cfg.Hub.MaxMessageSize,
			WriteWait:      cfg.Hub.WriteWait,
			PongWait:       cfg.Hub.PongWait,
			PingPeriod:     cfg.Hub.PingPeriod,
		},
	}
	if rdb != nil {
		hub.UseMembershipBus(store)
		hub.StartMembershipListener(ctx)
		opts.Presence = store
	}
	if cfg.Auth.AllowDevTokens {
		log.Warn("Dev token issuing is enabled on POST /auth/token")
		opts.Issuer = auth.NewTokenIssuer([]byte(cfg.Auth.SigningKey), cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	}

	verifier := auth.NewTokenVerifier([]byte(cfg.Auth.SigningKey), cfg.Auth.Issuer, cfg.Auth.Leeway)
	h := handler.NewHandler(hub, verifier, log, opts)

	server := &http.Server{
		Addr:           cfg.Server.Bind,
		Handler:        h.Router(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"bind": cfg.Server.Bind, "instance": hub.InstanceID()}).Info("Starting teamchat hub")
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server did not stop cleanly")
	}
	// Hijacked WebSocket connections are not tracked by http.Server.
	if err := hub.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Some connections were not closed")
	}
	log.WithField("stats", hub.Stats()).Info("Stopped")
	return nil
}

func openDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect PostgreSQL")
	}
	return db, nil
}

// openRedis returns nil when Redis is not configured.
func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrap(err, "connect Redis")
	}
	return rdb, nil
}
