package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/jmoiron/sqlx"
	"github.com/karrelday/TaraLaba/internal/broker"
	"github.com/karrelday/TaraLaba/internal/cache"
	"github.com/karrelday/TaraLaba/internal/config"
	"github.com/karrelday/TaraLaba/internal/entities"
	"github.com/karrelday/TaraLaba/internal/handler"
	"github.com/karrelday/TaraLaba/internal/mailer"
	"github.com/karrelday/TaraLaba/internal/orderflow"
	"github.com/karrelday/TaraLaba/internal/outbox"
	"github.com/karrelday/TaraLaba/internal/server"
	"github.com/karrelday/TaraLaba/internal/services/jwttoken"
	"github.com/karrelday/TaraLaba/internal/services/password"
	"github.com/karrelday/TaraLaba/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	os.Exit(start())
}

func start() int {
	config, err := config.NewConfig(os.Args[1:])
	if err != nil {
		zap.L().Info("error create config", zap.Error(err))
		return 1
	}

	logger, err := newLogger(config.LogLevel)
	if err != nil {
		zap.L().Info("error create logger", zap.Error(err))
		return 1
	}

	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := sqlx.Connect("postgres", config.DatabaseURI)
	if err != nil {
		zap.L().Info("error failed to connect to db", zap.Error(err))
		return 1
	}

	defer db.Close()

	postgresStorage, err := storage.NewPostgresStorage(ctx, db)
	if err != nil {
		zap.L().Info("error failed to create postgres storage", zap.Error(err))
		return 1
	}

	if err := ensureAdmin(ctx, postgresStorage, config); err != nil {
		zap.L().Info("error ensure admin account", zap.Error(err))
		return 1
	}

	var redisClient *redis.Client
	if config.RedisAddr != "" {
		redisClient = cache.NewRedisClient(config.RedisAddr, config.RedisPassword, config.RedisDB)
		defer redisClient.Close()
	}

	var (
		users  = cache.NewUsers(postgresStorage, redisClient, config.UserCacheTTL)
		tokens = jwttoken.NewManager(config.TokenSecret, config.TokenTTL)
		flow   = orderflow.NewFlow(postgresStorage)
		relay  = outbox.NewRelay(postgresStorage, outbox.Options{
			Schedule:    config.OutboxSchedule,
			BatchSize:   config.OutboxBatch,
			MaxAttempts: config.OutboxMaxAttempts,
			Workers:     config.OutboxWorkers,
		})
	)

	if err := users.Ping(ctx); err != nil {
		zap.L().Warn("redis unavailable, user lookups hit the database", zap.Error(err))
	}

	relay.Register(entities.TopicEmail, outbox.EmailSink(mailer.NewMailer(config.MailRelayAddress, config.MailFrom, config.MailAPIKey)))

	if config.AMQPURL != "" {
		publisher, err := broker.Dial(config.AMQPURL, config.AMQPExchange)
		if err != nil {
			zap.L().Info("error connect to broker", zap.Error(err))
			return 1
		}

		defer publisher.Close()

		relay.Register(entities.TopicOrderPlaced, outbox.EventSink(publisher))
		relay.Register(entities.TopicOrderStatusChanged, outbox.EventSink(publisher))
	}

	server := server.NewServer(config, handler.NewHandler(postgresStorage, flow, tokens, users), users, tokens)

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := server.Start(); err != nil {
			zap.L().Info("error starting server", zap.Error(err))
			return err
		}

		return nil
	})

	eg.Go(func() error {
		if err := relay.Start(ctx); err != nil {
			zap.L().Info("error starting outbox relay", zap.Error(err))
			return err
		}

		return nil
	})

	<-ctx.Done()

	eg.Go(func() error {
		if err := server.Stop(); err != nil {
			zap.L().Info("error stopping server", zap.Error(err))
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return 1
	}

	return 0
}

func newLogger(level string) (*zap.Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = atomicLevel

	return loggerConfig.Build()
}

// ensureAdmin creates the configured admin account unless the user name is already taken.
func ensureAdmin(ctx context.Context, s storage.Storage, config config.Config) error {
	if config.AdminUserName == "" || config.AdminPassword == "" {
		return nil
	}

	_, err := s.GetUserByUserName(ctx, config.AdminUserName)
	if err == nil {
		return nil
	}

	if !errors.Is(err, storage.ErrNoRows) {
		return err
	}

	passwordHash, err := password.Hash(config.AdminPassword)
	if err != nil {
		return err
	}

	admin, err := s.CreateUser(ctx, entities.User{
		FirstName:   "System",
		LastName:    "Administrator",
		UserName:    config.AdminUserName,
		Email:       config.AdminEmail,
		Password:    passwordHash,
		Role:        entities.RoleAdmin,
		Permissions: entities.PermissionsForRole(entities.RoleAdmin),
	})
	if err != nil {
		return err
	}

	zap.L().Info("admin account created", zap.String("userID", admin.ID))

	return nil
}
