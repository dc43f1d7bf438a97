package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"firebase.google.com/go/v4/messaging"
	"github.com/SherClockHolmes/webpush-go"

	firebase "firebase.google.com/go/v4"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-notification-badge/badgeservice"
	"github.com/tinywideclouds/go-notification-badge/badgeservice/config"
	"github.com/tinywideclouds/go-notification-badge/internal/api"
	"github.com/tinywideclouds/go-notification-badge/internal/bridge"
	"github.com/tinywideclouds/go-notification-badge/internal/coordinator"
	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/internal/native"
	"github.com/tinywideclouds/go-notification-badge/internal/platform/apns"
	"github.com/tinywideclouds/go-notification-badge/internal/platform/fcm"
	"github.com/tinywideclouds/go-notification-badge/internal/platform/remote"
	"github.com/tinywideclouds/go-notification-badge/internal/platform/web"
	"github.com/tinywideclouds/go-notification-badge/internal/provider"
	"github.com/tinywideclouds/go-notification-badge/internal/storage/cache"
	"github.com/tinywideclouds/go-notification-badge/internal/storage/file"
	fsStore "github.com/tinywideclouds/go-notification-badge/internal/storage/firestore"
	"github.com/tinywideclouds/go-notification-badge/internal/storage/memory"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gopkg.in/yaml.v3"
)

//go:embed local.yaml
var configFile []byte

func main() {
	var logLevel slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug", "DEBUG":
		logLevel = slog.LevelDebug
	case "info", "INFO":
		logLevel = slog.LevelInfo
	case "warn", "WARN":
		logLevel = slog.LevelWarn
	case "error", "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})).With("service", "go-notification-badge")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Config Loading ---
	var yamlCfg config.YamlConfig
	if err := yaml.Unmarshal(configFile, &yamlCfg); err != nil {
		logger.Error("Failed to unmarshal embedded yaml config", "err", err)
		os.Exit(1)
	}
	baseCfg, err := config.NewConfigFromYaml(&yamlCfg, logger)
	if err != nil {
		logger.Error("Failed to map yaml config", "err", err)
		os.Exit(1)
	}
	cfg, err := config.UpdateConfigWithEnvOverrides(baseCfg, logger)
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	// --- Badge Store ---
	store, closeStore, err := newBadgeStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Badge store failed", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	// --- Auth ---
	identityURL := os.Getenv("IDENTITY_SERVICE_URL")
	if identityURL == "" {
		identityURL = "http://localhost:3000"
	}
	jwksURL, err := middleware.DiscoverAndValidateJWTConfig(identityURL, middleware.RSA256, logger)
	if err != nil {
		logger.Error("JWT config discovery failed", "identity_url", identityURL, "err", err)
		os.Exit(1)
	}
	authMiddleware, err := middleware.NewJWKSAuthMiddleware(jwksURL, logger)
	if err != nil {
		logger.Error("Auth middleware failed", "err", err)
		os.Exit(1)
	}

	// --- Platform Backend ---
	var (
		backend   bridge.Backend
		lifecycle api.Lifecycle
	)
	switch cfg.Platform {
	case config.PlatformBroadcast:
		backend, err = newBroadcastBackend(ctx, cfg, store, logger)
	case config.PlatformNative:
		var facade *native.Facade
		var queue *native.MainQueue
		facade, queue, err = newNativeBackend(ctx, cfg, store, logger)
		if queue != nil {
			defer queue.Close()
		}
		backend, lifecycle = facade, facade
	}
	if err != nil {
		logger.Error("Platform backend failed", "platform", cfg.Platform, "err", err)
		os.Exit(1)
	}
	logger.Info("Platform backend initialized", "platform", cfg.Platform)

	// --- Consumer (optional) ---
	var consumer messagepipeline.MessageConsumer
	if cfg.PipelineEnabled() {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			logger.Error("PubSub client failed", "err", err)
			os.Exit(1)
		}
		defer psClient.Close()

		consumer, err = newIngestionConsumer(ctx, cfg, psClient, logger)
		if err != nil {
			logger.Error("Ingestion consumer failed", "err", err)
			os.Exit(1)
		}
	}

	service, err := badgeservice.New(cfg, consumer, backend, lifecycle, authMiddleware, logger)
	if err != nil {
		logger.Error("Service creation failed", "err", err)
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := service.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", "err", err)
		}
	}()

	logger.Info("Starting service...", "addr", cfg.ListenAddr)
	if err := service.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Service shutdown with error", "err", err)
		os.Exit(1)
	}
}

// newBadgeStore returns the configured store and a cleanup func for its clients.
func newBadgeStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (badge.Store, func(), error) {
	noop := func() {}

	switch cfg.Store.Backend {
	case config.StoreFile:
		logger.Info("BadgeStore initialized", "type", "file", "path", cfg.Store.Path)
		return file.NewStore(cfg.Store.Path), noop, nil

	case config.StoreRedis:
		redisClient, err := newRedisClient(cfg, logger)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("BadgeStore initialized", "type", "redis")
		return cache.NewRedisStore(redisClient), func() { _ = redisClient.Close() }, nil

	case config.StoreFirestore:
		fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, noop, fmt.Errorf("firestore client failed: %w", err)
		}
		var store badge.Store = fsStore.NewFirestoreStore(fsClient, cfg.Store.Collection)
		logger.Info("BadgeStore initialized", "type", "firestore")

		if !cfg.Redis.Enabled {
			return store, func() { _ = fsClient.Close() }, nil
		}
		redisClient, err := newRedisClient(cfg, logger)
		if err != nil {
			_ = fsClient.Close()
			return nil, noop, err
		}
		logger.Info("BadgeStore upgraded", "type", "redis_cached_firestore", "ttl", cfg.Store.CacheTTL)
		return cache.NewCachedStore(store, redisClient, cfg.Store.CacheTTL, logger), func() {
			_ = redisClient.Close()
			_ = fsClient.Close()
		}, nil

	default:
		logger.Warn("BadgeStore is in-memory; counts are lost on restart")
		return memory.NewStore(), noop, nil
	}
}

func newRedisClient(cfg *config.Config, logger *slog.Logger) (*cache.RedisClient, error) {
	logger.Info("Connecting to Redis...", "addr", cfg.Redis.Addr)
	client, err := cache.NewRedisClient(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func newMessagingClient(ctx context.Context, cfg *config.Config) (*messaging.Client, error) {
	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase App: %w", err)
	}
	client, err := fbApp.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create FCM messaging client: %w", err)
	}
	return client, nil
}

// newBroadcastBackend runs the vendor provider chain against the configured
// device, relaying every launcher call through FCM.
func newBroadcastBackend(ctx context.Context, cfg *config.Config, store badge.Store, logger *slog.Logger) (bridge.Backend, error) {
	if cfg.Device.FCMToken == "" {
		return nil, fmt.Errorf("broadcast platform requires device.fcm_token (or FCM_TOKEN env var)")
	}
	client, err := newMessagingClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	activities := map[string]string{}
	if cfg.Device.PackageName != "" && cfg.Device.LauncherActivity != "" {
		activities[cfg.Device.PackageName] = cfg.Device.LauncherActivity
	}
	relay := fcm.NewRelay(client, fcm.RelayConfig{
		DeviceToken:        cfg.Device.FCMToken,
		LauncherActivities: activities,
	}, logger)

	host := relay.Host()
	if err := host.Validate(); err != nil {
		return nil, err
	}

	identity := launcher.NewStaticIdentity(badge.IdentityParams{
		Manufacturer:      cfg.Device.Manufacturer,
		Model:             cfg.Device.Model,
		SDKInt:            cfg.Device.SDKInt,
		PackageName:       cfg.Device.PackageName,
		InstalledPackages: cfg.Device.InstalledPackages,
		ContentProviders:  cfg.Device.ContentProviders,
		SystemProperties:  cfg.Device.SystemProperties,
	})

	c := coordinator.New(provider.Registry(host, logger), identity, store, logger)
	logger.Info("Badge providers detected", "providers", c.SupportedProviders(ctx))
	return bridge.NewCoordinatorBackend(c), nil
}

// newNativeBackend drives the native façade over a notification center that
// pushes to APNs, FCM and Web Push subscribers.
func newNativeBackend(ctx context.Context, cfg *config.Config, store badge.Store, logger *slog.Logger) (*native.Facade, *native.MainQueue, error) {
	var dispatchers []remote.Dispatcher

	// A. iOS (APNs)
	if cfg.APNS.Enabled() {
		d, err := apns.NewDispatcher(apns.Config{
			KeyID:        cfg.APNS.KeyID,
			TeamID:       cfg.APNS.TeamID,
			BundleID:     cfg.APNS.BundleID,
			P8KeyContent: cfg.APNS.P8KeyContent,
			Development:  cfg.APNS.Development,
			DeviceTokens: cfg.APNS.DeviceTokens,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		dispatchers = append(dispatchers, d)
	}

	// B. Mobile (FCM)
	if len(cfg.FCM.DeviceTokens) > 0 {
		client, err := newMessagingClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		dispatchers = append(dispatchers, fcm.NewDispatcher(client, cfg.FCM.DeviceTokens, logger))
	}

	// C. Web (VAPID)
	if cfg.Vapid.Enabled() {
		subs := make([]webpush.Subscription, 0, len(cfg.Vapid.Subscriptions))
		for _, s := range cfg.Vapid.Subscriptions {
			subs = append(subs, webpush.Subscription{
				Endpoint: s.Endpoint,
				Keys:     webpush.Keys{Auth: s.Auth, P256dh: s.P256dh},
			})
		}
		dispatchers = append(dispatchers, web.NewDispatcher(web.Config{
			PublicKey:       cfg.Vapid.PublicKey,
			PrivateKey:      cfg.Vapid.PrivateKey,
			SubscriberEmail: cfg.Vapid.SubscriberEmail,
			Subscriptions:   subs,
		}, logger))
	}

	if len(dispatchers) == 0 {
		logger.Warn("No badge dispatchers configured. Badge updates will report false.")
	}

	center := remote.NewCenter(dispatchers, cfg.Native.CallbackTimeout, logger)
	if stored, err := store.Load(ctx); err != nil {
		logger.Warn("Could not seed badge count from store", "err", err)
	} else {
		center.Seed(stored)
	}
	queue := native.NewMainQueue(logger)
	facade := native.New(
		native.Config{CallbackTimeout: cfg.Native.CallbackTimeout},
		center,
		center,
		native.StaticVersion(cfg.Native.OSMajorVersion),
		queue,
		store,
		logger,
	)
	return facade, queue, nil
}

func newIngestionConsumer(ctx context.Context, cfg *config.Config, psClient *pubsub.Client, logger *slog.Logger) (messagepipeline.MessageConsumer, error) {
	sub := convertPubsub(cfg.ProjectID, cfg.PubsubConsumerConfig.SubscriptionID, "subscriptions")
	subConfig := &pubsubpb.Subscription{
		Name:                  sub,
		Topic:                 convertPubsub(cfg.ProjectID, cfg.TopicID, "topics"),
		AckDeadlineSeconds:    10,
		EnableMessageOrdering: false,
	}
	if cfg.SubscriptionDLQTopicID != "" {
		subConfig.DeadLetterPolicy = &pubsubpb.DeadLetterPolicy{
			DeadLetterTopic:     convertPubsub(cfg.ProjectID, cfg.SubscriptionDLQTopicID, "topics"),
			MaxDeliveryAttempts: 5,
		}
	}

	logger.Debug("Ensuring subscription exists", "sub", subConfig.Name, "topic", subConfig.Topic)
	_, err := psClient.SubscriptionAdminClient.CreateSubscription(ctx, subConfig)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			logger.Debug("Subscription already exists, skipping creation", "sub", subConfig.Name)
		} else {
			logger.Error("Failed to create subscription", "sub", subConfig.Name, "err", err)
			return nil, fmt.Errorf("could not create sub: %s", sub)
		}
	}

	return messagepipeline.NewGooglePubsubConsumer(
		messagepipeline.NewGooglePubsubConsumerDefaults(subConfig.Name), psClient, logger,
	)
}

type PS string

func convertPubsub(project, id string, ps PS) string {
	return fmt.Sprintf("projects/%s/%s/%s", project, ps, id)
}
