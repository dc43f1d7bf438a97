package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

// Platform selects which badge backend the service drives.
type Platform string

const (
	// PlatformBroadcast runs the vendor provider chain (launcher broadcasts,
	// content providers, placeholder notifications).
	PlatformBroadcast Platform = "broadcast"
	// PlatformNative runs the single OS badge API façade.
	PlatformNative Platform = "native"
)

// Store backends.
const (
	StoreMemory    = "memory"
	StoreFile      = "file"
	StoreRedis     = "redis"
	StoreFirestore = "firestore"
)

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type StoreConfig struct {
	Backend    string
	Path       string
	Collection string
	CacheTTL   time.Duration
}

// DeviceConfig describes the device the broadcast platform badges.
type DeviceConfig struct {
	Manufacturer      string
	Model             string
	SDKInt            int
	PackageName       string
	LauncherActivity  string
	InstalledPackages []string
	ContentProviders  []string
	SystemProperties  map[string]string
	FCMToken          string
}

type NativeConfig struct {
	OSMajorVersion  int
	CallbackTimeout time.Duration
}

type APNSConfig struct {
	KeyID        string
	TeamID       string
	BundleID     string
	P8KeyContent string
	Development  bool
	DeviceTokens []string
}

func (c APNSConfig) Enabled() bool {
	return c.P8KeyContent != "" && len(c.DeviceTokens) > 0
}

type FCMConfig struct {
	DeviceTokens []string
}

type WebSubscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

type VapidConfig struct {
	PublicKey       string
	PrivateKey      string
	SubscriberEmail string
	Subscriptions   []WebSubscription
}

func (c VapidConfig) Enabled() bool {
	return c.PublicKey != "" && c.PrivateKey != "" && len(c.Subscriptions) > 0
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	Platform               Platform
	ProjectID              string
	ListenAddr             string
	TopicID                string
	SubscriptionID         string
	SubscriptionDLQTopicID string
	NumPipelineWorkers     int

	CorsConfig middleware.CorsConfig
	Store      StoreConfig
	Redis      RedisConfig
	Device     DeviceConfig
	Native     NativeConfig
	APNS       APNSConfig
	FCM        FCMConfig
	Vapid      VapidConfig

	PubsubConsumerConfig *messagepipeline.GooglePubsubConsumerConfig
}

// PipelineEnabled reports whether badge commands are consumed from Pub/Sub.
func (c *Config) PipelineEnabled() bool {
	return c.SubscriptionID != ""
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	override := func(key string, apply func(string)) {
		if val := os.Getenv(key); val != "" {
			logger.Debug("Overriding config value", "key", key, "source", "env")
			apply(val)
		}
	}
	overrideInt := func(key string, apply func(int)) {
		override(key, func(val string) {
			n, err := strconv.Atoi(val)
			if err != nil {
				logger.Warn("Ignoring non-numeric env override", "key", key, "value", val)
				return
			}
			apply(n)
		})
	}

	// 1. Service
	override("PLATFORM", func(v string) { cfg.Platform = Platform(strings.ToLower(v)) })
	override("PROJECT_ID", func(v string) { cfg.ProjectID = v })
	override("PORT", func(v string) { cfg.ListenAddr = ":" + v })
	override("TOPIC_ID", func(v string) { cfg.TopicID = v })
	override("SUBSCRIPTION_ID", func(v string) {
		cfg.SubscriptionID = v
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(v)
	})
	override("SUBSCRIPTION_DLQ_TOPIC_ID", func(v string) { cfg.SubscriptionDLQTopicID = v })
	overrideInt("NUM_PIPELINE_WORKERS", func(n int) {
		if n > 0 {
			cfg.NumPipelineWorkers = n
		}
	})

	// 2. Storage
	override("STORE_BACKEND", func(v string) { cfg.Store.Backend = strings.ToLower(v) })
	override("STORE_PATH", func(v string) { cfg.Store.Path = v })
	override("REDIS_ADDR", func(v string) {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	})
	override("REDIS_PASSWORD", func(v string) { cfg.Redis.Password = v })
	overrideInt("REDIS_DB", func(n int) { cfg.Redis.DB = n })
	override("REDIS_ENABLED", func(v string) {
		enabled, _ := strconv.ParseBool(v)
		cfg.Redis.Enabled = enabled
	})

	// 3. Device / OS
	override("DEVICE_MANUFACTURER", func(v string) { cfg.Device.Manufacturer = v })
	overrideInt("DEVICE_SDK_INT", func(n int) { cfg.Device.SDKInt = n })
	override("FCM_TOKEN", func(v string) { cfg.Device.FCMToken = v })
	overrideInt("OS_MAJOR_VERSION", func(n int) { cfg.Native.OSMajorVersion = n })
	override("CALLBACK_TIMEOUT", func(v string) {
		d, err := time.ParseDuration(v)
		if err != nil {
			logger.Warn("Ignoring invalid CALLBACK_TIMEOUT", "value", v, "err", err)
			return
		}
		cfg.Native.CallbackTimeout = d
	})

	// 4. Push credentials
	override("APNS_KEY_ID", func(v string) { cfg.APNS.KeyID = v })
	override("APNS_TEAM_ID", func(v string) { cfg.APNS.TeamID = v })
	override("APNS_BUNDLE_ID", func(v string) { cfg.APNS.BundleID = v })
	override("APNS_P8_KEY", func(v string) { cfg.APNS.P8KeyContent = v })
	override("APNS_DEVICE_TOKENS", func(v string) { cfg.APNS.DeviceTokens = splitList(v) })
	override("FCM_DEVICE_TOKENS", func(v string) { cfg.FCM.DeviceTokens = splitList(v) })
	override("VAPID_PUBLIC_KEY", func(v string) { cfg.Vapid.PublicKey = v })
	override("VAPID_PRIVATE_KEY", func(v string) { cfg.Vapid.PrivateKey = v })
	override("VAPID_SUB_EMAIL", func(v string) { cfg.Vapid.SubscriberEmail = v })

	// 5. CORS
	override("CORS_ALLOWED_ORIGINS", func(v string) { cfg.CorsConfig.AllowedOrigins = splitList(v) })

	// 6. Final Validation
	switch cfg.Platform {
	case "":
		cfg.Platform = PlatformBroadcast
	case PlatformBroadcast, PlatformNative:
	default:
		return nil, fmt.Errorf("unknown platform %q (want %q or %q)", cfg.Platform, PlatformBroadcast, PlatformNative)
	}

	switch cfg.Store.Backend {
	case "":
		cfg.Store.Backend = StoreMemory
	case StoreMemory, StoreRedis:
	case StoreFile:
		if cfg.Store.Path == "" {
			return nil, fmt.Errorf("store path is required for the file backend (set via YAML or STORE_PATH env var)")
		}
	case StoreFirestore:
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("project_id is required for the firestore backend (set via YAML or PROJECT_ID env var)")
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if cfg.Store.Backend == StoreRedis && cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis addr is required for the redis backend (set via YAML or REDIS_ADDR env var)")
	}

	if cfg.PipelineEnabled() && cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required when subscription_id is set (set via YAML or PROJECT_ID env var)")
	}
	if cfg.PipelineEnabled() && cfg.TopicID == "" {
		return nil, fmt.Errorf("topic_id is required when subscription_id is set (set via YAML or TOPIC_ID env var)")
	}
	if cfg.Platform == PlatformBroadcast && cfg.Device.FCMToken != "" && cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required for the FCM relay (set via YAML or PROJECT_ID env var)")
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.NumPipelineWorkers <= 0 {
		cfg.NumPipelineWorkers = 1
	}
	if cfg.Native.CallbackTimeout <= 0 {
		cfg.Native.CallbackTimeout = 5 * time.Second
	}
	if cfg.Store.CacheTTL <= 0 {
		cfg.Store.CacheTTL = time.Hour
	}
	if cfg.PubsubConsumerConfig == nil && cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
	}

	logger.Debug("Configuration finalized and validated successfully",
		"platform", cfg.Platform,
		"store", cfg.Store.Backend,
		"pipeline", cfg.PipelineEnabled())
	return cfg, nil
}

func splitList(raw string) []string {
	var clean []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			clean = append(clean, trimmed)
		}
	}
	return clean
}
