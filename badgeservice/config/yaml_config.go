package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

type YamlCorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	Role           string   `yaml:"role"`
}

type YamlStoreConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	CacheTTL   string `yaml:"cache_ttl"`
}

type YamlRedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

type YamlDeviceConfig struct {
	Manufacturer      string            `yaml:"manufacturer"`
	Model             string            `yaml:"model"`
	SDKInt            int               `yaml:"sdk_int"`
	PackageName       string            `yaml:"package_name"`
	LauncherActivity  string            `yaml:"launcher_activity"`
	InstalledPackages []string          `yaml:"installed_packages"`
	ContentProviders  []string          `yaml:"content_providers"`
	SystemProperties  map[string]string `yaml:"system_properties"`
	FCMToken          string            `yaml:"fcm_token"`
}

type YamlNativeConfig struct {
	OSMajorVersion  int    `yaml:"os_major_version"`
	CallbackTimeout string `yaml:"callback_timeout"`
}

type YamlAPNSConfig struct {
	KeyID        string   `yaml:"key_id"`
	TeamID       string   `yaml:"team_id"`
	BundleID     string   `yaml:"bundle_id"`
	P8KeyContent string   `yaml:"p8_key"`
	Development  bool     `yaml:"development"`
	DeviceTokens []string `yaml:"device_tokens"`
}

type YamlFCMConfig struct {
	DeviceTokens []string `yaml:"device_tokens"`
}

type YamlWebSubscription struct {
	Endpoint string `yaml:"endpoint"`
	P256dh   string `yaml:"p256dh"`
	Auth     string `yaml:"auth"`
}

type YamlVapidConfig struct {
	PublicKey       string                `yaml:"public_key"`
	PrivateKey      string                `yaml:"private_key"`
	SubscriberEmail string                `yaml:"subscriber_email"`
	Subscriptions   []YamlWebSubscription `yaml:"subscriptions"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	Platform               string           `yaml:"platform"`
	ProjectID              string           `yaml:"project_id"`
	ListenAddr             string           `yaml:"listen_addr"`
	TopicID                string           `yaml:"topic_id"`
	SubscriptionID         string           `yaml:"subscription_id"`
	SubscriptionDLQTopicID string           `yaml:"subscription_dlq_topic_id"`
	NumPipelineWorkers     int              `yaml:"num_pipeline_workers"`
	CorsConfig             YamlCorsConfig   `yaml:"cors"`
	StoreConfig            YamlStoreConfig  `yaml:"store"`
	RedisConfig            YamlRedisConfig  `yaml:"redis"`
	DeviceConfig           YamlDeviceConfig `yaml:"device"`
	NativeConfig           YamlNativeConfig `yaml:"native"`
	APNSConfig             YamlAPNSConfig   `yaml:"apns"`
	FCMConfig              YamlFCMConfig    `yaml:"fcm"`
	VapidConfig            YamlVapidConfig  `yaml:"vapid"`
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	cacheTTL, err := parseOptionalDuration("store.cache_ttl", baseCfg.StoreConfig.CacheTTL)
	if err != nil {
		return nil, err
	}
	callbackTimeout, err := parseOptionalDuration("native.callback_timeout", baseCfg.NativeConfig.CallbackTimeout)
	if err != nil {
		return nil, err
	}

	subs := make([]WebSubscription, 0, len(baseCfg.VapidConfig.Subscriptions))
	for _, s := range baseCfg.VapidConfig.Subscriptions {
		subs = append(subs, WebSubscription{Endpoint: s.Endpoint, P256dh: s.P256dh, Auth: s.Auth})
	}

	cfg := &Config{
		Platform:               Platform(baseCfg.Platform),
		ProjectID:              baseCfg.ProjectID,
		ListenAddr:             baseCfg.ListenAddr,
		TopicID:                baseCfg.TopicID,
		SubscriptionID:         baseCfg.SubscriptionID,
		SubscriptionDLQTopicID: baseCfg.SubscriptionDLQTopicID,
		NumPipelineWorkers:     baseCfg.NumPipelineWorkers,
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: baseCfg.CorsConfig.AllowedOrigins,
			Role:           middleware.CorsRole(baseCfg.CorsConfig.Role),
		},
		Store: StoreConfig{
			Backend:    baseCfg.StoreConfig.Backend,
			Path:       baseCfg.StoreConfig.Path,
			Collection: baseCfg.StoreConfig.Collection,
			CacheTTL:   cacheTTL,
		},
		Redis: RedisConfig{
			Addr:     baseCfg.RedisConfig.Addr,
			Password: baseCfg.RedisConfig.Password,
			DB:       baseCfg.RedisConfig.DB,
			Enabled:  baseCfg.RedisConfig.Enabled,
		},
		Device: DeviceConfig{
			Manufacturer:      baseCfg.DeviceConfig.Manufacturer,
			Model:             baseCfg.DeviceConfig.Model,
			SDKInt:            baseCfg.DeviceConfig.SDKInt,
			PackageName:       baseCfg.DeviceConfig.PackageName,
			LauncherActivity:  baseCfg.DeviceConfig.LauncherActivity,
			InstalledPackages: baseCfg.DeviceConfig.InstalledPackages,
			ContentProviders:  baseCfg.DeviceConfig.ContentProviders,
			SystemProperties:  baseCfg.DeviceConfig.SystemProperties,
			FCMToken:          baseCfg.DeviceConfig.FCMToken,
		},
		Native: NativeConfig{
			OSMajorVersion:  baseCfg.NativeConfig.OSMajorVersion,
			CallbackTimeout: callbackTimeout,
		},
		APNS: APNSConfig{
			KeyID:        baseCfg.APNSConfig.KeyID,
			TeamID:       baseCfg.APNSConfig.TeamID,
			BundleID:     baseCfg.APNSConfig.BundleID,
			P8KeyContent: baseCfg.APNSConfig.P8KeyContent,
			Development:  baseCfg.APNSConfig.Development,
			DeviceTokens: baseCfg.APNSConfig.DeviceTokens,
		},
		FCM: FCMConfig{DeviceTokens: baseCfg.FCMConfig.DeviceTokens},
		Vapid: VapidConfig{
			PublicKey:       baseCfg.VapidConfig.PublicKey,
			PrivateKey:      baseCfg.VapidConfig.PrivateKey,
			SubscriberEmail: baseCfg.VapidConfig.SubscriberEmail,
			Subscriptions:   subs,
		},
	}

	if cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
	}

	logger.Debug("YAML config mapping complete",
		"platform", cfg.Platform,
		"project_id", cfg.ProjectID,
		"listen_addr", cfg.ListenAddr,
		"subscription_id", cfg.SubscriptionID,
	)

	return cfg, nil
}

func parseOptionalDuration(field, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	return d, nil
}
