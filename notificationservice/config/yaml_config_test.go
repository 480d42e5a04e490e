package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-gcm-service/notificationservice/config"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"gopkg.in/yaml.v3"
)

func TestNewConfigFromYaml(t *testing.T) {
	logger := newTestLogger()

	t.Run("Success - maps all fields correctly", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{
			ProjectID:              "yaml-project",
			ListenAddr:             ":9000",
			TopicID:                "yaml-topic",
			SubscriptionID:         "yaml-subscription",
			SubscriptionDLQTopicID: "yaml-dlq",
			NumPipelineWorkers:     5,
			CorsConfig: config.YamlCorsConfig{
				AllowedOrigins: []string{"http://yaml.com"},
				Role:           "editor",
			},
			RedisConfig: config.YamlRedisConfig{
				Addr:    "localhost:6379",
				Enabled: true,
				TTL:     time.Hour,
			},
			GCMConfig: config.YamlGCMConfig{
				APIKey:            "yaml-key",
				Endpoint:          "http://localhost:8081/gcm/send",
				DryRun:            true,
				Timeout:           5 * time.Second,
				SendRatePerSecond: 50,
				Burst:             10,
				Headers:           map[string]string{"X-Env": "local"},
			},
		}

		cfg, err := config.NewConfigFromYaml(yamlCfg, logger)

		require.NoError(t, err)
		require.NotNil(t, cfg)

		// 1. Direct Field Mapping
		assert.Equal(t, "yaml-project", cfg.ProjectID)
		assert.Equal(t, ":9000", cfg.ListenAddr)
		assert.Equal(t, "yaml-topic", cfg.TopicID)
		assert.Equal(t, "yaml-subscription", cfg.SubscriptionID)
		assert.Equal(t, "yaml-dlq", cfg.SubscriptionDLQTopicID)
		assert.Equal(t, 5, cfg.NumPipelineWorkers)

		// 2. CORS
		assert.Equal(t, []string{"http://yaml.com"}, cfg.CorsConfig.AllowedOrigins)
		assert.Equal(t, middleware.CorsRoleEditor, cfg.CorsConfig.Role)

		// 3. Redis
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, time.Hour, cfg.Redis.TTL)

		// 4. GCM
		assert.Equal(t, "yaml-key", cfg.GCM.APIKey)
		assert.Equal(t, "http://localhost:8081/gcm/send", cfg.GCM.Endpoint)
		assert.True(t, cfg.GCM.DryRun)
		assert.Equal(t, 5*time.Second, cfg.GCM.Timeout)
		assert.Equal(t, 50.0, cfg.GCM.SendRatePerSecond)
		assert.Equal(t, 10, cfg.GCM.Burst)
		assert.Equal(t, map[string]string{"X-Env": "local"}, cfg.GCM.Headers)

		assert.NotNil(t, cfg.PubsubConsumerConfig)
	})

	t.Run("Success - Handles missing optional fields gracefully", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{
			ProjectID:      "minimal-project",
			SubscriptionID: "minimal-sub",
		}

		cfg, err := config.NewConfigFromYaml(yamlCfg, logger)

		require.NoError(t, err)
		assert.Equal(t, "minimal-project", cfg.ProjectID)
		assert.Equal(t, 0, cfg.NumPipelineWorkers)
		assert.Empty(t, cfg.ListenAddr)
		assert.Empty(t, cfg.GCM.Endpoint)
		assert.Zero(t, cfg.GCM.Timeout)
	})

	t.Run("Failure - Bad duration", func(t *testing.T) {
		var yamlCfg config.YamlConfig
		err := yaml.Unmarshal([]byte("gcm:\n  timeout: soon\n"), &yamlCfg)
		assert.Error(t, err)
	})

	t.Run("Success - Decodes raw yaml", func(t *testing.T) {
		raw := []byte(`
project_id: raw-project
subscription_id: raw-sub
gcm:
  api_key: raw-key
  dry_run: true
  timeout: 2s
redis:
  ttl: 90m
`)
		var yamlCfg config.YamlConfig
		require.NoError(t, yaml.Unmarshal(raw, &yamlCfg))

		cfg, err := config.NewConfigFromYaml(&yamlCfg, logger)

		require.NoError(t, err)
		assert.Equal(t, "raw-key", cfg.GCM.APIKey)
		assert.True(t, cfg.GCM.DryRun)
		assert.Equal(t, 2*time.Second, cfg.GCM.Timeout)
		assert.Equal(t, 90*time.Minute, cfg.Redis.TTL)
	})
}
