package config_test

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-gcm-service/notificationservice/config"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUpdateConfigWithEnvOverrides(t *testing.T) {
	logger := newTestLogger()

	baseConfig := func() *config.Config {
		return &config.Config{
			ProjectID:          "base-project",
			ListenAddr:         ":8080",
			SubscriptionID:     "base-sub",
			NumPipelineWorkers: 2,
			GCM: config.GCMConfig{
				APIKey:   "base-key",
				Endpoint: "https://base.example/gcm/send",
			},
		}
	}

	t.Run("Success - All overrides applied", func(t *testing.T) {
		cfg := baseConfig()

		t.Setenv("PROJECT_ID", "env-project")
		t.Setenv("PORT", "9090")
		t.Setenv("SUBSCRIPTION_ID", "env-sub")
		t.Setenv("GCM_API_KEY", "env-key")
		t.Setenv("GCM_ENDPOINT", "http://localhost:9999/gcm/send")
		t.Setenv("GCM_DRY_RUN", "true")
		t.Setenv("GCM_TIMEOUT", "3s")
		t.Setenv("GCM_SEND_RATE", "25")

		finalCfg, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		require.NoError(t, err)

		assert.Equal(t, "env-project", finalCfg.ProjectID)
		assert.Equal(t, ":9090", finalCfg.ListenAddr)
		assert.Equal(t, "env-sub", finalCfg.SubscriptionID)

		assert.Equal(t, "env-key", finalCfg.GCM.APIKey)
		assert.Equal(t, "http://localhost:9999/gcm/send", finalCfg.GCM.Endpoint)
		assert.True(t, finalCfg.GCM.DryRun)
		assert.Equal(t, 3*time.Second, finalCfg.GCM.Timeout)
		assert.Equal(t, 25.0, finalCfg.GCM.SendRatePerSecond)
		assert.Equal(t, 1, finalCfg.GCM.Burst)
	})

	t.Run("Success - Defaults preserved", func(t *testing.T) {
		cfg := baseConfig()
		finalCfg, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		require.NoError(t, err)

		assert.Equal(t, "base-project", finalCfg.ProjectID)
		assert.Equal(t, "base-key", finalCfg.GCM.APIKey)
		assert.False(t, finalCfg.GCM.DryRun)
		assert.Equal(t, 24*time.Hour, finalCfg.Redis.TTL)
		assert.NotNil(t, finalCfg.PubsubConsumerConfig)
	})

	t.Run("Validation Failure - Missing ProjectID", func(t *testing.T) {
		cfg := &config.Config{SubscriptionID: "sub", GCM: config.GCMConfig{APIKey: "k"}}
		os.Unsetenv("PROJECT_ID")
		_, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		assert.Error(t, err)
	})

	t.Run("Validation Failure - Missing API key", func(t *testing.T) {
		cfg := baseConfig()
		cfg.GCM.APIKey = ""
		os.Unsetenv("GCM_API_KEY")
		_, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		assert.ErrorContains(t, err, "api_key")
	})

	t.Run("Validation Failure - Unparseable GCM values", func(t *testing.T) {
		for key, val := range map[string]string{
			"GCM_DRY_RUN":   "maybe",
			"GCM_TIMEOUT":   "ten seconds",
			"GCM_SEND_RATE": "fast",
		} {
			t.Run(key, func(t *testing.T) {
				t.Setenv(key, val)
				_, err := config.UpdateConfigWithEnvOverrides(baseConfig(), logger)
				assert.ErrorContains(t, err, key)
			})
		}
	})
}
