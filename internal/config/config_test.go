package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-crm/internal/config"
)

func TestLoadRequiresCRMBaseURL(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"CRM_BASE_URL": "",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "CRM_BASE_URL")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"CRM_BASE_URL":          "https://crm.example.com/api/",
		"PORT":                  "",
		"APP_ENV":               "",
		"DRAFT_TTL":             "",
		"CURRENCY_CODE":         "",
		"RATE_LIMIT":            "",
		"CRM_TIMEOUT":           "",
		"CATALOG_DEFAULT_LIMIT": "",
		"CATALOG_MAX_LIMIT":     "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "https://crm.example.com/api", cfg.CRMBaseURL)
	require.Equal(t, 2*time.Hour, cfg.DraftTTL)
	require.Equal(t, "INR", cfg.CurrencyCode)
	require.Equal(t, "120-M", cfg.RateLimit)
	require.Equal(t, 10*time.Second, cfg.CRMTimeout)
	require.Equal(t, 20, cfg.CatalogDefaultLimit)
	require.Equal(t, 100, cfg.CatalogMaxLimit)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"CRM_BASE_URL":          "http://localhost:9090",
		"CRM_API_KEY":           "secret",
		"PORT":                  "9000",
		"DRAFT_TTL":             "30m",
		"CURRENCY_CODE":         "USD",
		"RATE_LIMIT":            "10-S",
		"CORS_ALLOWED_ORIGINS":  "https://a.example, https://b.example",
		"CATALOG_DEFAULT_LIMIT": "5",
		"CATALOG_MAX_LIMIT":     "3",
	})
	require.NoError(t, err)
	require.Equal(t, "secret", cfg.CRMAPIKey)
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.Equal(t, 30*time.Minute, cfg.DraftTTL)
	require.Equal(t, "USD", cfg.CurrencyCode)
	require.Equal(t, "10-S", cfg.RateLimit)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	// max limit is raised to the default limit when misconfigured below it
	require.Equal(t, 5, cfg.CatalogDefaultLimit)
	require.Equal(t, 5, cfg.CatalogMaxLimit)
}
