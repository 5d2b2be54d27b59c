package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) Lookup {
	return func(key string) string {
		return m[key]
	}
}

func TestLoadViewConfig(t *testing.T) {
	c, err := LoadViewConfig(mapLookup(map[string]string{
		"ATHENA_TABLE":      "okta_logs",
		"ATHENA_OUTPUT_URI": "s3://results/",
		"REGION":            "us-east-1",
	}))
	require.NoError(t, err)
	assert.Equal(t, "okta_logs", c.Table)
	assert.Equal(t, DefaultDatabase, c.Database)
	assert.Empty(t, c.WorkGroup)
}

func TestLoadViewConfigReportsEveryMissingValue(t *testing.T) {
	_, err := LoadViewConfig(mapLookup(map[string]string{"REGION": "us-east-1"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Contains(t, err.Error(), "ATHENA_TABLE")
	assert.Contains(t, err.Error(), "ATHENA_OUTPUT_URI")
	assert.NotContains(t, err.Error(), "REGION")
}

func TestLoadSearchConfig(t *testing.T) {
	c, err := LoadSearchConfig(mapLookup(map[string]string{
		"OSS_ENDPOINT": "https://abc123.us-east-1.aoss.amazonaws.com/",
		"AWS_REGION":   "us-east-1",
	}))
	require.NoError(t, err)
	assert.Equal(t, "https://abc123.us-east-1.aoss.amazonaws.com", c.Endpoint)
	assert.Equal(t, DefaultDashboardFile, c.DashboardFile)
}

func TestLoadSearchConfigRejectsBadEndpoint(t *testing.T) {
	_, err := LoadSearchConfig(mapLookup(map[string]string{
		"OSS_ENDPOINT": "not a url",
		"AWS_REGION":   "us-east-1",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OSS_ENDPOINT (url)")
}

func TestLoadCrawlerConfig(t *testing.T) {
	_, err := LoadCrawlerConfig(mapLookup(nil))
	require.ErrorIs(t, err, ErrInvalid)

	c, err := LoadCrawlerConfig(mapLookup(map[string]string{"CRAWLER_NAME": "AppFabricCrawler"}))
	require.NoError(t, err)
	assert.Equal(t, "AppFabricCrawler", c.CrawlerName)
}
