package config

// These tests verify that we can properly configure the catalog service with
// YAML input.
import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// a valid service config entry
const VALID_SERVICE string = `
service:
  port: 8080
  maxConnections: 100
  dataDirectory: /tmp/datasets
`

// a valid catalogs config entry
const VALID_CATALOGS string = `
catalogs:
  opendata:
    name: Open Data Portal
    organization: Koumoul
    url: https://opendata.example.com/data-fair/api/v1
    provider: data-fair
    apiKey: ${CATALOG_API_KEY}
`

// tests whether config.Init reports an error for blank input
func TestInitRejectsBlankInput(t *testing.T) {
	b := []byte("")
	err := Init(b)
	assert.NotNil(t, err, "Blank config didn't trigger an error.")
}

// tests whether config.Init reports an error for an invalid port
func TestInitRejectsBadPort(t *testing.T) {
	yaml := "service:\n  port: -1\n  dataDirectory: /tmp/datasets\n\n" + VALID_CATALOGS
	err := Init([]byte(yaml))
	assert.NotNil(t, err, "Config with bad port didn't trigger an error.")
	yaml = "service:\n  port: 1000000\n  dataDirectory: /tmp/datasets\n\n" + VALID_CATALOGS
	err = Init([]byte(yaml))
	assert.NotNil(t, err, "Config with bad port didn't trigger an error.")
}

// tests whether config.Init reports an error for an invalid max number of
// connections
func TestInitRejectsBadMaxConnections(t *testing.T) {
	yaml := "service:\n  maxConnections: 0\n  dataDirectory: /tmp/datasets\n\n" + VALID_CATALOGS
	err := Init([]byte(yaml))
	assert.NotNil(t, err, "Config with bad maxConnections didn't trigger an error.")
}

// tests whether config.Init rejects a configuration without a data directory
func TestInitRejectsMissingDataDirectory(t *testing.T) {
	yaml := "service:\n  port: 8080\n\n" + VALID_CATALOGS
	err := Init([]byte(yaml))
	assert.NotNil(t, err, "Config with no data directory didn't trigger an error.")
}

// tests whether config.Init rejects a configuration with no catalogs
func TestInitRejectsNoCatalogsDefined(t *testing.T) {
	err := Init([]byte(VALID_SERVICE))
	assert.NotNil(t, err, "Config with no catalogs didn't trigger an error.")
}

// tests whether config.Init rejects a catalog without a URL or provider
func TestInitRejectsInvalidCatalog(t *testing.T) {
	yaml := VALID_SERVICE + `
catalogs:
  opendata:
    name: Open Data Portal
    provider: data-fair
`
	err := Init([]byte(yaml))
	assert.NotNil(t, err, "Config with a URL-less catalog didn't trigger an error.")

	yaml = VALID_SERVICE + `
catalogs:
  opendata:
    name: Open Data Portal
    url: https://opendata.example.com/data-fair/api/v1
`
	err = Init([]byte(yaml))
	assert.NotNil(t, err, "Config with a provider-less catalog didn't trigger an error.")
}

// tests whether config.Init accepts a valid configuration and expands
// environment variables
func TestInitAcceptsValidInput(t *testing.T) {
	os.Setenv("CATALOG_API_KEY", "sekrit")
	defer os.Unsetenv("CATALOG_API_KEY")

	err := Init([]byte(VALID_SERVICE + VALID_CATALOGS))
	assert.Nil(t, err, "Valid config triggered an error.")
	assert.Equal(t, 8080, Service.Port)
	assert.Equal(t, 100, Service.MaxConnections)
	assert.Equal(t, 60, Service.Timeout) // default
	assert.Equal(t, "/tmp/datasets", Service.DataDirectory)
	catalog, found := Catalogs["opendata"]
	assert.True(t, found)
	assert.Equal(t, "data-fair", catalog.Provider)
	assert.Equal(t, "sekrit", catalog.APIKey)
}
