package catalogs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	err := NotFoundError{Catalog: "testcat"}
	assert.Equal(t, "The catalog 'testcat' was not found", err.Error())
}

func TestAlreadyRegisteredError(t *testing.T) {
	err := AlreadyRegisteredError{Provider: "data-fair"}
	assert.Equal(t, "Cannot register catalog provider 'data-fair': already registered", err.Error())
}

func TestUnavailableError(t *testing.T) {
	err := UnavailableError{Catalog: "testcat"}
	assert.Equal(t, "Cannot reach catalog 'testcat': unavailable", err.Error())
}

func TestMetadataFetchError(t *testing.T) {
	err := MetadataFetchError{
		Catalog: "testcat",
		Dataset: "sirene",
		Message: "404 Not Found",
	}
	assert.Equal(t,
		"Couldn't fetch metadata for dataset 'sirene' in catalog 'testcat': 404 Not Found",
		err.Error())
}

func TestDownloadError(t *testing.T) {
	err := DownloadError{
		Catalog: "testcat",
		Dataset: "sirene",
		Message: "connection reset",
	}
	assert.Equal(t,
		"Couldn't download dataset 'sirene' from catalog 'testcat': connection reset",
		err.Error())
}

func TestDowngradedRedirectError(t *testing.T) {
	err := DowngradedRedirectError{
		Endpoint: "redirect.com/",
	}
	assert.Equal(t, "The endpoint redirect.com/ is attempting to downgrade an HTTPS request to HTTP",
		err.Error())
}
