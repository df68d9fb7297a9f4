package catalogs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/data-fair/catalog-data-fair/config"
)

// a stand-in catalog used to exercise the registry
type stubCatalog struct {
	Name string
}

func (c *stubCatalog) Metadata(datasetId string) (DatasetMetadata, error) {
	return DatasetMetadata{Id: datasetId, Size: SizeUnknown}, nil
}

func (c *stubCatalog) Download(md DatasetMetadata, imports ImportConfig,
	dir string, progress ProgressSink) (string, error) {
	return "", nil
}

const registryConfig string = `
service:
  port: 8080
  dataDirectory: /tmp/datasets
catalogs:
  stubbed:
    name: Stub Catalog
    url: https://stub.example.com/api/v1
    provider: stub
`

func TestCatalogRegistry(t *testing.T) {
	assert := assert.New(t)
	err := config.Init([]byte(registryConfig))
	assert.Nil(err)

	// an unregistered provider can be registered exactly once
	factory := func(name string) (Catalog, error) {
		return &stubCatalog{Name: name}, nil
	}
	err = RegisterCatalogProvider("stub", factory)
	assert.Nil(err)
	err = RegisterCatalogProvider("stub", factory)
	assert.IsType(AlreadyRegisteredError{}, err)

	// a configured catalog is created and cached
	catalog, err := NewCatalog("stubbed")
	assert.Nil(err)
	assert.NotNil(catalog)
	again, err := NewCatalog("stubbed")
	assert.Nil(err)
	assert.Equal(catalog, again)

	// an unconfigured catalog is not found
	_, err = NewCatalog("nonexistent")
	assert.IsType(NotFoundError{}, err)
}
