// Copyright (c) 2024 The Data Fair Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package catalogs

import (
	"github.com/data-fair/catalog-data-fair/config"
)

// Catalog defines the interface for a remote catalog from which datasets can
// be described and downloaded.
type Catalog interface {
	// fetches and normalizes the metadata for the dataset with the given ID
	Metadata(datasetId string) (DatasetMetadata, error)
	// downloads the rows of the described dataset as a single CSV file in the
	// given directory, restricted by the given import configuration, and
	// returns the path to the file; byte progress is reported to the given
	// sink (which may be nil)
	Download(md DatasetMetadata, imports ImportConfig, dir string,
		progress ProgressSink) (string, error)
}

// a function that creates a catalog from its configured name
type CatalogFactory func(catalogName string) (Catalog, error)

// catalog factories, identified by their provider names
var catalogFactories = make(map[string]CatalogFactory)

// a table of catalog instances, identified by their configured names
var allCatalogs = make(map[string]Catalog)

// Registers a factory for creating catalogs with the given provider name
// (e.g. "data-fair"). Call this once per provider before creating catalogs.
func RegisterCatalogProvider(provider string, factory CatalogFactory) error {
	if _, found := catalogFactories[provider]; found {
		return AlreadyRegisteredError{Provider: provider}
	}
	catalogFactories[provider] = factory
	return nil
}

// Creates the catalog configured under the given name, or returns an
// existing instance.
func NewCatalog(catalogName string) (Catalog, error) {
	if catalog, found := allCatalogs[catalogName]; found {
		return catalog, nil
	}

	catalogConfig, found := config.Catalogs[catalogName]
	if !found {
		return nil, NotFoundError{Catalog: catalogName}
	}
	factory, found := catalogFactories[catalogConfig.Provider]
	if !found {
		return nil, NotFoundError{Catalog: catalogName}
	}

	catalog, err := factory(catalogName)
	if err == nil {
		allCatalogs[catalogName] = catalog // stash it
	}
	return catalog, err
}
