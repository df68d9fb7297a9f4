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

package datafair

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/data-fair/catalog-data-fair/catalogs"
	"github.com/data-fair/catalog-data-fair/config"
)

// catalog client appropriate for describing and downloading datasets held by
// a data-fair service (implements the catalogs.Catalog interface)
type Catalog struct {
	// catalog identifier (its YAML key in the configuration)
	Name string
	// base URL of the data-fair API (no trailing slash)
	URL string
	// API key passed in the x-apiKey header (optional)
	APIKey string
	// HTTP client used for all catalog requests
	Client http.Client
}

// creates a new data-fair catalog client using the information supplied in
// the configuration under the given catalog name
func NewCatalog(catalogName string) (catalogs.Catalog, error) {
	conf, found := config.Catalogs[catalogName]
	if !found {
		return nil, catalogs.NotFoundError{Catalog: catalogName}
	}

	timeout := time.Duration(config.Service.Timeout) * time.Second
	return &Catalog{
		Name:   catalogName,
		URL:    strings.TrimSuffix(conf.URL, "/"),
		APIKey: conf.APIKey,
		Client: catalogs.SecureHttpClient(timeout),
	}, nil
}

// performs a GET request on the given resource (a path-and-query string
// below the catalog's base URL), returning the resulting response and error
func (c *Catalog) get(resource string) (*http.Response, error) {
	return c.getAbsolute(c.URL + resource)
}

// performs a GET request on the given absolute URL (used for server-supplied
// pagination cursors, which are consumed verbatim)
func (c *Catalog) getAbsolute(res string) (*http.Response, error) {
	slog.Debug(fmt.Sprintf("GET: %s", res))
	req, err := http.NewRequest(http.MethodGet, res, http.NoBody)
	if err != nil {
		return nil, err
	}
	if c.APIKey != "" {
		req.Header.Set("x-apiKey", c.APIKey)
	}
	return c.Client.Do(req)
}

// the wire representation of a data-fair dataset document (we only extract
// the fields relevant to the canonical metadata)
type datasetDocument struct {
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Frequency    string                 `json:"frequency"`
	Keywords     []string               `json:"keywords"`
	Image        string                 `json:"image"`
	License      *catalogs.License      `json:"license"`
	Schema       []catalogs.SchemaField `json:"schema"`
	File         *fileInfo              `json:"file"`
	Storage      *fileInfo              `json:"storage"`
	OriginalFile *fileInfo              `json:"originalFile"`
}

type fileInfo struct {
	Size int64 `json:"size"`
}

// resolves a dataset's byte count with file -> storage -> originalFile
// precedence (the first object present in the document wins)
func resolveSize(doc datasetDocument) int64 {
	switch {
	case doc.File != nil:
		return doc.File.Size
	case doc.Storage != nil:
		return doc.Storage.Size
	case doc.OriginalFile != nil:
		return doc.OriginalFile.Size
	}
	return catalogs.SizeUnknown
}

// Fetches the dataset document for the given dataset ID and derives its
// canonical metadata. HasFile is set iff the catalog holds a pre-assembled
// bulk file for the dataset, independent of the resolved size.
func (c *Catalog) Metadata(datasetId string) (catalogs.DatasetMetadata, error) {
	var md catalogs.DatasetMetadata

	metadataURL := fmt.Sprintf("%s/datasets/%s", c.URL, datasetId)
	slog.Info(fmt.Sprintf("Fetching dataset metadata from %s", metadataURL))
	resp, err := c.getAbsolute(metadataURL)
	if err != nil {
		return md, catalogs.MetadataFetchError{
			Catalog: c.Name,
			Dataset: datasetId,
			Message: err.Error(),
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return md, catalogs.MetadataFetchError{
			Catalog: c.Name,
			Dataset: datasetId,
			Message: resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err == nil {
		var doc datasetDocument
		err = json.Unmarshal(body, &doc)
		if err == nil {
			md = catalogs.DatasetMetadata{
				Id:          datasetId,
				Title:       doc.Title,
				Description: doc.Description,
				Frequency:   doc.Frequency,
				Keywords:    doc.Keywords,
				Image:       doc.Image,
				Size:        resolveSize(doc),
				License:     doc.License,
				Schema:      NormalizeSchema(doc.Schema),
				HasFile:     doc.File != nil,
			}
			return md, nil
		}
	}
	return md, catalogs.MetadataFetchError{
		Catalog: c.Name,
		Dataset: datasetId,
		Message: err.Error(),
	}
}
