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

// This package contains testing utilities for the catalog service.
package cdftest

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
)

// Enables DEBUG log messages for the service's structured log (slog).
func EnableDebugLogging() {
	logLevel := new(slog.LevelVar)
	logLevel.Set(slog.LevelDebug)
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
}

// Starts an HTTP test server that behaves like a data-fair catalog serving a
// single dataset with a pre-assembled bulk file. The server answers
//   - GET /datasets/{datasetId} with a metadata document whose file size
//     matches the given content
//   - GET /datasets/{datasetId}/full with the content itself
//
// and responds 404 to everything else. The caller must Close() the server.
func NewFakeCatalog(datasetId, content string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/datasets/" + datasetId:
				fmt.Fprintf(w, `{"title": "Test Set", "file": {"size": %d}}`,
					len(content))
			case "/datasets/" + datasetId + "/full":
				fmt.Fprint(w, content)
			default:
				http.Error(w, "no such dataset", http.StatusNotFound)
			}
		}))
}
