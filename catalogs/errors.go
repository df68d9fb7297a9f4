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
	"fmt"
)

// This error type is returned when a catalog is sought but not found.
type NotFoundError struct {
	Catalog string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("The catalog '%s' was not found", e.Catalog)
}

// indicates that a catalog provider is already registered and an attempt has
// been made to register it again
type AlreadyRegisteredError struct {
	Provider string
}

func (e AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("Cannot register catalog provider '%s': already registered", e.Provider)
}

// indicates that a catalog exists but is currently unavailable
type UnavailableError struct {
	Catalog string
}

func (e UnavailableError) Error() string {
	return fmt.Sprintf("Cannot reach catalog '%s': unavailable", e.Catalog)
}

// This error type is returned when a dataset's metadata document cannot be
// fetched or interpreted.
type MetadataFetchError struct {
	Catalog, Dataset, Message string
}

func (e MetadataFetchError) Error() string {
	return fmt.Sprintf("Couldn't fetch metadata for dataset '%s' in catalog '%s': %s",
		e.Dataset, e.Catalog, e.Message)
}

// This error type is returned when a dataset download fails for any reason.
// Message carries the proximate cause.
type DownloadError struct {
	Catalog, Dataset, Message string
}

func (e DownloadError) Error() string {
	return fmt.Sprintf("Couldn't download dataset '%s' from catalog '%s': %s",
		e.Dataset, e.Catalog, e.Message)
}

// this error type is returned when an HTTPS request is redirected to an
// insecure HTTP endpoint
type DowngradedRedirectError struct {
	Endpoint string
}

func (e DowngradedRedirectError) Error() string {
	return fmt.Sprintf("The endpoint %s is attempting to downgrade an HTTPS request to HTTP",
		e.Endpoint)
}
