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

// SizeUnknown marks a dataset whose byte count could not be resolved from
// its metadata document.
const SizeUnknown int64 = -1

// a canonical description of a dataset held by a catalog
type DatasetMetadata struct {
	// a unique identifier for the dataset, supplied by the caller
	Id string `json:"id"`
	// a title or one sentence description for the dataset (optional)
	Title string `json:"title,omitempty"`
	// a description of the dataset (optional)
	Description string `json:"description,omitempty"`
	// the update frequency advertised by the catalog (optional)
	Frequency string `json:"frequency,omitempty"`
	// an array of string keywords to assist users searching for the dataset
	// in catalogs (optional)
	Keywords []string `json:"keywords,omitempty"`
	// an image associated with the dataset (URL, optional)
	Image string `json:"image,omitempty"`
	// the size of the dataset in bytes (SizeUnknown if unresolved)
	Size int64 `json:"size"`
	// the license under which the dataset is published (optional)
	License *License `json:"license,omitempty"`
	// the ordered field descriptors making up the dataset's schema
	Schema []SchemaField `json:"schema,omitempty"`
	// true if the catalog holds a pre-assembled bulk file for the dataset
	HasFile bool `json:"hasFile"`
	// a path to a local file holding the dataset's rows; empty until exactly
	// one successful download assigns it
	FilePath string `json:"filePath,omitempty"`
}

// a descriptor for a single field in a dataset's schema
type SchemaField struct {
	// the key identifying the field in queries
	Key string `json:"key"`
	// the type of the field's values (optional)
	Type string `json:"type,omitempty"`
	// a human-readable label for the field (optional)
	Title string `json:"title,omitempty"`
	// the identifier of the extension that computed this field, if any
	// (stripped during normalization)
	Extension string `json:"x-extension,omitempty"`
}

// information about a license associated with a dataset
type License struct {
	// the descriptive title of the license
	Title string `json:"title"`
	// a URL at which the license text may be retrieved
	Href string `json:"href"`
}

// a caller-supplied configuration restricting a dataset download
type ImportConfig struct {
	// the fields to retrieve, in order (empty means "all fields")
	Fields []ImportField `json:"fields,omitempty"`
	// the row filters to apply, in order (empty means "all rows")
	Filters []ImportFilter `json:"filters,omitempty"`
}

// identifies a dataset field by its schema key
type ImportField struct {
	Key string `json:"key"`
}

// a single row-filter predicate
type ImportFilter struct {
	// the field the filter applies to
	Field ImportField `json:"field"`
	// the filter operation: "in", "nin", "starts", "gte", or "lte"
	// (unrecognized operations are ignored)
	Type string `json:"type"`
	// the single value for "starts"/"gte"/"lte" filters
	Value string `json:"value,omitempty"`
	// the value list for "in"/"nin" filters
	Values []string `json:"values,omitempty"`
}

// ProgressSink receives cumulative byte counts as a download proceeds. A
// sink's Progress method may block; the download machinery never dispatches
// a new notification before the previous one has settled.
type ProgressSink interface {
	Progress(task string, bytes int64) error
}

// ProgressFunc adapts a function to the ProgressSink interface.
type ProgressFunc func(task string, bytes int64) error

func (f ProgressFunc) Progress(task string, bytes int64) error {
	return f(task, bytes)
}
