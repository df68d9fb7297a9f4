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
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/data-fair/catalog-data-fair/catalogs"
)

// number of rows requested per page of a row download (the server-side
// production default)
const linesPageSize = 5000

// Downloads the rows of the described dataset into {dir}/{id}.csv,
// overwriting any file already at that path, and returns the path. The
// pre-assembled bulk file is used only when one exists AND the import
// configuration selects no fields and applies no filters; bulk files cannot
// be restricted server-side, so any field selection or filter forces the
// paginated row query path. On failure the partial output file is removed
// (best effort) and a DownloadError carrying the proximate cause propagates.
func (c *Catalog) Download(md catalogs.DatasetMetadata, imports catalogs.ImportConfig,
	dir string, progress catalogs.ProgressSink) (string, error) {

	destination := filepath.Join(dir, md.Id+".csv")
	slog.Info(fmt.Sprintf("Downloading dataset %s to %s (%s)",
		md.Id, destination, sizeEstimate(md.Size)))

	throttle := newProgressThrottle(progress, md.Id)
	var err error
	if md.HasFile && len(imports.Fields) == 0 && len(imports.Filters) == 0 {
		err = c.downloadFile(md.Id, destination, throttle)
	} else {
		err = c.downloadLines(md.Id, imports, destination, throttle)
	}
	throttle.wait()

	if err != nil {
		slog.Error(fmt.Sprintf("Downloading dataset %s: %s", md.Id, err.Error()))
		os.Remove(destination) // best effort; the original error is what matters
		return "", catalogs.DownloadError{
			Catalog: c.Name,
			Dataset: md.Id,
			Message: err.Error(),
		}
	}
	return destination, nil
}

// renders a byte count for task-start log entries
func sizeEstimate(size int64) string {
	if size == catalogs.SizeUnknown {
		return "unknown size"
	}
	return fmt.Sprintf("%d bytes", size)
}

// fetches the dataset's pre-assembled bulk file and streams it verbatim to
// the destination; the download only counts once the sink is fully flushed
func (c *Catalog) downloadFile(datasetId, destination string, throttle *progressThrottle) error {
	resp, err := c.get(fmt.Sprintf("/datasets/%s/full", datasetId))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("the catalog couldn't provide the dataset file: %s", resp.Status)
	}

	file, err := os.Create(destination)
	if err != nil {
		return err
	}
	writer := bufio.NewWriter(file)
	counter := &countingWriter{writer: writer, throttle: throttle}
	if _, err := io.Copy(counter, resp.Body); err != nil {
		file.Close()
		return err
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// fetches the dataset's rows page by page, appending them to the destination
// with exactly one CSV header line (taken from the first page)
func (c *Catalog) downloadLines(datasetId string, imports catalogs.ImportConfig,
	destination string, throttle *progressThrottle) error {

	file, err := os.Create(destination)
	if err != nil {
		return err
	}
	writer := bufio.NewWriter(file)
	counter := &countingWriter{writer: writer, throttle: throttle}

	// the first page's URL is built locally; every subsequent URL is a cursor
	// taken verbatim from the server's link header, consumed exactly once
	pageURL := c.URL + linesQuery(datasetId, imports)
	for page := 0; pageURL != ""; page++ {
		next, err := c.appendPage(pageURL, counter, page > 0)
		if err != nil {
			file.Close()
			return err
		}
		pageURL = next
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// fetches a single page of CSV rows and appends its body to the given
// writer, stripping the page's own header line unless this is the first
// page; returns the URL of the next page, or "" if this page is the last.
// Pages are strictly sequential: the next page is not requested until this
// page's body has fully ended and been appended.
func (c *Catalog) appendPage(pageURL string, counter *countingWriter, stripHeader bool) (string, error) {
	resp, err := c.getAbsolute(pageURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("the catalog couldn't provide dataset rows: %s", resp.Status)
	}

	var sink io.Writer = counter
	if stripHeader {
		sink = &headerStripWriter{writer: counter}
	}
	if _, err := io.Copy(sink, resp.Body); err != nil {
		return "", err
	}
	return nextPageURL(resp.Header.Get("link")), nil
}

// builds the path-and-query string for the first page of a row download.
// Filter values are passed through literally -- the catalog expects quoted,
// comma-joined lists without percent-encoding -- so this deliberately avoids
// url.Values.
func linesQuery(datasetId string, imports catalogs.ImportConfig) string {
	var query strings.Builder
	fmt.Fprintf(&query, "/datasets/%s/lines?format=csv&size=%d", datasetId, linesPageSize)
	if len(imports.Fields) > 0 {
		keys := make([]string, len(imports.Fields))
		for i, field := range imports.Fields {
			keys[i] = field.Key
		}
		fmt.Fprintf(&query, "&select=%s", strings.Join(keys, ","))
	}
	for _, filter := range imports.Filters {
		switch filter.Type {
		case "in", "nin":
			values := filter.Values
			if len(values) == 0 && filter.Value != "" {
				values = []string{filter.Value}
			}
			quoted := make([]string, len(values))
			for i, value := range values {
				quoted[i] = `"` + value + `"`
			}
			fmt.Fprintf(&query, "&%s_%s=%s", filter.Field.Key, filter.Type,
				strings.Join(quoted, ","))
		case "starts", "gte", "lte":
			fmt.Fprintf(&query, "&%s_%s=%s", filter.Field.Key, filter.Type, filter.Value)
		}
		// unrecognized filter types contribute no clause
	}
	return query.String()
}

// parses a comma-separated link-relation header, returning the URL of the
// entry with rel=next (without its angle brackets), or "" if there is none
func nextPageURL(linkHeader string) string {
	for _, entry := range strings.Split(linkHeader, ",") {
		urlPart, relPart, found := strings.Cut(entry, ";")
		if !found || strings.TrimSpace(relPart) != "rel=next" {
			continue
		}
		urlPart = strings.TrimSpace(urlPart)
		urlPart = strings.TrimPrefix(urlPart, "<")
		return strings.TrimSuffix(urlPart, ">")
	}
	return ""
}

// a writer that drops bytes up to and including the first newline it sees,
// then passes everything through unmodified; the newline may arrive split
// across any number of chunks
type headerStripWriter struct {
	writer      io.Writer
	passthrough bool
}

func (w *headerStripWriter) Write(chunk []byte) (int, error) {
	if w.passthrough {
		return w.writer.Write(chunk)
	}
	newline := bytes.IndexByte(chunk, '\n')
	if newline == -1 {
		// the header line spans this whole chunk
		return len(chunk), nil
	}
	w.passthrough = true
	if newline+1 < len(chunk) {
		if _, err := w.writer.Write(chunk[newline+1:]); err != nil {
			return newline + 1, err
		}
	}
	return len(chunk), nil
}

// a writer that accumulates a cumulative byte count across all pages of a
// download and reports it after every write
type countingWriter struct {
	writer   io.Writer
	total    int64
	throttle *progressThrottle
}

func (w *countingWriter) Write(chunk []byte) (int, error) {
	n, err := w.writer.Write(chunk)
	w.total += int64(n)
	w.throttle.report(w.total)
	return n, err
}

// dispatches cumulative progress notifications with at most one in flight: a
// count arriving while another notification is being delivered overwrites a
// single pending slot, and the delivery goroutine drains that slot before
// going idle. Sink errors are swallowed -- a failed notification is not
// retried and never fails the download.
type progressThrottle struct {
	sink catalogs.ProgressSink
	task string

	mutex    sync.Mutex
	inFlight bool
	pending  int64
	dirty    bool
	done     sync.WaitGroup
}

func newProgressThrottle(sink catalogs.ProgressSink, task string) *progressThrottle {
	return &progressThrottle{sink: sink, task: task}
}

func (t *progressThrottle) report(total int64) {
	if t.sink == nil {
		return
	}
	t.mutex.Lock()
	t.pending = total
	t.dirty = true
	if t.inFlight {
		t.mutex.Unlock()
		return
	}
	t.inFlight = true
	t.mutex.Unlock()

	t.done.Add(1)
	go t.deliver()
}

func (t *progressThrottle) deliver() {
	defer t.done.Done()
	for {
		t.mutex.Lock()
		if !t.dirty {
			t.inFlight = false
			t.mutex.Unlock()
			return
		}
		total := t.pending
		t.dirty = false
		t.mutex.Unlock()
		t.sink.Progress(t.task, total)
	}
}

// blocks until the last dispatched notification has settled
func (t *progressThrottle) wait() {
	t.done.Wait()
}
