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

package tasks

import (
	"time"

	"github.com/google/uuid"

	"github.com/data-fair/catalog-data-fair/catalogs"
	"github.com/data-fair/catalog-data-fair/config"
)

// a code describing where a download task is in its lifecycle
type TaskStatusCode int

const (
	TaskStatusUnknown TaskStatusCode = iota
	TaskStatusPending                // created, download not yet started
	TaskStatusActive                 // download in progress
	TaskStatusSucceeded
	TaskStatusFailed
	TaskStatusCanceled
)

// the status of a download task as reported to clients
type TaskStatus struct {
	Code             TaskStatusCode
	Message          string // a human-readable description (failures only)
	BytesTransferred int64  // cumulative bytes written so far
	TotalBytes       int64  // the estimated payload size (SizeUnknown if unknown)
	FilePath         string // path of the downloaded file (successes only)
}

// this type tracks a single dataset download from creation to completion;
// instances are owned by the manager goroutine
type downloadTask struct {
	Id             uuid.UUID
	Catalog        string // the configured name of the catalog
	Dataset        string
	Imports        catalogs.ImportConfig
	Status         TaskStatus
	StartTime      time.Time
	CompletionTime time.Time
}

// true if the task has reached a terminal state
func (task downloadTask) Completed() bool {
	switch task.Status.Code {
	case TaskStatusSucceeded, TaskStatusFailed, TaskStatusCanceled:
		return true
	}
	return false
}

// a worker's request to begin its download; the manager answers false if the
// task was canceled while it was still pending
type claimRequest struct {
	Id      uuid.UUID
	Proceed chan bool
}

// a progress report from a worker to the manager
type taskUpdate struct {
	Id         uuid.UUID
	Bytes      int64
	Total      int64
	TotalKnown bool // true when Total carries the payload size estimate
}

// a worker's final word on its task; Bytes repeats the last progress count
// because progress updates and completion travel on separate channels
type taskResult struct {
	Id       uuid.UUID
	FilePath string
	Bytes    int64
	Err      error
}

// this function runs in its own goroutine, one per task, and performs the
// actual metadata fetch and download; all bookkeeping happens in the manager
// goroutine via the task channels
func runTask(task downloadTask) {
	// claim the task, bowing out if it was canceled before we got here
	proceed := make(chan bool)
	taskChannels.ClaimTask <- claimRequest{Id: task.Id, Proceed: proceed}
	if !<-proceed {
		return
	}

	catalog, err := catalogs.NewCatalog(task.Catalog)
	if err != nil {
		taskChannels.TaskDone <- taskResult{Id: task.Id, Err: err}
		return
	}

	metadata, err := catalog.Metadata(task.Dataset)
	if err != nil {
		taskChannels.TaskDone <- taskResult{Id: task.Id, Err: err}
		return
	}
	taskChannels.UpdateTask <- taskUpdate{
		Id:         task.Id,
		Total:      metadata.Size,
		TotalKnown: true,
	}

	var transferred int64
	sink := catalogs.ProgressFunc(func(name string, bytes int64) error {
		transferred = bytes
		taskChannels.UpdateTask <- taskUpdate{Id: task.Id, Bytes: bytes}
		return nil
	})
	filePath, err := catalog.Download(metadata, task.Imports,
		config.Service.DataDirectory, sink)
	taskChannels.TaskDone <- taskResult{
		Id:       task.Id,
		FilePath: filePath,
		Bytes:    transferred,
		Err:      err,
	}
}
