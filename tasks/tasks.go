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
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/data-fair/catalog-data-fair/catalogs"
	"github.com/data-fair/catalog-data-fair/catalogs/datafair"
	"github.com/data-fair/catalog-data-fair/config"
	"github.com/data-fair/catalog-data-fair/journal"
)

// starts processing download tasks according to the given configuration,
// returning an informative error if anything prevents this
func Start() error {
	if running {
		return &AlreadyRunningError{}
	}

	// if this is the first call to Start(), register our built-in catalog
	// providers
	if firstCall {
		// NOTE: it's okay if this provider has already been registered, as
		// NOTE: happens in testing
		err := catalogs.RegisterCatalogProvider("data-fair", datafair.NewCatalog)
		if err != nil {
			if _, matches := err.(catalogs.AlreadyRegisteredError); !matches {
				return err
			}
		}
		firstCall = false
	}

	// does the data directory exist, and is it writable/readable?
	err := validateDirectory("data", config.Service.DataDirectory)
	if err != nil {
		return err
	}

	// allocate channels
	taskChannels = channelsType{
		CreateTask:       make(chan downloadTask, 32),
		ClaimTask:        make(chan claimRequest, 32),
		UpdateTask:       make(chan taskUpdate, 32),
		TaskDone:         make(chan taskResult, 32),
		CancelTask:       make(chan uuid.UUID, 32),
		GetTaskStatus:    make(chan uuid.UUID, 32),
		ReturnTaskId:     make(chan uuid.UUID, 32),
		ReturnTaskStatus: make(chan TaskStatus, 32),
		Error:            make(chan error, 32),
		Stop:             make(chan struct{}),
	}

	// start processing tasks
	go processTasks()
	running = true

	return nil
}

// Stops processing tasks. Adding new tasks and requesting task statuses are
// disallowed in a stopped state. Downloads already underway keep their
// worker goroutines but their results go unrecorded.
func Stop() error {
	var err error
	if running {
		taskChannels.Stop <- struct{}{}
		err = <-taskChannels.Error
		running = false
	} else {
		err = &NotRunningError{}
	}
	return err
}

// Returns true if tasks are currently being processed, false if not.
func Running() bool {
	return running
}

// this type holds a specification used to create a valid download task
type Specification struct {
	// the name of the catalog holding the dataset (as specified in the
	// service config file)
	Catalog string
	// the catalog's identifier for the dataset
	Dataset string
	// optional field selections and row filters applied to the download
	Imports catalogs.ImportConfig
}

// Creates a new download task for the specified dataset, returning a UUID
// for the task. The download itself proceeds asynchronously; poll Status()
// with the returned UUID to follow it.
func Create(spec Specification) (uuid.UUID, error) {
	var taskId uuid.UUID
	if !running {
		return taskId, &NotRunningError{}
	}
	if spec.Catalog == "" || spec.Dataset == "" {
		return taskId, &IncompleteSpecificationError{}
	}

	// the catalog must be configured and constructible
	if _, err := catalogs.NewCatalog(spec.Catalog); err != nil {
		return taskId, err
	}

	taskChannels.CreateTask <- downloadTask{
		Catalog: spec.Catalog,
		Dataset: spec.Dataset,
		Imports: spec.Imports,
	}
	var err error
	select {
	case taskId = <-taskChannels.ReturnTaskId:
	case err = <-taskChannels.Error:
	}
	return taskId, err
}

// Given a task UUID, returns its download status (or a non-nil error
// indicating any issues encountered).
func Status(taskId uuid.UUID) (TaskStatus, error) {
	var status TaskStatus
	if !running {
		return status, &NotRunningError{}
	}
	var err error
	taskChannels.GetTaskStatus <- taskId
	select {
	case status = <-taskChannels.ReturnTaskStatus:
	case err = <-taskChannels.Error:
	}
	return status, err
}

// Requests that the task with the given UUID be canceled. Only a task whose
// download has not yet started can be canceled; a task already downloading
// reports a NotCancelableError and runs to completion.
func Cancel(taskId uuid.UUID) error {
	if !running {
		return &NotRunningError{}
	}
	taskChannels.CancelTask <- taskId
	return <-taskChannels.Error
}

//-----------
// Internals
//-----------

// global variables for managing tasks
var firstCall = true          // indicates first call to Start()
var running bool              // true if tasks are processing, false if not
var taskChannels channelsType // channels used for processing tasks

// this type holds various channels used by the task manager to communicate
// with its clients and its worker goroutines
type channelsType struct {
	CreateTask       chan downloadTask // used by client to request task creation
	ClaimTask        chan claimRequest // used by workers to begin their downloads
	UpdateTask       chan taskUpdate   // carries worker progress reports
	TaskDone         chan taskResult   // carries worker completion reports
	CancelTask       chan uuid.UUID    // used by client to request task cancellation
	GetTaskStatus    chan uuid.UUID    // used by client to request task status
	ReturnTaskId     chan uuid.UUID    // returns task ID to client
	ReturnTaskStatus chan TaskStatus   // returns task status to client
	Error            chan error        // returns error to client
	Stop             chan struct{}     // used by client to stop task management
}

// this function runs in its own goroutine and owns the task table; workers
// and clients reach it only through the task channels
func processTasks() {
	tasks := make(map[uuid.UUID]downloadTask)

	// parse the task channels into directional types as needed
	var createTaskChan <-chan downloadTask = taskChannels.CreateTask
	var claimTaskChan <-chan claimRequest = taskChannels.ClaimTask
	var updateTaskChan <-chan taskUpdate = taskChannels.UpdateTask
	var taskDoneChan <-chan taskResult = taskChannels.TaskDone
	var cancelTaskChan <-chan uuid.UUID = taskChannels.CancelTask
	var getTaskStatusChan <-chan uuid.UUID = taskChannels.GetTaskStatus
	var returnTaskIdChan chan<- uuid.UUID = taskChannels.ReturnTaskId
	var returnTaskStatusChan chan<- TaskStatus = taskChannels.ReturnTaskStatus
	var errorChan chan<- error = taskChannels.Error
	var stopChan <-chan struct{} = taskChannels.Stop

	running := true
	for running {
		select {
		case newTask := <-createTaskChan: // Create() called
			newTask.Id = uuid.New()
			newTask.StartTime = time.Now()
			newTask.Status = TaskStatus{
				Code:       TaskStatusPending,
				TotalBytes: catalogs.SizeUnknown,
			}
			tasks[newTask.Id] = newTask
			returnTaskIdChan <- newTask.Id
			slog.Info(fmt.Sprintf("Created new download task %s (dataset %s in catalog %s)",
				newTask.Id.String(), newTask.Dataset, newTask.Catalog))
			go runTask(newTask)
		case claim := <-claimTaskChan: // a worker is ready to download
			task, found := tasks[claim.Id]
			if found && task.Status.Code == TaskStatusPending {
				task.Status.Code = TaskStatusActive
				tasks[claim.Id] = task
				claim.Proceed <- true
			} else {
				// canceled while pending, or purged; the worker stands down
				claim.Proceed <- false
			}
		case update := <-updateTaskChan: // a worker reported progress
			if task, found := tasks[update.Id]; found && !task.Completed() {
				if update.TotalKnown {
					task.Status.TotalBytes = update.Total
				} else {
					task.Status.BytesTransferred = update.Bytes
				}
				tasks[update.Id] = task
			}
		case result := <-taskDoneChan: // a worker finished
			if task, found := tasks[result.Id]; found {
				task.CompletionTime = time.Now()
				task.Status.BytesTransferred = result.Bytes
				if result.Err != nil {
					task.Status.Code = TaskStatusFailed
					task.Status.Message = result.Err.Error()
					slog.Error(fmt.Sprintf("Task %s: %s", task.Id.String(),
						result.Err.Error()))
				} else {
					task.Status.Code = TaskStatusSucceeded
					task.Status.FilePath = result.FilePath
					slog.Info(fmt.Sprintf("Task %s: completed successfully (%s)",
						task.Id.String(), result.FilePath))
				}
				tasks[result.Id] = task
				recordInJournal(task)
			}
		case taskId := <-cancelTaskChan: // Cancel() called
			task, found := tasks[taskId]
			switch {
			case !found:
				errorChan <- &NotFoundError{Id: taskId}
			case task.Status.Code == TaskStatusPending:
				slog.Info(fmt.Sprintf("Task %s: canceled before download started",
					taskId.String()))
				task.Status.Code = TaskStatusCanceled
				task.CompletionTime = time.Now()
				tasks[taskId] = task
				recordInJournal(task)
				errorChan <- nil
			case task.Completed():
				errorChan <- nil // nothing left to cancel
			default:
				errorChan <- &NotCancelableError{Id: taskId}
			}
		case taskId := <-getTaskStatusChan: // Status() called
			if task, found := tasks[taskId]; found {
				returnTaskStatusChan <- task.Status
			} else {
				errorChan <- &NotFoundError{Id: taskId}
			}
		case <-stopChan: // Stop() called
			errorChan <- nil
			running = false
		}
	}
}

// writes a completed task to the download journal, if one is open
func recordInJournal(task downloadTask) {
	if !journal.IsOpen() {
		return
	}
	var status string
	switch task.Status.Code {
	case TaskStatusSucceeded:
		status = "succeeded"
	case TaskStatusFailed:
		status = "failed"
	case TaskStatusCanceled:
		status = "canceled"
	default:
		return // only terminal states are journaled
	}
	err := journal.RecordDownload(journal.Record{
		Id:          task.Id,
		Catalog:     task.Catalog,
		Dataset:     task.Dataset,
		StartTime:   task.StartTime,
		StopTime:    task.CompletionTime,
		Status:      status,
		PayloadSize: task.Status.BytesTransferred,
		FilePath:    task.Status.FilePath,
	})
	if err != nil {
		slog.Error(fmt.Sprintf("Task %s: recording journal entry: %s",
			task.Id.String(), err.Error()))
	}
}

// this function checks for the existence of the data directory and whether
// it is readable/writeable, returning a non-nil error if any of these
// conditions are not met
func validateDirectory(dirType, dir string) error {
	if dir == "" {
		return fmt.Errorf("no %s directory was specified!", dirType)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{
			Op:   "validateDirectory",
			Path: dir,
			Err:  fmt.Errorf("%s is not a valid %s directory!", dir, dirType),
		}
	}

	// can we write a file and read it?
	testFile := filepath.Join(dir, "test.txt")
	writtenTestData := []byte("test")
	err = os.WriteFile(testFile, writtenTestData, 0644)
	if err != nil {
		return &os.PathError{
			Op:   "validateDirectory",
			Path: dir,
			Err:  fmt.Errorf("Could not write to %s directory %s!", dirType, dir),
		}
	}
	readTestData, err := os.ReadFile(testFile)
	if err == nil {
		os.Remove(testFile)
	}
	if err != nil || !bytes.Equal(readTestData, writtenTestData) {
		return &os.PathError{
			Op:   "validateDirectory",
			Path: dir,
			Err:  fmt.Errorf("Could not read from %s directory %s!", dirType, dir),
		}
	}
	return nil
}
