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
	"fmt"

	"github.com/google/uuid"
)

// indicates that a task is sought but not found
type NotFoundError struct {
	Id uuid.UUID
}

func (t NotFoundError) Error() string {
	return fmt.Sprintf("The task %s was not found.", t.Id.String())
}

// indicates that Start() has been called when tasks are being processed
type AlreadyRunningError struct{}

func (t AlreadyRunningError) Error() string {
	return "Tasks are already running and cannot be started again."
}

// indicates that Stop() has been called when tasks are not being processed
type NotRunningError struct{}

func (t NotRunningError) Error() string {
	return "Tasks are not currently being processed."
}

// indicates that a cancellation arrived after the task's download had
// already started
type NotCancelableError struct {
	Id uuid.UUID
}

func (t NotCancelableError) Error() string {
	return fmt.Sprintf("The task %s has already started downloading and cannot be canceled.",
		t.Id.String())
}

// indicates that a download has been requested without naming a catalog or
// a dataset
type IncompleteSpecificationError struct{}

func (t IncompleteSpecificationError) Error() string {
	return "Requested download task names no catalog and/or no dataset."
}
