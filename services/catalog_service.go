package services

import (
	"context"

	"github.com/google/uuid"
)

// this type encodes a JSON object for responding to root queries
type ServiceInfoResponse struct {
	Name          string `json:"name" example:"data-fair catalog service" doc:"The name of the service API"`
	Version       string `json:"version" example:"1.0.0" doc:"The version string (major.minor.patch)"`
	Uptime        int    `json:"uptime" example:"345600" doc:"The time the service has been up (seconds)"`
	Documentation string `json:"documentation" example:"/docs" doc:"The OpenAPI documentation endpoint"`
}

// a response for a catalog-related query (GET)
type CatalogResponse struct {
	Id           string `json:"id" example:"opendata" doc:"the configured name of the catalog"`
	Name         string `json:"name" example:"Open Data Portal"`
	Organization string `json:"organization" example:"The Open Data Company"`
	URL          string `json:"url" example:"https://opendata.example.com/api/v1"`
}

// a single row filter within a download request
type FilterSpec struct {
	Field  string   `json:"field" doc:"the schema key of the filtered field"`
	Type   string   `json:"type" example:"in" doc:"one of: in, nin, starts, gte, lte"`
	Value  string   `json:"value,omitempty" doc:"the filter value (single-valued filters)"`
	Values []string `json:"values,omitempty" doc:"the filter values (in/nin filters)"`
}

// a request for a dataset download (POST)
type DownloadRequest struct {
	// configured name of the catalog holding the dataset
	Catalog string `json:"catalog" example:"opendata" doc:"catalog identifier"`
	// the catalog's identifier for the dataset
	Dataset string `json:"dataset" example:"sirene" doc:"dataset identifier"`
	// optional field selection (schema keys)
	Fields []string `json:"fields,omitempty" doc:"schema keys of the fields to download"`
	// optional row filters
	Filters []FilterSpec `json:"filters,omitempty" doc:"row filters applied to the download"`
}

// a response for a dataset download request (POST)
type DownloadResponse struct {
	// download task ID
	Id uuid.UUID `json:"id" doc:"a UUID for the requested download"`
}

// a response for a download status request (GET)
type DownloadStatusResponse struct {
	// download task ID
	Id string `json:"id"`
	// download task status
	Status string `json:"status"`
	// message (if any) related to status
	Message string `json:"message,omitempty"`
	// number of bytes written so far
	BytesTransferred int64 `json:"bytes_transferred"`
	// estimated payload size in bytes (-1 if unknown)
	TotalBytes int64 `json:"total_bytes"`
	// path of the downloaded file (successes only)
	FilePath string `json:"file_path,omitempty"`
}

// CatalogService defines the interface for our catalog acquisition service.
type CatalogService interface {
	// Starts the service on the selected port, returning an error that indicates
	// success or failure.
	Start(port int) error
	// Gracefully shuts down the service without interrupting active connections.
	Shutdown(ctx context.Context) error
	// Closes down the service, freeing all resources.
	Close()
}
