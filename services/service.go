package services

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humamux"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/net/netutil"

	"github.com/data-fair/catalog-data-fair/catalogs"
	"github.com/data-fair/catalog-data-fair/config"
	"github.com/data-fair/catalog-data-fair/tasks"
)

// Version numbers
var majorVersion = 0
var minorVersion = 1
var patchVersion = 0

// Version string
var version = fmt.Sprintf("%d.%d.%d", majorVersion, minorVersion, patchVersion)

// This type implements the CatalogService interface, exposing dataset
// metadata and downloads for the configured data-fair catalogs.
type catalogService struct {
	// name of the service
	Name string
	// service version identifier
	Version string
	// time which the service was started
	StartTime time.Time
	// port on which the service currently runs
	Port int
	// router for REST endpoints
	Router *mux.Router
	// API wrapper
	API huma.API
	// HTTP server.
	Server *http.Server
}

type ServiceInfoOutput struct {
	Body ServiceInfoResponse `doc:"information about the service itself"`
}

// handler method for root
func (service *catalogService) getRoot(ctx context.Context,
	input *struct{}) (*ServiceInfoOutput, error) {

	slog.Info("Querying root endpoint...")
	return &ServiceInfoOutput{
		Body: ServiceInfoResponse{
			Name:          service.Name,
			Version:       service.Version,
			Uptime:        int(service.uptime()),
			Documentation: "/docs",
		},
	}, nil
}

type CatalogOutput struct {
	Body CatalogResponse `doc:"Information about the requested catalog"`
}

type CatalogsOutput struct {
	Body []CatalogResponse `doc:"A list of information about configured catalogs"`
}

// handler method for querying all catalogs
func (service *catalogService) getCatalogs(ctx context.Context,
	input *struct{}) (*CatalogsOutput, error) {

	slog.Info("Querying configured catalogs...")
	output := &CatalogsOutput{
		Body: make([]CatalogResponse, 0),
	}
	for catalogName, catalog := range config.Catalogs {
		output.Body = append(output.Body, CatalogResponse{
			Id:           catalogName,
			Name:         catalog.Name,
			Organization: catalog.Organization,
			URL:          catalog.URL,
		})
	}
	slices.SortFunc(output.Body, func(c1, c2 CatalogResponse) int { // sort by name
		return cmp.Compare(c1.Name, c2.Name)
	})
	return output, nil
}

// handler method for querying a single catalog for its metadata
func (service *catalogService) getCatalog(ctx context.Context,
	input *struct {
		Id string `path:"catalog" example:"opendata" doc:"the configured name of a catalog"`
	}) (*CatalogOutput, error) {

	slog.Info(fmt.Sprintf("Querying catalog %s...", input.Id))
	catalog, ok := config.Catalogs[input.Id]
	if !ok {
		return nil, huma.Error404NotFound(fmt.Sprintf("Catalog %s not found", input.Id))
	}
	return &CatalogOutput{
		Body: CatalogResponse{
			Id:           input.Id,
			Name:         catalog.Name,
			Organization: catalog.Organization,
			URL:          catalog.URL,
		},
	}, nil
}

type DatasetMetadataOutput struct {
	Body catalogs.DatasetMetadata `doc:"Normalized metadata for the requested dataset"`
}

// handler method for querying a catalog for a dataset's metadata
func (service *catalogService) getDatasetMetadata(ctx context.Context,
	input *struct {
		Catalog string `path:"catalog" example:"opendata" doc:"the configured name of a catalog"`
		Dataset string `path:"dataset" example:"sirene" doc:"the catalog's identifier for a dataset"`
	}) (*DatasetMetadataOutput, error) {

	catalog, err := catalogs.NewCatalog(input.Catalog)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	metadata, err := catalog.Metadata(input.Dataset)
	if err != nil {
		return nil, huma.Error502BadGateway(err.Error())
	}
	return &DatasetMetadataOutput{Body: metadata}, nil
}

type DownloadOutput struct {
	Body   DownloadResponse `doc:"A UUID for the requested download"`
	Status int
}

// converts the filters and fields of a download request into an import
// configuration for the task manager
func importConfig(request DownloadRequest) catalogs.ImportConfig {
	var imports catalogs.ImportConfig
	for _, key := range request.Fields {
		imports.Fields = append(imports.Fields, catalogs.ImportField{Key: key})
	}
	for _, filter := range request.Filters {
		imports.Filters = append(imports.Filters, catalogs.ImportFilter{
			Field:  catalogs.ImportField{Key: filter.Field},
			Type:   filter.Type,
			Value:  filter.Value,
			Values: filter.Values,
		})
	}
	return imports
}

// handler method for initiating a dataset download
func (service *catalogService) createDownload(ctx context.Context,
	input *struct {
		Body        DownloadRequest `doc:"The body of a POST request for a dataset download"`
		ContentType string          `header:"Content-Type" doc:"Content-Type header (must be application/json)"`
	}) (*DownloadOutput, error) {

	taskId, err := tasks.Create(tasks.Specification{
		Catalog: input.Body.Catalog,
		Dataset: input.Body.Dataset,
		Imports: importConfig(input.Body),
	})
	if err != nil {
		switch err.(type) {
		case catalogs.NotFoundError, *tasks.IncompleteSpecificationError:
			return nil, huma.Error400BadRequest(err.Error())
		}
		return nil, err
	}
	return &DownloadOutput{
		Body: DownloadResponse{
			Id: taskId,
		},
		Status: http.StatusCreated,
	}, nil
}

// convert a task status code to a nice human-friendly string
func statusAsString(statusCode tasks.TaskStatusCode) string {
	switch statusCode {
	case tasks.TaskStatusPending:
		return "pending"
	case tasks.TaskStatusActive:
		return "active"
	case tasks.TaskStatusSucceeded:
		return "succeeded"
	case tasks.TaskStatusFailed:
		return "failed"
	case tasks.TaskStatusCanceled:
		return "canceled"
	}
	return "unknown"
}

type DownloadStatusOutput struct {
	Body DownloadStatusResponse `doc:"A status message for the download task with the given ID"`
}

// handler method for getting the status of a download
func (service *catalogService) getDownloadStatus(ctx context.Context,
	input *struct {
		Id uuid.UUID `path:"id" example:"de9a2d6a-f5c9-4322-b8a7-8121d83fdfc2" doc:"the UUID for the requested download"`
	}) (*DownloadStatusOutput, error) {

	status, err := tasks.Status(input.Id)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &DownloadStatusOutput{
		Body: DownloadStatusResponse{
			Id:               input.Id.String(),
			Status:           statusAsString(status.Code),
			Message:          status.Message,
			BytesTransferred: status.BytesTransferred,
			TotalBytes:       status.TotalBytes,
			FilePath:         status.FilePath,
		},
	}, nil
}

type TaskDeletionOutput struct {
	Status int
}

// handler method for deleting (canceling) an existing download
func (service *catalogService) deleteDownload(ctx context.Context,
	input *struct {
		Id uuid.UUID `path:"id" example:"de9a2d6a-f5c9-4322-b8a7-8121d83fdfc2" doc:"the UUID for the requested download"`
	}) (*TaskDeletionOutput, error) {

	err := tasks.Cancel(input.Id)
	if err != nil {
		switch err.(type) {
		case *tasks.NotFoundError:
			return nil, huma.Error404NotFound(err.Error())
		case *tasks.NotCancelableError:
			return nil, huma.Error409Conflict(err.Error())
		}
		return nil, err
	}
	return &TaskDeletionOutput{
		Status: http.StatusAccepted,
	}, nil
}

// returns the uptime for the service in seconds
func (service *catalogService) uptime() float64 {
	return time.Since(service.StartTime).Seconds()
}

// constructs a catalog acquisition service given our configuration
func NewCatalogService() (CatalogService, error) {

	// validate our configuration
	if config.Service.DataDirectory == "" {
		return nil, fmt.Errorf("No data directory was specified.")
	}
	if len(config.Catalogs) == 0 {
		return nil, fmt.Errorf("No catalogs were specified.")
	}

	service := new(catalogService)
	service.Name = "data-fair catalog service"
	service.Version = version
	service.Port = -1

	// set up routing
	service.Router = mux.NewRouter()
	api := humamux.New(service.Router, huma.DefaultConfig(service.Name, service.Version))
	huma.Get(api, "/", service.getRoot)

	// API v1
	huma.Get(api, "/api/v1/catalogs", service.getCatalogs)
	huma.Get(api, "/api/v1/catalogs/{catalog}", service.getCatalog)
	huma.Get(api, "/api/v1/catalogs/{catalog}/datasets/{dataset}", service.getDatasetMetadata)
	huma.Post(api, "/api/v1/downloads", service.createDownload)
	huma.Get(api, "/api/v1/downloads/{id}", service.getDownloadStatus)
	huma.Delete(api, "/api/v1/downloads/{id}", service.deleteDownload)

	AddDocEndpoints(service.Router)

	return service, nil
}

// starts the catalog acquisition service
func (service *catalogService) Start(port int) error {
	slog.Info(fmt.Sprintf("Starting %s service on port %d...", service.Name, port))
	slog.Info(fmt.Sprintf("(Accepting up to %d connections)", config.Service.MaxConnections))

	service.StartTime = time.Now()

	// create a listener that limits the number of incoming connections
	service.Port = port
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return err
	}
	defer listener.Close()
	listener = netutil.LimitListener(listener, config.Service.MaxConnections)

	// start tasks processing
	err = tasks.Start()
	if err != nil {
		return err
	}

	// start the server
	service.Server = &http.Server{
		Handler: service.Router}
	err = service.Server.Serve(listener)

	// we don't report the server closing as an error
	if err != http.ErrServerClosed {
		return err
	}
	return nil
}

// gracefully shuts down the service without interrupting active connections
func (service *catalogService) Shutdown(ctx context.Context) error {
	tasks.Stop()
	if service.Server != nil {
		return service.Server.Shutdown(ctx)
	}
	return nil
}

// closes down the service abruptly, freeing all resources
func (service *catalogService) Close() {
	tasks.Stop()
	if service.Server != nil {
		service.Server.Close()
	}
}
