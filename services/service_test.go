package services

// This file defines a unit test setup for the catalog service. To simplify
// the testing protocol, we run a fake data-fair catalog that serves one
// dataset with a bulk file.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/data-fair/catalog-data-fair/cdftest"
	"github.com/data-fair/catalog-data-fair/config"
	"github.com/data-fair/catalog-data-fair/journal"
)

// temporary testing directory
var TESTING_DIR string

// service URLs
var (
	baseUrl   = "http://localhost:8812/"
	apiPrefix = "api/v1/"
)

// service instance
var service CatalogService

// the fake catalog server
var testServer *httptest.Server

// the CSV payload served by the fake catalog
const testContent = "siren,ville\n552100554,Paris\n542051180,Lyon\n"

// a pause to give the service and the task manager a bit of time
var pause time.Duration = time.Duration(25) * time.Millisecond

const serviceConfig string = `
service:
  port: 8812
  maxConnections: 100
  dataDirectory: TESTING_DIR/data
  journalDirectory: TESTING_DIR/journal
catalogs:
  opendata:
    name: Open Data Portal
    organization: The Open Data Company
    url: CATALOG_URL
    provider: data-fair
`

// performs testing setup
func setup() {
	cdftest.EnableDebugLogging()

	log.Print("Creating testing directory...\n")
	var err error
	TESTING_DIR, err = os.MkdirTemp(os.TempDir(), "catalog-data-fair-tests-")
	if err != nil {
		log.Panicf("Couldn't create testing directory: %s", err)
	}

	testServer = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/datasets/sirene":
				fmt.Fprintf(w, `{
					"title": "Base SIRENE",
					"file": {"size": %d},
					"schema": [
						{"key": "siren", "type": "string"},
						{"key": "_ext_Address.CP", "type": "string", "x-extension": "address"}
					]
				}`, len(testContent))
			case "/datasets/sirene/full":
				fmt.Fprint(w, testContent)
			default:
				http.Error(w, "no such dataset", http.StatusNotFound)
			}
		}))

	myConfig := strings.ReplaceAll(serviceConfig, "TESTING_DIR", TESTING_DIR)
	myConfig = strings.ReplaceAll(myConfig, "CATALOG_URL", testServer.URL)
	err = config.Init([]byte(myConfig))
	if err != nil {
		log.Panicf("Couldn't initialize configuration: %s", err)
	}
	for _, dir := range []string{config.Service.DataDirectory, config.Service.JournalDirectory} {
		if err := os.Mkdir(dir, 0755); err != nil {
			log.Panicf("Couldn't create directory %s: %s", dir, err)
		}
	}
	if err := journal.Init(); err != nil {
		log.Panicf("Couldn't open the download journal: %s", err)
	}

	service, err = NewCatalogService()
	if err != nil {
		log.Panicf("Couldn't construct the service: %s", err)
	}
	go service.Start(config.Service.Port)
	time.Sleep(10 * pause) // let the listener come up
}

// performs testing breakdown
func breakdown() {
	if service != nil {
		service.Close()
	}
	journal.Finalize()
	if testServer != nil {
		testServer.Close()
	}
	if TESTING_DIR != "" {
		log.Printf("Deleting testing directory %s...\n", TESTING_DIR)
		os.RemoveAll(TESTING_DIR)
	}
}

// sends a GET query with well-formed headers
func get(resource string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, baseUrl+resource, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")
	return http.DefaultClient.Do(req)
}

// sends a POST query with well-formed headers and the given JSON body
func post(resource string, body []byte) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, baseUrl+resource, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Content-Type", "application/json")
	return http.DefaultClient.Do(req)
}

// sends a DELETE query with well-formed headers
func delete_(resource string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodDelete, baseUrl+resource, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")
	return http.DefaultClient.Do(req)
}

// reads and unmarshals a JSON response body
func readJson(resp *http.Response, result any) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, result)
}

// polls a download until it reaches a terminal state
func awaitDownload(t *testing.T, taskId string) DownloadStatusResponse {
	for i := 0; i < 200; i++ {
		resp, err := get(apiPrefix + "downloads/" + taskId)
		assert.Nil(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var status DownloadStatusResponse
		assert.Nil(t, readJson(resp, &status))
		switch status.Status {
		case "succeeded", "failed", "canceled":
			return status
		}
		time.Sleep(pause)
	}
	t.Fatalf("Download %s never completed", taskId)
	return DownloadStatusResponse{}
}

// runs all tests serially
func TestRunner(t *testing.T) {
	tester := SerialTests{Test: t}
	tester.TestQueryRoot()
	tester.TestQueryCatalogs()
	tester.TestQueryCatalog()
	tester.TestQueryDatasetMetadata()
	tester.TestCreateDownload()
	tester.TestBadDownloadRequests()
	tester.TestUnknownDownload()
	tester.TestShutdown()
}

// This runs setup, runs all tests, and does breakdown.
func TestMain(m *testing.M) {
	var status int
	setup()
	status = m.Run()
	breakdown()
	os.Exit(status)
}

// To run the tests serially, we attach them to a SerialTests type and
// have them run by a single test runner.
type SerialTests struct{ Test *testing.T }

// queries the service's root endpoint
func (t *SerialTests) TestQueryRoot() {
	assert := assert.New(t.Test)

	resp, err := get("")
	assert.Nil(err)
	assert.Equal(http.StatusOK, resp.StatusCode)

	var info ServiceInfoResponse
	assert.Nil(readJson(resp, &info))
	assert.Equal("data-fair catalog service", info.Name)
	assert.Equal(version, info.Version)
}

// queries the list of configured catalogs
func (t *SerialTests) TestQueryCatalogs() {
	assert := assert.New(t.Test)

	resp, err := get(apiPrefix + "catalogs")
	assert.Nil(err)
	assert.Equal(http.StatusOK, resp.StatusCode)

	var catalogs []CatalogResponse
	assert.Nil(readJson(resp, &catalogs))
	assert.Len(catalogs, 1)
	assert.Equal("opendata", catalogs[0].Id)
	assert.Equal("Open Data Portal", catalogs[0].Name)
	assert.Equal("The Open Data Company", catalogs[0].Organization)
}

// queries a single catalog, configured and not
func (t *SerialTests) TestQueryCatalog() {
	assert := assert.New(t.Test)

	resp, err := get(apiPrefix + "catalogs/opendata")
	assert.Nil(err)
	assert.Equal(http.StatusOK, resp.StatusCode)
	var catalog CatalogResponse
	assert.Nil(readJson(resp, &catalog))
	assert.Equal("opendata", catalog.Id)

	resp, err = get(apiPrefix + "catalogs/nosuchcat")
	assert.Nil(err)
	assert.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

// queries a dataset's normalized metadata
func (t *SerialTests) TestQueryDatasetMetadata() {
	assert := assert.New(t.Test)

	resp, err := get(apiPrefix + "catalogs/opendata/datasets/sirene")
	assert.Nil(err)
	assert.Equal(http.StatusOK, resp.StatusCode)

	var metadata struct {
		Id     string `json:"id"`
		Title  string `json:"title"`
		Size   int64  `json:"size"`
		Schema []struct {
			Key string `json:"key"`
		} `json:"schema"`
	}
	assert.Nil(readJson(resp, &metadata))
	assert.Equal("sirene", metadata.Id)
	assert.Equal("Base SIRENE", metadata.Title)
	assert.Equal(int64(len(testContent)), metadata.Size)
	assert.Len(metadata.Schema, 2)
	assert.Equal("siren", metadata.Schema[0].Key)
	assert.Equal("ext_address_cp", metadata.Schema[1].Key)

	// an unknown dataset comes back as a bad gateway (the catalog 404s)
	resp, err = get(apiPrefix + "catalogs/opendata/datasets/nosuchset")
	assert.Nil(err)
	assert.Equal(http.StatusBadGateway, resp.StatusCode)
	resp.Body.Close()
}

// requests a download and follows it to completion
func (t *SerialTests) TestCreateDownload() {
	assert := assert.New(t.Test)

	body, _ := json.Marshal(DownloadRequest{
		Catalog: "opendata",
		Dataset: "sirene",
	})
	resp, err := post(apiPrefix+"downloads", body)
	assert.Nil(err)
	assert.Equal(http.StatusCreated, resp.StatusCode)
	var download DownloadResponse
	assert.Nil(readJson(resp, &download))
	assert.NotEqual(uuid.UUID{}, download.Id)

	status := awaitDownload(t.Test, download.Id.String())
	assert.Equal("succeeded", status.Status)
	assert.Equal(int64(len(testContent)), status.TotalBytes)
	assert.Equal(int64(len(testContent)), status.BytesTransferred)
	assert.NotEmpty(status.FilePath)

	written, err := os.ReadFile(status.FilePath)
	assert.Nil(err)
	assert.Equal(testContent, string(written))

	// canceling a completed download is accepted and changes nothing
	resp, err = delete_(apiPrefix + "downloads/" + download.Id.String())
	assert.Nil(err)
	assert.Equal(http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()
}

// sends download requests the service must refuse
func (t *SerialTests) TestBadDownloadRequests() {
	assert := assert.New(t.Test)

	// no dataset
	body, _ := json.Marshal(DownloadRequest{Catalog: "opendata"})
	resp, err := post(apiPrefix+"downloads", body)
	assert.Nil(err)
	assert.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// unknown catalog
	body, _ = json.Marshal(DownloadRequest{Catalog: "nosuchcat", Dataset: "sirene"})
	resp, err = post(apiPrefix+"downloads", body)
	assert.Nil(err)
	assert.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// queries and cancels a download that doesn't exist
func (t *SerialTests) TestUnknownDownload() {
	assert := assert.New(t.Test)

	taskId := uuid.New().String()
	resp, err := get(apiPrefix + "downloads/" + taskId)
	assert.Nil(err)
	assert.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = delete_(apiPrefix + "downloads/" + taskId)
	assert.Nil(err)
	assert.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

// shuts the service down gracefully
func (t *SerialTests) TestShutdown() {
	assert := assert.New(t.Test)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := service.Shutdown(ctx)
	assert.Nil(err)
	service = nil
}
