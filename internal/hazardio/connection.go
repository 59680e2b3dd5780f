// Package hazardio loads scenario definitions (sources, sites, GSIM
// weights) the way the teacher loads VDS cubes: through a small
// Connection capability exposing just enough to read on, built by a
// ConnectionMaker closure (cmd/hazard picks the file or Azure maker per
// scenario argument).
package hazardio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

// Connection is the capability needed to read a scenario definition,
// mirroring the teacher's vds.Connection contract (Url/ConnectionString/
// IsAuthorizedToRead) generalized from VDS cube URLs to scenario blobs.
type Connection interface {
	Url() string
	ConnectionString() string
	IsAuthorizedToRead() bool
	Read(ctx context.Context) ([]byte, error)
}

// ConnectionMaker builds a Connection from a resource locator and an
// optional SAS/credential string, the same shape as the teacher's
// vds.ConnectionMaker.
type ConnectionMaker func(resource, credentials string) (Connection, error)

// FileConnection reads a scenario definition from the local filesystem;
// used for CLI one-shot runs and tests.
type FileConnection struct {
	path string
}

// MakeFileConnection is a ConnectionMaker reading from local paths; it
// ignores the credentials argument.
func MakeFileConnection(resource, _ string) (Connection, error) {
	return &FileConnection{path: resource}, nil
}

func (c *FileConnection) Url() string               { return c.path }
func (c *FileConnection) ConnectionString() string  { return "" }
func (c *FileConnection) IsAuthorizedToRead() bool  { return true }
func (c *FileConnection) Read(_ context.Context) ([]byte, error) {
	return os.ReadFile(c.path)
}

// AzureConnection reads a scenario definition from an Azure Blob Storage
// container, mirroring the teacher's MakeAzureConnection.
type AzureConnection struct {
	containerURL string
	sas          string
	blobName     string
}

// MakeAzureConnection builds a ConnectionMaker bound to an accept list,
// shaped like core.MakeAzureConnection(storageAccounts). A non-empty list
// is matched against the full resource URL: only those exact scenario
// URLs are accepted, and entries are not matched by storage-account host.
// An empty list accepts any URL.
func MakeAzureConnection(allowedAccounts []string) ConnectionMaker {
	allowed := make(map[string]bool, len(allowedAccounts))
	for _, a := range allowedAccounts {
		allowed[a] = true
	}
	return func(resource, sas string) (Connection, error) {
		if len(allowed) > 0 && !allowed[resource] {
			return nil, fmt.Errorf("scenario url %q is not in the accepted list", resource)
		}
		containerURL, blobName, err := splitBlobURL(resource)
		if err != nil {
			return nil, err
		}
		return &AzureConnection{containerURL: containerURL, sas: sas, blobName: blobName}, nil
	}
}

func splitBlobURL(resource string) (containerURL, blobName string, err error) {
	// Scenario URLs are expected as "<container-url>/<blob-name>"; the
	// container URL itself carries the storage account and container.
	for i := len(resource) - 1; i >= 0; i-- {
		if resource[i] == '/' {
			return resource[:i], resource[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("malformed scenario url %q: missing blob name", resource)
}

func (c *AzureConnection) Url() string { return c.containerURL + "/" + c.blobName }

func (c *AzureConnection) ConnectionString() string {
	if c.sas == "" {
		return c.containerURL
	}
	return c.containerURL + "?" + c.sas
}

func (c *AzureConnection) IsAuthorizedToRead() bool { return c.sas != "" }

func (c *AzureConnection) Read(ctx context.Context) ([]byte, error) {
	opts := &container.ClientOptions{}
	client, err := container.NewClientWithNoCredential(c.ConnectionString(), opts)
	if err != nil {
		return nil, fmt.Errorf("opening container client: %w", err)
	}
	blobClient := client.NewBlobClient(c.blobName)
	resp, err := blobClient.DownloadStream(ctx, &blob.DownloadStreamOptions{})
	if err != nil {
		return nil, fmt.Errorf("downloading scenario blob %s: %w", c.blobName, err)
	}
	defer resp.Body.Close()

	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading scenario blob %s: %w", c.blobName, readErr)
		}
	}
	return buf, nil
}
