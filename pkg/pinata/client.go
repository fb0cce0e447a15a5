package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/rarimo/nft-reward-svc/pkg/metadata"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const (
	DefaultAPIURL = "https://api.pinata.cloud"

	pinFilePath = "/pinning/pinFileToIPFS"
	pinJSONPath = "/pinning/pinJSONToIPFS"

	maxResponseSize = 1 << 20
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client pins files and JSON documents to IPFS through the Pinata API.
type Client struct {
	client    HttpClient
	apiURL    *url.URL
	apiKey    string
	secretKey string
}

func NewClient(client HttpClient, apiURL *url.URL, apiKey, secretKey string) *Client {
	return &Client{
		client:    client,
		apiURL:    apiURL,
		apiKey:    apiKey,
		secretKey: secretKey,
	}
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// MetadataDocument is the token metadata layout pinned before minting.
type MetadataDocument struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Image       string               `json:"image"`
	Attributes  []metadata.Attribute `json:"attributes"`
	CreatedAt   time.Time            `json:"created_at"`
}

func NewMetadataDocument(name, description string, image metadata.ContentURI, createdAt time.Time) MetadataDocument {
	return MetadataDocument{
		Name:        name,
		Description: description,
		Image:       string(image),
		Attributes:  []metadata.Attribute{},
		CreatedAt:   createdAt.UTC(),
	}
}

func (c *Client) UploadFile(ctx context.Context, name string, file io.Reader) (metadata.ContentURI, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return "", errors.Wrap(err, "failed to create form file")
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", errors.Wrap(err, "failed to copy file into form")
	}
	if err := form.Close(); err != nil {
		return "", errors.Wrap(err, "failed to close form")
	}

	uri, err := c.pin(ctx, pinFilePath, form.FormDataContentType(), &body)
	return uri, errors.Wrap(err, "failed to upload file", logan.F{
		"name": name,
	})
}

func (c *Client) UploadJSON(ctx context.Context, doc interface{}) (metadata.ContentURI, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal document")
	}

	uri, err := c.pin(ctx, pinJSONPath, "application/json", bytes.NewReader(raw))
	return uri, errors.Wrap(err, "failed to upload json")
}

func (c *Client) pin(ctx context.Context, path, contentType string, body io.Reader) (metadata.ContentURI, error) {
	endpoint := c.apiURL.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), body)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("pinata_api_key", c.apiKey)
	req.Header.Set("pinata_secret_api_key", c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.From(errors.New("unexpected status code"), logan.F{
			"status_code": resp.StatusCode,
			"endpoint":    endpoint.String(),
			"body":        string(raw),
		})
	}

	var result pinResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal pin response")
	}
	if result.IpfsHash == "" {
		return "", errors.New("pin response has no ipfs hash")
	}

	return metadata.ContentURI("ipfs://" + result.IpfsHash), nil
}
