package metadata

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rarimo/nft-reward-svc/pkg/ipfs"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const maxBodySize = 10 << 20 // 10 MB

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client resolves content uris of any supported kind. HTTP(S) uris are fetched
// directly, ipfs uris go through the configured gateway.
type Client struct {
	client  HttpClient
	ipfs    ipfs.Gateway
	timeout time.Duration
}

func NewClient(client HttpClient, ipfs ipfs.Gateway, timeout time.Duration) *Client {
	return &Client{
		client:  client,
		ipfs:    ipfs,
		timeout: timeout,
	}
}

type unmarshalerFrom interface {
	UnmarshalFrom(json.RawMessage) error
}

type uriPopulator interface {
	PopulateURI(uri ContentURI)
}

func (c *Client) LoadMetadata(ctx context.Context, uri ContentURI, out interface{}) error {
	if pu, ok := out.(uriPopulator); ok {
		pu.PopulateURI(uri)
	}

	metadataPayload, err := c.getMetadataPayload(ctx, uri)
	if err != nil {
		return errors.Wrap(err, "failed to get metadata payload")
	}

	if u, ok := out.(unmarshalerFrom); ok {
		return u.UnmarshalFrom(metadataPayload)
	}

	err = json.Unmarshal(metadataPayload, out)
	return errors.Wrap(err, "failed to unmarshal metadata payload")
}

// Resolve returns the raw bytes the uri points to.
func (c *Client) Resolve(ctx context.Context, uri ContentURI) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.load(ctx, uri.Normalize(), "*/*")
}

func (c *Client) DownloadImage(ctx context.Context, imageURL ContentURI) ([]byte, error) {
	return c.Resolve(ctx, imageURL)
}

// Locate checks that the uri is reachable and returns the http url it was
// served from. Data uris are returned as is.
func (c *Client) Locate(ctx context.Context, uri ContentURI) (string, error) {
	uri = uri.Normalize()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch uri.Kind() {
	case KindHTTP:
		body, err := c.openHttp(ctx, string(uri), "*/*")
		if err != nil {
			return "", err
		}
		body.Close()
		return string(uri), nil
	case KindIPFS:
		if locator, ok := c.ipfs.(ipfs.Locator); ok {
			return locator.Locate(ctx, uri.ContentID())
		}
		body, err := c.ipfs.GetReader(ctx, uri.ContentID())
		if err != nil {
			return "", err
		}
		body.Close()
		return uri.GatewayURL(ipfs.DefaultGateways[0]), nil
	case KindData:
		return string(uri), nil
	default:
		return "", errors.From(errors.New("unexpected schema"), logan.F{
			"uri": string(uri),
		})
	}
}

func (c *Client) getMetadataPayload(ctx context.Context, uri ContentURI) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := c.load(ctx, uri.Normalize(), "application/json")
	if err != nil {
		return nil, errors.Wrap(err, "failed to load metadata")
	}

	return sanitizeJSON(payload), nil
}

func (c *Client) load(ctx context.Context, uri ContentURI, accept string) ([]byte, error) {
	fields := logan.F{
		"kind": uri.Kind().String(),
		"uri":  string(uri),
	}

	switch uri.Kind() {
	case KindHTTP:
		return c.getHttp(ctx, string(uri), accept)
	case KindIPFS:
		return c.ipfs.Get(ctx, uri.ContentID())
	case KindData:
		return parseData(string(uri))
	}

	if uri == "" {
		return nil, errors.New("empty url schema")
	}
	return nil, errors.From(errors.New("unexpected schema"), fields)
}

func (c *Client) getHttp(ctx context.Context, url, accept string) ([]byte, error) {
	body, err := c.openHttp(ctx, url, accept)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	result, err := io.ReadAll(io.LimitReader(body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read body")
	}

	return result, nil
}

func (c *Client) openHttp(ctx context.Context, url, accept string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Accept", accept)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform request")
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return resp.Body, nil
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusUnauthorized:
		return nil, errors.From(errors.New("not allowed to access url"), logan.F{
			"url": url,
		})
	case http.StatusNotFound:
		return nil, errors.From(ipfs.ErrNotFound, logan.F{
			"url": url,
		})
	default:
		return nil, errors.From(errors.New("unexpected status code"), logan.F{
			"status_code": resp.StatusCode,
			"url":         url,
		})
	}
}

func parseData(uri string) ([]byte, error) {
	opaque := strings.TrimPrefix(uri, "data:")

	header, payload, ok := strings.Cut(opaque, ",")
	if !ok {
		return nil, errors.New("unexpected format of data url's payload")
	}

	mimeTypeData := strings.Split(header, ";")
	mimeType := mimeTypeData[0]
	if mimeType != "application/json" {
		return nil, errors.From(errors.New("unexpected mime type"), logan.F{
			"mime_type": mimeType,
		})
	}

	encoding := ""
	if len(mimeTypeData) > 1 {
		encoding = mimeTypeData[len(mimeTypeData)-1]
	}

	switch encoding {
	case "base64":
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode payload")
		}
		return decoded, nil
	case "", "utf8", "charset=utf-8":
		return []byte(payload), nil
	default:
		return nil, errors.From(errors.New("unexpected data url encoding"), logan.F{
			"encoding": encoding,
		})
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func sanitizeJSON(payload []byte) json.RawMessage {
	payload = bytes.TrimPrefix(payload, utf8BOM)
	payload = bytes.ReplaceAll(payload, []byte(`\u0000`), nil)
	return bytes.TrimSpace(payload)
}
