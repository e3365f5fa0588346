package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foomo/clientregistry/pkg/handler"
	"github.com/foomo/clientregistry/pkg/registry"
	"github.com/foomo/clientregistry/pkg/utils"
	"github.com/foomo/clientregistry/responses"
	keelhttp "github.com/foomo/keel/net/http"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	// Client talks to the registry http api
	Client struct {
		t          transport
		httpClient *http.Client
	}
	Option func(*Client)
	// Error is a failure reported by the server. It unwraps to the matching
	// registry error so callers can use errors.Is as with a local store.
	Error struct {
		Reply responses.Error
		kind  error
	}
)

// NewHTTPClient constructs a new client for the api exported at server,
// e.g. http://localhost:8080/clients
func NewHTTPClient(server string, opts ...Option) (*Client, error) {
	if !utils.IsValidURL(server) {
		return nil, errors.Errorf("invalid server url %q", server)
	}
	c := &Client{
		httpClient: keelhttp.NewHTTPClient(
			keelhttp.HTTPClientWithTimeout(10 * time.Second),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.t = NewHTTPTransport(strings.TrimSuffix(server, "/"), c.httpClient)
	return c, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithHTTPClient(v *http.Client) Option {
	return func(o *Client) {
		o.httpClient = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// List returns all clients in stored order
func (c *Client) List(ctx context.Context) (registry.Collection, error) {
	response := registry.Collection{}
	return response, c.t.call(ctx, http.MethodGet, "", nil, &response)
}

// Create appends record and returns it with its assigned id
func (c *Client) Create(ctx context.Context, record registry.Record) (registry.Record, error) {
	var response registry.Record
	return response, c.t.call(ctx, http.MethodPost, "", record, &response)
}

func (c *Client) Get(ctx context.Context, index int) (registry.Record, error) {
	var response registry.Record
	return response, c.t.call(ctx, http.MethodGet, indexPath(index), nil, &response)
}

func (c *Client) Update(ctx context.Context, index int, record registry.Record) (registry.Record, error) {
	var response registry.Record
	return response, c.t.call(ctx, http.MethodPut, indexPath(index), record, &response)
}

func (c *Client) Delete(ctx context.Context, index int) error {
	return c.t.call(ctx, http.MethodDelete, indexPath(index), nil, nil)
}

func (c *Client) Find(ctx context.Context, id string) (registry.Record, error) {
	var response registry.Record
	return response, c.t.call(ctx, http.MethodGet, idPath(id), nil, &response)
}

func (c *Client) UpdateByID(ctx context.Context, id string, record registry.Record) (registry.Record, error) {
	var response registry.Record
	return response, c.t.call(ctx, http.MethodPut, idPath(id), record, &response)
}

func (c *Client) DeleteByID(ctx context.Context, id string) error {
	return c.t.call(ctx, http.MethodDelete, idPath(id), nil, nil)
}

func (c *Client) ShutDown() {
	c.t.shutdown()
}

func (e *Error) Error() string {
	return e.Reply.Error()
}

func (e *Error) Unwrap() error {
	return e.kind
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func indexPath(index int) string {
	return fmt.Sprintf("/%d", index)
}

func idPath(id string) string {
	return "/id/" + url.PathEscape(id)
}

func newError(e responses.Error) *Error {
	var kind error
	switch e.Code {
	case handler.CodeInvalidRecord:
		kind = registry.ErrInvalidRecord
	case handler.CodeIndexOutOfRange:
		kind = registry.ErrIndexOutOfRange
	case handler.CodeNotFound:
		kind = registry.ErrNotFound
	case handler.CodeUnavailable:
		kind = registry.ErrStorageUnavailable
	}
	return &Error{Reply: e, kind: kind}
}
