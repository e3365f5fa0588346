package handler_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/foomo/clientregistry/pkg/handler"
	"github.com/foomo/clientregistry/pkg/registry"
	"github.com/foomo/clientregistry/pkg/storage"
	"github.com/foomo/clientregistry/responses"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
	"golang.org/x/net/nettest"
	"golang.org/x/sync/errgroup"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const alice = `{"name":"Alice","email":"alice@example.com","phone":"111","city":"Lisbon"}`

type brokenStorage struct {
	storage.Storage
}

func (brokenStorage) Read(context.Context, string) ([]byte, error) {
	return nil, errors.New("storage disabled")
}

func newTestStore(t *testing.T, s storage.Storage) *registry.Store {
	t.Helper()
	if s == nil {
		bucket, err := blob.OpenBucket(context.Background(), "mem://")
		require.NoError(t, err)
		t.Cleanup(func() { _ = bucket.Close() })
		s = storage.NewBlobFromBucket(bucket, "")
	}
	l := zaptest.NewLogger(t)
	h, err := registry.NewHistory(l, s)
	require.NoError(t, err)
	return registry.New(l, h)
}

func newTestServer(t *testing.T, store *registry.Store, opts ...handler.HTTPOption) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler.NewHTTP(zaptest.NewLogger(t), store, opts...))
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	status, data, err := send(method, url, body)
	require.NoError(t, err)
	return status, data
}

func send(method, url, body string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(context.Background(), method, url, strings.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, buf.Bytes(), nil
}

func decodeReply[T any](t *testing.T, data []byte) T {
	t.Helper()
	var reply struct {
		Reply T `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(data, &reply))
	return reply.Reply
}

func TestHTTP_CRUD(t *testing.T) {
	server := newTestServer(t, newTestStore(t, nil))
	url := server.URL + "/clients"

	status, body := do(t, http.MethodGet, url, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"reply":[]}`, string(body))

	status, body = do(t, http.MethodPost, url, alice)
	require.Equal(t, http.StatusCreated, status)
	created := decodeReply[registry.Record](t, body)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Alice", created.Name)

	status, body = do(t, http.MethodPost, url, `{"name":"Bob","email":"bob@example.com","phone":"222","city":"Porto"}`)
	require.Equal(t, http.StatusCreated, status)
	bob := decodeReply[registry.Record](t, body)

	status, body = do(t, http.MethodPut, url+"/0", `{"name":"Alicia","email":"alice@example.com","phone":"111","city":"Lisbon"}`)
	require.Equal(t, http.StatusOK, status)
	updated := decodeReply[registry.Record](t, body)
	assert.Equal(t, "Alicia", updated.Name)
	assert.Equal(t, created.ID, updated.ID)

	status, _ = do(t, http.MethodDelete, url+"/0", "")
	require.Equal(t, http.StatusNoContent, status)

	status, body = do(t, http.MethodGet, url, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, registry.Collection{bob}, decodeReply[registry.Collection](t, body))

	status, body = do(t, http.MethodGet, url+"/0", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, bob, decodeReply[registry.Record](t, body))
}

func TestHTTP_ByID(t *testing.T) {
	store := newTestStore(t, nil)
	server := newTestServer(t, store, handler.WithBasePath("/api/clients/"))
	url := server.URL + "/api/clients"

	first, err := store.Create(context.Background(), registry.Record{Name: "A", Email: "a", Phone: "1", City: "x"})
	require.NoError(t, err)
	second, err := store.Create(context.Background(), registry.Record{Name: "B", Email: "b", Phone: "2", City: "y"})
	require.NoError(t, err)

	status, body := do(t, http.MethodGet, url+"/id/"+second.ID, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, second, decodeReply[registry.Record](t, body))

	status, _ = do(t, http.MethodDelete, url+"/id/"+first.ID, "")
	require.Equal(t, http.StatusNoContent, status)

	status, body = do(t, http.MethodPut, url+"/id/"+second.ID, `{"name":"Bee","email":"b","phone":"2","city":"y"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Bee", decodeReply[registry.Record](t, body).Name)

	status, body = do(t, http.MethodGet, url+"/id/"+first.ID, "")
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, handler.CodeNotFound, decodeReply[responses.Error](t, body).Code)
}

func TestHTTP_Errors(t *testing.T) {
	server := newTestServer(t, newTestStore(t, nil))
	url := server.URL + "/clients"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   int
	}{
		{"out of range update", http.MethodPut, "/5", alice, http.StatusNotFound, handler.CodeIndexOutOfRange},
		{"out of range delete", http.MethodDelete, "/5", "", http.StatusNotFound, handler.CodeIndexOutOfRange},
		{"negative index", http.MethodGet, "/-1", "", http.StatusNotFound, handler.CodeIndexOutOfRange},
		{"index not a number", http.MethodGet, "/abc", "", http.StatusBadRequest, handler.CodeInvalidRequest},
		{"broken json", http.MethodPost, "", `{"name":`, http.StatusBadRequest, handler.CodeInvalidRequest},
		{"missing fields", http.MethodPost, "", `{"name":"Alice"}`, http.StatusBadRequest, handler.CodeInvalidRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, tt.method, url+tt.path, tt.body)
			require.Equal(t, tt.status, status)
			e := decodeReply[responses.Error](t, body)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.status, e.Status)
			assert.NotEmpty(t, e.Message)
		})
	}

	status, body := do(t, http.MethodGet, url, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"reply":[]}`, string(body), "rejected requests must not write")
}

func TestHTTP_UpdateRepliesWithWrittenRecord(t *testing.T) {
	store := newTestStore(t, nil)
	for i := 0; i < 20; i++ {
		_, err := store.Create(context.Background(), registry.Record{Name: fmt.Sprintf("client-%d", i), Email: "e", Phone: "p", City: "c"})
		require.NoError(t, err)
	}
	url := newTestServer(t, store).URL + "/clients/0"

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			status, _, err := send(http.MethodDelete, url, "")
			if err != nil {
				return err
			}
			if status != http.StatusNoContent {
				return fmt.Errorf("delete: status %d", status)
			}
			return nil
		})
		g.Go(func() error {
			status, body, err := send(http.MethodPut, url, `{"name":"updated","email":"e","phone":"p","city":"c"}`)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("update: status %d", status)
			}
			var reply struct {
				Reply registry.Record `json:"reply"`
			}
			if err := json.Unmarshal(body, &reply); err != nil {
				return err
			}
			if reply.Reply.Name != "updated" {
				return fmt.Errorf("update replied with %q", reply.Reply.Name)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestHTTP_StorageUnavailable(t *testing.T) {
	server := newTestServer(t, newTestStore(t, brokenStorage{}))

	status, body := do(t, http.MethodGet, server.URL+"/clients", "")
	require.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, handler.CodeUnavailable, decodeReply[responses.Error](t, body).Code)
}

func TestHTTP_Listener(t *testing.T) {
	ln, err := nettest.NewLocalListener("tcp")
	require.NoError(t, err)

	srv := &http.Server{Handler: handler.NewHTTP(zaptest.NewLogger(t), newTestStore(t, nil))} //nolint:gosec
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Close() })

	url := "http://" + ln.Addr().String() + "/clients"
	status, _ := do(t, http.MethodPost, url, alice)
	require.Equal(t, http.StatusCreated, status)

	status, body := do(t, http.MethodGet, url, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeReply[registry.Collection](t, body), 1)
}
