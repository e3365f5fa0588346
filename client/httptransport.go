package client

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/foomo/clientregistry/responses"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

type httpTransport struct {
	client   *http.Client
	endpoint string
}

// NewHTTPTransport will create a new http transport for the given server and client.
// Caution: the provided server url is not validated!
func NewHTTPTransport(server string, client *http.Client) transport {
	return &httpTransport{
		endpoint: server,
		client:   client,
	}
}

func (ht *httpTransport) shutdown() {
	ht.client.CloseIdleConnections()
}

func (ht *httpTransport) call(ctx context.Context, method, path string, request, response interface{}) error {
	var body io.Reader
	if request != nil {
		requestBytes, err := json.Marshal(request)
		if err != nil {
			return errors.Wrap(err, "could not encode request")
		}
		body = bytes.NewReader(requestBytes)
	}
	req, err := http.NewRequestWithContext(ctx, method, ht.endpoint+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	httpResponse, err := ht.client.Do(req)
	if err != nil {
		return err
	}
	defer httpResponse.Body.Close()

	responseBytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return errors.Wrap(err, "could not read response")
	}

	if httpResponse.StatusCode == http.StatusNoContent {
		return nil
	}
	var reply struct {
		Reply jsoniter.RawMessage `json:"reply"`
	}
	if err := json.Unmarshal(responseBytes, &reply); err != nil {
		return errors.Wrapf(err, "could not decode reply with status %d", httpResponse.StatusCode)
	}

	if httpResponse.StatusCode >= http.StatusBadRequest {
		var e responses.Error
		if err := json.Unmarshal(reply.Reply, &e); err != nil || e.Code == 0 {
			return errors.Errorf("unexpected reply with status %d", httpResponse.StatusCode)
		}
		return newError(e)
	}
	if response == nil {
		return nil
	}
	return json.Unmarshal(reply.Reply, response)
}
