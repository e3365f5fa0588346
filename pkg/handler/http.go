package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/foomo/clientregistry/pkg/metrics"
	"github.com/foomo/clientregistry/pkg/registry"
	"github.com/foomo/clientregistry/responses"
	httputils "github.com/foomo/keel/utils/net/http"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	HTTP struct {
		l     *zap.Logger
		path  string
		store *registry.Store
		mux   *http.ServeMux
	}
	HTTPOption func(*HTTP)
	routeFunc  func(r *http.Request) (status int, reply interface{}, err error)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP exposes the store as a JSON api below the base path
func NewHTTP(l *zap.Logger, store *registry.Store, opts ...HTTPOption) http.Handler {
	inst := &HTTP{
		l:     l.Named("http"),
		path:  "/clients",
		store: store,
	}

	for _, opt := range opts {
		opt(inst)
	}

	inst.path = "/" + strings.Trim(inst.path, "/")
	inst.mux = http.NewServeMux()
	inst.handle("GET "+inst.path, RouteList, inst.list)
	inst.handle("POST "+inst.path, RouteCreate, inst.create)
	inst.handle("GET "+inst.path+"/{index}", RouteGet, inst.get)
	inst.handle("PUT "+inst.path+"/{index}", RouteUpdate, inst.update)
	inst.handle("DELETE "+inst.path+"/{index}", RouteDelete, inst.delete)
	inst.handle("GET "+inst.path+"/id/{id}", RouteFind, inst.find)
	inst.handle("PUT "+inst.path+"/id/{id}", RouteUpdateByID, inst.updateByID)
	inst.handle("DELETE "+inst.path+"/id/{id}", RouteDeleteByID, inst.deleteByID)

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithBasePath(v string) HTTPOption {
	return func(o *HTTP) {
		o.path = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) handle(pattern string, route Route, fn routeFunc) {
	h.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		status, reply, err := fn(r)
		if err != nil {
			status, reply = h.replyError(route, err)
		}

		metrics.ServiceRequestCounter.WithLabelValues(string(route), metrics.Status(err)).Inc()
		metrics.ServiceRequestDuration.WithLabelValues(string(route), metrics.Status(err)).Observe(time.Since(start).Seconds())

		h.writeReply(w, r, status, reply)
	})
}

func (h *HTTP) list(r *http.Request) (int, interface{}, error) {
	c, err := h.store.ReadAll(r.Context())
	return http.StatusOK, c, err
}

func (h *HTTP) create(r *http.Request) (int, interface{}, error) {
	record, err := h.decodeRecord(r)
	if err != nil {
		return 0, nil, err
	}
	created, err := h.store.Create(r.Context(), record)
	return http.StatusCreated, created, err
}

func (h *HTTP) get(r *http.Request) (int, interface{}, error) {
	index, err := pathIndex(r)
	if err != nil {
		return 0, nil, err
	}
	record, err := h.store.Get(r.Context(), index)
	return http.StatusOK, record, err
}

func (h *HTTP) update(r *http.Request) (int, interface{}, error) {
	index, err := pathIndex(r)
	if err != nil {
		return 0, nil, err
	}
	record, err := h.decodeRecord(r)
	if err != nil {
		return 0, nil, err
	}
	updated, err := h.store.Update(r.Context(), index, record)
	return http.StatusOK, updated, err
}

func (h *HTTP) delete(r *http.Request) (int, interface{}, error) {
	index, err := pathIndex(r)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusNoContent, nil, h.store.Delete(r.Context(), index)
}

func (h *HTTP) find(r *http.Request) (int, interface{}, error) {
	_, record, err := h.store.Find(r.Context(), r.PathValue("id"))
	return http.StatusOK, record, err
}

func (h *HTTP) updateByID(r *http.Request) (int, interface{}, error) {
	record, err := h.decodeRecord(r)
	if err != nil {
		return 0, nil, err
	}
	updated, err := h.store.UpdateByID(r.Context(), r.PathValue("id"), record)
	return http.StatusOK, updated, err
}

func (h *HTTP) deleteByID(r *http.Request) (int, interface{}, error) {
	return http.StatusNoContent, nil, h.store.DeleteByID(r.Context(), r.PathValue("id"))
}

// errInvalidRequest marks malformed input that never reached the store
var errInvalidRequest = errors.New("invalid request")

func pathIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, errors.Wrapf(errInvalidRequest, "index %q is not a number", r.PathValue("index"))
	}
	return index, nil
}

func (h *HTTP) decodeRecord(r *http.Request) (registry.Record, error) {
	var record registry.Record
	if r.Body == nil {
		return record, errors.Wrap(errInvalidRequest, "empty request body")
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return record, errors.Wrap(errInvalidRequest, err.Error())
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, errors.Wrap(errInvalidRequest, "could not read incoming json "+err.Error())
	}
	if err := record.Validate(); err != nil {
		return record, err
	}
	return record, nil
}

func (h *HTTP) replyError(route Route, err error) (int, *responses.Error) {
	var (
		status int
		code   int
	)
	switch {
	case errors.Is(err, errInvalidRequest):
		status, code = http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, registry.ErrInvalidRecord):
		status, code = http.StatusBadRequest, CodeInvalidRecord
	case errors.Is(err, registry.ErrIndexOutOfRange):
		status, code = http.StatusNotFound, CodeIndexOutOfRange
	case errors.Is(err, registry.ErrNotFound):
		status, code = http.StatusNotFound, CodeNotFound
	case errors.Is(err, registry.ErrStorageUnavailable):
		status, code = http.StatusServiceUnavailable, CodeUnavailable
	default:
		status, code = http.StatusInternalServerError, CodeInternal
	}
	if status >= http.StatusInternalServerError {
		h.l.Error("request failed", zap.String("route", string(route)), zap.Error(err))
	} else {
		h.l.Debug("request rejected", zap.String("route", string(route)), zap.Error(err))
	}
	return status, responses.NewError(status, code, err.Error())
}

func (h *HTTP) writeReply(w http.ResponseWriter, r *http.Request, status int, reply interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	data, err := json.Marshal(responses.Reply{Reply: reply})
	if err != nil {
		httputils.ServerError(h.l, w, r, http.StatusInternalServerError, errors.Wrap(err, "could not encode reply"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
