package registry

import (
	"bytes"
	"context"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/foomo/clientregistry/pkg/metrics"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	// Store owns the persisted client collection. Every operation is a single
	// read-modify-write of the whole collection; operations on one Store never
	// interleave.
	Store struct {
		l           *zap.Logger
		history     *History
		onMalformed func(key string, err error)
		mu          sync.Mutex
	}
	Option func(*Store)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, history *History, opts ...Option) *Store {
	inst := &Store{
		l:       l.Named("store"),
		history: history,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithOnMalformed registers a hook called whenever a stored collection can
// not be parsed and is treated as empty.
func WithOnMalformed(fn func(key string, err error)) Option {
	return func(o *Store) {
		o.onMalformed = fn
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Getter
// ------------------------------------------------------------------------------------------------

func (s *Store) History() *History {
	return s.history
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// ReadAll returns the stored collection. An absent key yields an empty
// collection. So does an unparseable value: that is the malformed state
// recovery, reported through the OnMalformed hook, a log line and a metric
// but never as an error.
func (s *Store) ReadAll(ctx context.Context) (Collection, error) {
	var c Collection
	err := s.do("readAll", func() (err error) {
		c, err = s.read(ctx)
		return err
	})
	return c, err
}

// Get returns the record at index.
func (s *Store) Get(ctx context.Context, index int) (Record, error) {
	var r Record
	err := s.do("get", func() error {
		c, err := s.read(ctx)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(c) {
			return indexError("get", index, len(c))
		}
		r = c[index]
		return nil
	})
	return r, err
}

// Find returns the current index and record carrying id.
func (s *Store) Find(ctx context.Context, id string) (int, Record, error) {
	var (
		index = -1
		r     Record
	)
	err := s.do("find", func() error {
		c, err := s.read(ctx)
		if err != nil {
			return err
		}
		if index = c.IndexOf(id); index < 0 {
			return newError(ErrNotFound, "find", errors.Errorf("id %q", id))
		}
		r = c[index]
		return nil
	})
	return index, r, err
}

// Len returns the number of stored records.
func (s *Store) Len(ctx context.Context) (int, error) {
	c, err := s.ReadAll(ctx)
	return len(c), err
}

// Create appends record with a freshly generated id and returns it as stored.
// Existing indices are unaffected; the new record sits at the previous length.
func (s *Store) Create(ctx context.Context, record Record) (Record, error) {
	record.ID = uuid.NewString()
	err := s.mutate(ctx, "create", func(c Collection) (Collection, error) {
		return append(c, record), nil
	})
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

// Update replaces the record at index and returns it as stored. The replaced
// record's id is kept.
func (s *Store) Update(ctx context.Context, index int, record Record) (Record, error) {
	err := s.mutate(ctx, "update", func(c Collection) (Collection, error) {
		if index < 0 || index >= len(c) {
			return nil, indexError("update", index, len(c))
		}
		record.ID = c[index].ID
		c[index] = record
		return c, nil
	})
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

// Delete removes the record at index; every later record moves down by one.
func (s *Store) Delete(ctx context.Context, index int) error {
	return s.mutate(ctx, "delete", func(c Collection) (Collection, error) {
		if index < 0 || index >= len(c) {
			return nil, indexError("delete", index, len(c))
		}
		return slices.Delete(c, index, index+1), nil
	})
}

// UpdateByID replaces the record carrying id wherever it currently is and
// returns it as stored.
func (s *Store) UpdateByID(ctx context.Context, id string, record Record) (Record, error) {
	err := s.mutate(ctx, "updateByID", func(c Collection) (Collection, error) {
		index := c.IndexOf(id)
		if index < 0 {
			return nil, newError(ErrNotFound, "updateByID", errors.Errorf("id %q", id))
		}
		record.ID = id
		c[index] = record
		return c, nil
	})
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

// DeleteByID removes the record carrying id.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	return s.mutate(ctx, "deleteByID", func(c Collection) (Collection, error) {
		index := c.IndexOf(id)
		if index < 0 {
			return nil, newError(ErrNotFound, "deleteByID", errors.Errorf("id %q", id))
		}
		return slices.Delete(c, index, index+1), nil
	})
}

// Close releases the underlying storage.
func (s *Store) Close() error {
	return s.history.Close()
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// do runs fn under the store lock and records metrics for op.
func (s *Store) do(op string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := fn()
	status := metrics.Status(err)
	metrics.StoreOperationCounter.WithLabelValues(op, status).Inc()
	metrics.StoreOperationDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	if err != nil {
		s.l.Debug("operation failed", zap.String("operation", op), zap.Error(err))
	}
	return err
}

func (s *Store) mutate(ctx context.Context, op string, fn func(Collection) (Collection, error)) error {
	return s.do(op, func() error {
		c, err := s.read(ctx)
		if err != nil {
			return err
		}
		next, err := fn(c)
		if err != nil {
			return err
		}
		return s.write(ctx, op, next)
	})
}

func (s *Store) read(ctx context.Context) (Collection, error) {
	data, err := s.history.Current(ctx)
	if errors.Is(err, os.ErrNotExist) {
		return Collection{}, nil
	} else if err != nil {
		return nil, newError(ErrStorageUnavailable, "read", err)
	}

	c, err := decode(data)
	if err != nil {
		s.recoverMalformed(data, err)
		return Collection{}, nil
	}
	metrics.ClientsGauge.WithLabelValues(s.history.Key()).Set(float64(len(c)))
	return c, nil
}

func (s *Store) write(ctx context.Context, op string, c Collection) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to encode collection")
	}
	if err := s.history.Add(ctx, data); err != nil {
		return newError(ErrStorageUnavailable, op, err)
	}
	metrics.ClientsGauge.WithLabelValues(s.history.Key()).Set(float64(len(c)))
	s.l.Debug("persisted collection", zap.String("operation", op), zap.Int("clients", len(c)))
	return nil
}

func (s *Store) recoverMalformed(data []byte, cause error) {
	key := s.history.Key()
	err := newError(ErrMalformedState, "read", cause)

	fields := []zap.Field{zap.String("key", key), zap.Int("length", len(data)), zap.Error(err)}
	if len(data) > 20 {
		fields = append(fields,
			zap.String("start", string(data[:10])),
			zap.String("end", string(data[len(data)-10:])),
		)
	}
	s.l.Warn("stored collection is malformed, treating it as empty", fields...)
	metrics.MalformedStateCounter.WithLabelValues(key).Inc()

	if s.onMalformed != nil {
		s.onMalformed(key, err)
	}
}

// decode parses a stored collection; a JSON null counts as empty.
func decode(data []byte) (Collection, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty value")
	}
	if trimmed[0] != '[' && !bytes.Equal(trimmed, []byte("null")) {
		return nil, errors.Errorf("expected a JSON array, got %q", trimmed[0])
	}
	var c Collection
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return nil, err
	}
	if c == nil {
		c = Collection{}
	}
	return c, nil
}
