package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/foomo/clientregistry/pkg/metrics"
	"github.com/foomo/clientregistry/pkg/storage"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// DefaultKey is the key the collection is stored under
	DefaultKey = "db_client"

	backupSuffix     = ".json"
	backupTimeFormat = "20060102T150405.000000000Z"
)

type (
	// History persists the current collection under its key and keeps the
	// newest backups next to it as <key>-<timestamp>.json
	History struct {
		l          *zap.Logger
		storage    storage.Storage
		key        string
		limit      int
		lastBackup time.Time
		mu         sync.RWMutex
	}
	HistoryOption func(*History)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// HistoryWithLimit sets the number of backups to keep, 0 disables backups.
func HistoryWithLimit(v int) HistoryOption {
	return func(o *History) {
		o.limit = v
	}
}

func HistoryWithKey(v string) HistoryOption {
	return func(o *History) {
		o.key = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewHistory(l *zap.Logger, s storage.Storage, opts ...HistoryOption) (*History, error) {
	inst := &History{
		l:       l.Named("history"),
		storage: s,
		key:     DefaultKey,
		limit:   2,
	}

	for _, opt := range opts {
		opt(inst)
	}

	if inst.storage == nil {
		return nil, errors.New("history requires a storage")
	}
	if err := storage.ValidateKey(inst.key); err != nil {
		return nil, err
	}
	if inst.limit < 0 {
		return nil, fmt.Errorf("history limit must not be negative: %d", inst.limit)
	}

	return inst, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Getter
// ------------------------------------------------------------------------------------------------

func (h *History) Key() string {
	return h.key
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Add replaces the current value and writes a backup of it. Only a failure
// to write the current value is returned; backup failures are logged.
func (h *History) Add(ctx context.Context, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.storage.Write(ctx, h.key, data); err != nil {
		return errors.Wrap(err, "failed to write current collection")
	}

	if h.limit == 0 {
		return nil
	}

	backupKey := h.nextBackupKey()
	h.l.Debug("writing backup", zap.String("backup", backupKey), zap.String("current", h.key))
	if err := h.storage.Write(ctx, backupKey, data); err != nil {
		h.l.Error("Could not persist collection backup", zap.String("backup", backupKey), zap.Error(err))
		metrics.HistoryPersistFailedCounter.WithLabelValues().Inc()
		return nil
	}

	if err := h.cleanup(ctx); err != nil {
		h.l.Warn("failed to clean up history", zap.Error(err))
	}
	return nil
}

// Current returns the current value, os.ErrNotExist if nothing was written yet.
func (h *History) Current(ctx context.Context) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.storage.Read(ctx, h.key)
}

// Backups lists backup keys, newest first.
func (h *History) Backups(ctx context.Context) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.backups(ctx)
}

// Restore copies a backup over the current value.
func (h *History) Restore(ctx context.Context, backupKey string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.isBackup(backupKey) {
		return errors.Errorf("%q is not a backup of %q", backupKey, h.key)
	}
	data, err := h.storage.Read(ctx, backupKey)
	if err != nil {
		return errors.Wrapf(err, "failed to read backup %q", backupKey)
	}
	if err := h.storage.Write(ctx, h.key, data); err != nil {
		return errors.Wrap(err, "failed to write current collection")
	}
	h.l.Info("restored backup", zap.String("backup", backupKey))
	return nil
}

// Close releases resources held by the history storage.
func (h *History) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.storage.Close()
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// nextBackupKey never hands out the same timestamp twice so that backups
// taken within one clock tick do not overwrite each other.
func (h *History) nextBackupKey() string {
	now := time.Now().UTC()
	if !now.After(h.lastBackup) {
		now = h.lastBackup.Add(time.Nanosecond)
	}
	h.lastBackup = now
	return h.backupPrefix() + now.Format(backupTimeFormat) + backupSuffix
}

func (h *History) backupPrefix() string {
	return h.key + "-"
}

// isBackup only accepts <key>-<timestamp>.json so that keys sharing the
// prefix, e.g. db and db-archive, keep their backups apart.
func (h *History) isBackup(key string) bool {
	stamp, ok := strings.CutPrefix(key, h.backupPrefix())
	if !ok {
		return false
	}
	stamp, ok = strings.CutSuffix(stamp, backupSuffix)
	if !ok {
		return false
	}
	_, err := time.Parse(backupTimeFormat, stamp)
	return err == nil
}

func (h *History) backups(ctx context.Context) ([]string, error) {
	keys, err := h.storage.List(ctx, h.backupPrefix())
	if err != nil {
		return nil, err
	}
	var files []string
	for _, key := range keys {
		if h.isBackup(key) {
			files = append(files, key)
		}
	}
	return files, nil
}

func (h *History) cleanup(ctx context.Context) error {
	files, err := h.backups(ctx)
	if err != nil {
		return errors.Wrap(err, "could not generate backup cleanup list")
	}
	if len(files) <= h.limit {
		return nil
	}

	var errs error
	for _, f := range files[h.limit:] {
		h.l.Debug("removing outdated backup", zap.String("file", f))
		if err := h.storage.Delete(ctx, f); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "could not remove backup %s", f))
		}
	}
	return errs
}
