package cmd

import (
	"context"

	"github.com/foomo/clientregistry/pkg/registry"
	"github.com/foomo/clientregistry/pkg/storage"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// createStore opens the configured storage backend and wraps it in a store
func createStore(ctx context.Context, v *viper.Viper, l *zap.Logger) (*registry.Store, error) {
	storageURL := storageURLFlag(v)
	prefix := storagePrefixFlag(v)

	if prefix != "" && !storage.IsBlobURL(storageURL) {
		l.Warn("storage prefix is set but storage url is not a bucket; prefix will be ignored",
			zap.String("storage-url", storageURL),
			zap.String("storage-prefix", prefix),
		)
	}

	l.Info("using storage",
		zap.String("url", storageURL),
		zap.String("prefix", prefix),
		zap.String("provider", storage.Provider(storageURL)),
	)

	s, err := storage.Open(ctx, storageURL, prefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create storage")
	}

	history, err := registry.NewHistory(l.Named("inst.history"), s,
		registry.HistoryWithKey(storageKeyFlag(v)),
		registry.HistoryWithLimit(historyLimitFlag(v)),
	)
	if err != nil {
		_ = s.Close()
		return nil, errors.Wrap(err, "failed to create history")
	}

	return registry.New(l.Named("inst.store"), history,
		registry.WithOnMalformed(func(key string, err error) {
			l.Warn("stored clients are unreadable, starting from an empty collection", zap.String("key", key), zap.Error(err))
		}),
	), nil
}
