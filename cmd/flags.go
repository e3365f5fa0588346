package cmd

import (
	"time"

	"github.com/foomo/clientregistry/pkg/registry"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func logLevelFlag(v *viper.Viper) string {
	return v.GetString("log.level")
}

func addLogLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-level", "info", "log level")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func logFormatFlag(v *viper.Viper) string {
	return v.GetString("log.format")
}

func addLogFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-format", "json", "log format")
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindEnv("log.format", "LOG_FORMAT")
}

func storageURLFlag(v *viper.Viper) string {
	return v.GetString("storage.url")
}

func addStorageURLFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-url", "/var/lib/clientregistry", "Directory or bucket URL (gs://, s3://, azblob://, file://, mem://) to store clients in")
	_ = v.BindPFlag("storage.url", flags.Lookup("storage-url"))
	_ = v.BindEnv("storage.url", "CLIENT_REGISTRY_STORAGE_URL")
}

func storagePrefixFlag(v *viper.Viper) string {
	return v.GetString("storage.prefix")
}

func addStoragePrefixFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-prefix", "", "Key prefix within a bucket (blob storage only)")
	_ = v.BindPFlag("storage.prefix", flags.Lookup("storage-prefix"))
	_ = v.BindEnv("storage.prefix", "CLIENT_REGISTRY_STORAGE_PREFIX")
}

func storageKeyFlag(v *viper.Viper) string {
	return v.GetString("storage.key")
}

func addStorageKeyFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-key", registry.DefaultKey, "Key the client collection is stored under")
	_ = v.BindPFlag("storage.key", flags.Lookup("storage-key"))
	_ = v.BindEnv("storage.key", "CLIENT_REGISTRY_STORAGE_KEY")
}

func historyLimitFlag(v *viper.Viper) int {
	return v.GetInt("history.limit")
}

func addHistoryLimitFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("history-limit", 2, "Number of collection backups to keep, 0 disables backups")
	_ = v.BindPFlag("history.limit", flags.Lookup("history-limit"))
	_ = v.BindEnv("history.limit", "CLIENT_REGISTRY_HISTORY_LIMIT")
}

func addressFlag(v *viper.Viper) string {
	return v.GetString("address")
}

func addAddressFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("address", ":8080", "Address to bind to (host:port)")
	_ = v.BindPFlag("address", flags.Lookup("address"))
	_ = v.BindEnv("address", "CLIENT_REGISTRY_ADDRESS")
}

func basePathFlag(v *viper.Viper) string {
	return v.GetString("base_path")
}

func addBasePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("base-path", "/clients", "Base path to export the api on")
	_ = v.BindPFlag("base_path", flags.Lookup("base-path"))
	_ = v.BindEnv("base_path", "CLIENT_REGISTRY_BASE_PATH")
}

func gracefulPeriodFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("graceful_period")
}

func addGracefulPeriodFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("graceful-period", 5*time.Second, "Graceful shutdown period")
	_ = v.BindPFlag("graceful_period", flags.Lookup("graceful-period"))
	_ = v.BindEnv("graceful_period", "CLIENT_REGISTRY_GRACEFUL_PERIOD")
}

func serviceHealthzEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.healthz.enabled")
}

func addServiceHealthzEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-healthz-enabled", false, "Enable healthz service")
	_ = v.BindPFlag("service.healthz.enabled", flags.Lookup("service-healthz-enabled"))
}

func servicePrometheusEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.prometheus.enabled")
}

func addServicePrometheusEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-prometheus-enabled", false, "Enable prometheus service")
	_ = v.BindPFlag("service.prometheus.enabled", flags.Lookup("service-prometheus-enabled"))
}

func servicePProfEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.pprof.enabled")
}

func addServicePProfEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-pprof-enabled", false, "Enable pprof service")
	_ = v.BindPFlag("service.pprof.enabled", flags.Lookup("service-pprof-enabled"))
}

func otelEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("otel.enabled")
}

func addOtelEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("otel-enabled", false, "Enable otel service")
	_ = v.BindPFlag("otel.enabled", flags.Lookup("otel-enabled"))
	_ = v.BindEnv("otel.enabled", "OTEL_ENABLED")
}

func addRecordFlags(flags *pflag.FlagSet) {
	flags.String("name", "", "Client name")
	flags.String("email", "", "Client email")
	flags.String("phone", "", "Client phone")
	flags.String("city", "", "Client city")
}

func recordFlags(flags *pflag.FlagSet) (registry.Record, error) {
	var (
		r   registry.Record
		err error
	)
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"name", &r.Name},
		{"email", &r.Email},
		{"phone", &r.Phone},
		{"city", &r.City},
	} {
		if *f.value, err = flags.GetString(f.name); err != nil {
			return r, err
		}
	}
	return r, nil
}
