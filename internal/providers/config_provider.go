package providers

import (
	"fmt"
	"nfcattend/internal/structures"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var envBindings = map[string]string{
	"webServer.host":         "NFC_HOST",
	"webServer.port":         "NFC_PORT",
	"logger.level":           "NFC_LOG_LEVEL",
	"logger.dir":             "NFC_LOG_DIR",
	"storage.kind":           "NFC_STORAGE_KIND",
	"storage.file.dir":       "NFC_FILE_DIR",
	"storage.gist.token":     "NFC_GIST_TOKEN",
	"storage.gist.id":        "NFC_GIST_ID",
	"storage.postgres.dsn":   "NFC_POSTGRES_DSN",
	"storage.redis.addr":     "NFC_REDIS_ADDR",
	"storage.redis.password": "NFC_REDIS_PASSWORD",
	"attendance.timezone":    "NFC_TIMEZONE",
	"attendance.allowWrite":  "NFC_ALLOW_WRITE",
	"snapshot.enabled":       "NFC_SNAPSHOT_ENABLED",
	"snapshot.filePath":      "NFC_SNAPSHOT_PATH",
	"cache.enabled":          "NFC_CACHE_ENABLED",
	"metrics.enabled":        "NFC_METRICS_ENABLED",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("webServer.host", "0.0.0.0")
	v.SetDefault("webServer.port", 5001)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("logger.dir", ".")
	v.SetDefault("storage.kind", structures.StoreFile)
	v.SetDefault("storage.file.dir", "data")
	v.SetDefault("storage.file.mode", 0644)
	v.SetDefault("storage.gist.apiUrl", "https://api.github.com")
	v.SetDefault("storage.gist.description", "Attendance backup")
	v.SetDefault("storage.gist.timeout", 10*time.Second)
	v.SetDefault("storage.postgres.maxIdle", 5)
	v.SetDefault("storage.postgres.maxOpen", 20)
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.prefix", "nfcattend")
	v.SetDefault("attendance.timezone", "Local")
	v.SetDefault("attendance.queueSize", 64)
	v.SetDefault("snapshot.interval", 5*time.Minute)
	v.SetDefault("cache.size", 8)
	v.SetDefault("cache.ttl", 30*time.Second)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	// a missing .env file is normal outside development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if flags.ConfigPath != "" {
		filename := filepath.Base(flags.ConfigPath)
		v.AddConfigPath(filepath.Dir(flags.ConfigPath))
		v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	if err := cnfValidator.Validate(); err != nil {
		return nil, err
	}

	conf.AppName = "NFCAttendance"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
