package structures

import "time"

const (
	StoreFile     = "file"
	StoreGist     = "gist"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type FileStoreConfig struct {
	Dir      string `yaml:"dir"`
	Compress bool   `yaml:"compress"`
	Mode     uint32 `yaml:"mode"`
}

type GistConfig struct {
	Token       string        `yaml:"token"`
	ID          string        `yaml:"id"`
	Description string        `yaml:"description"`
	APIURL      string        `yaml:"apiUrl"`
	Timeout     time.Duration `yaml:"timeout"`
}

type PostgresConfig struct {
	DSN     string `yaml:"dsn"`
	MaxIdle int    `yaml:"maxIdle"`
	MaxOpen int    `yaml:"maxOpen"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// StorageConfig selects exactly one persistence backend by Kind; the
// sections of the other backends are ignored.
type StorageConfig struct {
	Kind     string          `yaml:"kind" validate:"required|in:file,gist,postgres,redis"`
	File     FileStoreConfig `yaml:"file"`
	Gist     GistConfig      `yaml:"gist"`
	Postgres PostgresConfig  `yaml:"postgres"`
	Redis    RedisConfig     `yaml:"redis"`
}

type SnapshotConfig struct {
	Enabled  bool          `yaml:"enabled"`
	FilePath string        `yaml:"filePath"`
	Interval time.Duration `yaml:"interval"`
}

type AttendanceConfig struct {
	Timezone   string `yaml:"timezone"`
	AllowWrite bool   `yaml:"allowWrite"`
	QueueSize  int    `yaml:"queueSize"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName    string
	Debug      bool
	Path       string
	WebServer  Server           `yaml:"webServer"`
	Storage    StorageConfig    `yaml:"storage"`
	Snapshot   SnapshotConfig   `yaml:"snapshot"`
	Attendance AttendanceConfig `yaml:"attendance"`
	Logger     LoggerConfig     `yaml:"logger"`
	Cache      CacheConfig      `yaml:"cache"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// Location resolves the configured timezone, falling back to the host zone.
func (a AttendanceConfig) Location() *time.Location {
	if a.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
