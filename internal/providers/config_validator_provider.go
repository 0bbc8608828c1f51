package providers

import (
	"errors"
	"fmt"
	"nfcattend/internal/structures"
	"time"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return errors.New(v.Errors.One())
	}
	if err := cv.validateStorage(); err != nil {
		return err
	}
	if cv.conf.Attendance.Timezone != "" {
		if _, err := time.LoadLocation(cv.conf.Attendance.Timezone); err != nil {
			return fmt.Errorf("attendance.timezone: %w", err)
		}
	}
	if cv.conf.Snapshot.Enabled {
		if cv.conf.Snapshot.FilePath == "" {
			return errors.New("snapshot.filePath is required when snapshots are enabled")
		}
		if cv.conf.Snapshot.Interval <= 0 {
			return errors.New("snapshot.interval must be positive")
		}
	}
	return nil
}

func (cv *CnfValidator) validateStorage() error {
	s := cv.conf.Storage
	switch s.Kind {
	case structures.StoreFile:
		if s.File.Dir == "" {
			return errors.New("storage.file.dir is required")
		}
	case structures.StoreGist:
		if s.Gist.Token == "" {
			return errors.New("storage.gist.token is required")
		}
		if s.Gist.APIURL == "" {
			return errors.New("storage.gist.apiUrl is required")
		}
	case structures.StorePostgres:
		if s.Postgres.DSN == "" {
			return errors.New("storage.postgres.dsn is required")
		}
	case structures.StoreRedis:
		if s.Redis.Addr == "" {
			return errors.New("storage.redis.addr is required")
		}
	}
	return nil
}
