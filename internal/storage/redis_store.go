package storage

import (
	"context"
	"errors"
	"fmt"
	"nfcattend/internal/models"
	"nfcattend/internal/providers"
	"nfcattend/internal/structures"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisStore layout under the configured prefix:
//
//	<prefix>:dates          set of known dates
//	<prefix>:day:<date>     hash uid -> JSON record
//	<prefix>:names          hash uid -> display name
//	<prefix>:updated_at     RFC 3339 time of the last write
type RedisStore struct {
	client *redis.Client
	prefix string
	loc    *time.Location
	logger providers.Logger
}

func NewRedisStore(conf *structures.Config, logger providers.Logger) (*RedisStore, error) {
	rc := conf.Storage.Redis
	client := redis.NewClient(&redis.Options{
		Addr:         rc.Addr,
		Password:     rc.Password,
		DB:           rc.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", rc.Addr, err)
	}

	return newRedisStore(client, rc.Prefix, conf.Attendance.Location(), logger), nil
}

func newRedisStore(client *redis.Client, prefix string, loc *time.Location, logger providers.Logger) *RedisStore {
	if prefix == "" {
		prefix = "nfcattend"
	}
	return &RedisStore{client: client, prefix: prefix, loc: loc, logger: logger}
}

func (rs *RedisStore) key(parts ...string) string {
	var sb strings.Builder
	sb.WriteString(rs.prefix)
	for _, part := range parts {
		if part != "" {
			sb.WriteString(":")
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func (rs *RedisStore) Kind() string {
	return structures.StoreRedis
}

func (rs *RedisStore) Load(ctx context.Context) (*models.Document, error) {
	dates, err := rs.client.SMembers(ctx, rs.key("dates")).Result()
	if err != nil {
		return nil, fmt.Errorf("loading dates: %w", err)
	}

	pipe := rs.client.Pipeline()
	days := make(map[string]*redis.MapStringStringCmd, len(dates))
	for _, date := range dates {
		days[date] = pipe.HGetAll(ctx, rs.key("day", date))
	}
	names := pipe.HGetAll(ctx, rs.key("names"))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("loading attendance: %w", err)
	}

	doc := models.NewDocument()
	for date, cmd := range days {
		doc.Attendance[date] = make(models.DayMap)
		for uid, raw := range cmd.Val() {
			rec, err := rs.decodeRecord(raw)
			if err != nil {
				rs.logger.Warnf(providers.TypeStore, "Skipping unreadable record %s/%s: %s", date, uid, err)
				continue
			}
			doc.Attendance[date][uid] = rec
		}
	}
	for uid, name := range names.Val() {
		doc.CardNames[uid] = name
	}
	return doc, nil
}

func (rs *RedisStore) Import(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return nil
	}
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for date, day := range doc.Attendance {
			pipe.SAdd(ctx, rs.key("dates"), date)
			for uid, rec := range day {
				if rec == nil {
					continue
				}
				data, err := json.Marshal(rec)
				if err != nil {
					return err
				}
				pipe.HSet(ctx, rs.key("day", date), uid, data)
			}
		}
		for uid, name := range doc.CardNames {
			pipe.HSet(ctx, rs.key("names"), uid, name)
		}
		rs.touch(ctx, pipe)
		return nil
	})
	return err
}

func (rs *RedisStore) PutRecord(ctx context.Context, date, uid string, rec *models.EventRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, rs.key("dates"), date)
		pipe.HSet(ctx, rs.key("day", date), uid, data)
		rs.touch(ctx, pipe)
		return nil
	})
	return err
}

func (rs *RedisStore) PutName(ctx context.Context, uid, name string) error {
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, rs.key("names"), uid, name)
		rs.touch(ctx, pipe)
		return nil
	})
	return err
}

func (rs *RedisStore) UpdatedAt(ctx context.Context) (time.Time, error) {
	val, err := rs.client.Get(ctx, rs.key("updated_at")).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, val)
}

func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

func (rs *RedisStore) touch(ctx context.Context, pipe redis.Pipeliner) {
	pipe.Set(ctx, rs.key("updated_at"), time.Now().UTC().Format(time.RFC3339Nano), 0)
}

func (rs *RedisStore) decodeRecord(raw string) (*models.EventRecord, error) {
	return models.DecodeRecord([]byte(raw), rs.loc)
}
