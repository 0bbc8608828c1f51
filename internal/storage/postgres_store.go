package storage

import (
	"context"
	"database/sql"
	"fmt"
	"nfcattend/internal/models"
	"nfcattend/internal/providers"
	"nfcattend/internal/structures"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const insertBatchSize = 500

// dayRow keeps a date known even when nobody attended it, since every
// recorded date counts towards a profile's totalDays.
type dayRow struct {
	Date      string    `gorm:"primaryKey;type:varchar(10)"`
	CreatedAt time.Time `gorm:"type:timestamptz"`
}

func (dayRow) TableName() string {
	return "attendance_days"
}

type recordRow struct {
	Date        string     `gorm:"primaryKey;type:varchar(10)"`
	UID         string     `gorm:"primaryKey;type:varchar(64);index:idx_attendance_records_uid"`
	SignInTime  *time.Time `gorm:"type:timestamptz"`
	SignOutTime *time.Time `gorm:"type:timestamptz"`
	SignInRaw   string     `gorm:"type:text;not null;default:''"`
	SignOutRaw  string     `gorm:"type:text;not null;default:''"`
	SignedIn    bool       `gorm:"not null;default:false"`
	Hours       float64    `gorm:"not null;default:0"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz"`
}

func (recordRow) TableName() string {
	return "attendance_records"
}

type nameRow struct {
	UID       string    `gorm:"primaryKey;type:varchar(64)"`
	Name      string    `gorm:"type:varchar(255);not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz"`
}

func (nameRow) TableName() string {
	return "card_names"
}

// PostgresStore maps the document onto three tables: known dates, one row
// per (date, uid) record and the card name registry.
type PostgresStore struct {
	db     *gorm.DB
	loc    *time.Location
	logger providers.Logger
}

type gormLogWriter struct {
	logger providers.Logger
}

func (w gormLogWriter) Printf(format string, args ...interface{}) {
	w.logger.Debugf(providers.TypeStore, format, args...)
}

func NewPostgresStore(conf *structures.Config, logger providers.Logger) (*PostgresStore, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.New(gormLogWriter{logger: logger}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		DisableForeignKeyConstraintWhenMigrating: true,
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
	}

	db, err := gorm.Open(postgres.Open(conf.Storage.Postgres.DSN), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB from gorm: %w", err)
	}
	configureConnectionPool(sqlDB, conf.Storage.Postgres)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.AutoMigrate(&dayRow{}, &recordRow{}, &nameRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	logger.Infof(providers.TypeStore, "Postgres store ready")

	return &PostgresStore{db: db, loc: conf.Attendance.Location(), logger: logger}, nil
}

func configureConnectionPool(sqlDB *sql.DB, conf structures.PostgresConfig) {
	if conf.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(conf.MaxIdle)
	}
	if conf.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(conf.MaxOpen)
	}
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	sqlDB.SetConnMaxLifetime(2 * time.Hour)
}

func (ps *PostgresStore) Kind() string {
	return structures.StorePostgres
}

func (ps *PostgresStore) Load(ctx context.Context) (*models.Document, error) {
	var days []dayRow
	var records []recordRow
	var names []nameRow

	db := ps.db.WithContext(ctx)
	if err := db.Find(&days).Error; err != nil {
		return nil, fmt.Errorf("loading dates: %w", err)
	}
	if err := db.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	if err := db.Find(&names).Error; err != nil {
		return nil, fmt.Errorf("loading card names: %w", err)
	}
	return buildDocument(days, records, names, ps.loc), nil
}

func (ps *PostgresStore) Import(ctx context.Context, doc *models.Document) error {
	days, records, names := splitDocument(doc)
	return ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertDays(tx, days); err != nil {
			return err
		}
		if err := upsertRecords(tx, records); err != nil {
			return err
		}
		return upsertNames(tx, names)
	})
}

func (ps *PostgresStore) PutRecord(ctx context.Context, date, uid string, rec *models.EventRecord) error {
	return ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertDays(tx, []dayRow{{Date: date}}); err != nil {
			return err
		}
		return upsertRecords(tx, []recordRow{toRecordRow(date, uid, rec)})
	})
}

func (ps *PostgresStore) PutName(ctx context.Context, uid, name string) error {
	return upsertNames(ps.db.WithContext(ctx), []nameRow{{UID: uid, Name: name}})
}

func (ps *PostgresStore) UpdatedAt(ctx context.Context) (time.Time, error) {
	var rec, name sql.NullTime
	db := ps.db.WithContext(ctx)
	if err := db.Model(&recordRow{}).Select("MAX(updated_at)").Scan(&rec).Error; err != nil {
		return time.Time{}, err
	}
	if err := db.Model(&nameRow{}).Select("MAX(updated_at)").Scan(&name).Error; err != nil {
		return time.Time{}, err
	}
	if name.Valid && (!rec.Valid || name.Time.After(rec.Time)) {
		return name.Time, nil
	}
	return rec.Time, nil
}

func (ps *PostgresStore) Close() error {
	sqlDB, err := ps.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func upsertDays(tx *gorm.DB, rows []dayRow) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, insertBatchSize).Error
}

func upsertRecords(tx *gorm.DB, rows []recordRow) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"sign_in_time", "sign_out_time", "sign_in_raw", "sign_out_raw", "signed_in", "hours", "updated_at"}),
	}).CreateInBatches(rows, insertBatchSize).Error
}

func upsertNames(tx *gorm.DB, rows []nameRow) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).CreateInBatches(rows, insertBatchSize).Error
}

func toRecordRow(date, uid string, rec *models.EventRecord) recordRow {
	row := recordRow{Date: date, UID: uid}
	if rec == nil {
		return row
	}
	// values no layout could read are kept as text beside the timestamptz column
	if rec.SignInTime.Valid() {
		t := rec.SignInTime.Time
		row.SignInTime = &t
	}
	row.SignInRaw = rec.SignInTime.Raw()
	if rec.SignOutTime.Valid() {
		t := rec.SignOutTime.Time
		row.SignOutTime = &t
	}
	row.SignOutRaw = rec.SignOutTime.Raw()
	row.SignedIn = rec.SignedIn
	row.Hours = rec.Hours
	return row
}

func (r recordRow) toRecord(loc *time.Location) *models.EventRecord {
	rec := &models.EventRecord{SignedIn: r.SignedIn, Hours: r.Hours}
	if r.SignInTime != nil {
		rec.SignInTime = models.NewTimestamp(r.SignInTime.In(loc))
	} else if r.SignInRaw != "" {
		rec.SignInTime = models.UnparsedTimestamp(r.SignInRaw)
	}
	if r.SignOutTime != nil {
		rec.SignOutTime = models.NewTimestamp(r.SignOutTime.In(loc))
	} else if r.SignOutRaw != "" {
		rec.SignOutTime = models.UnparsedTimestamp(r.SignOutRaw)
	}
	return rec
}

func splitDocument(doc *models.Document) ([]dayRow, []recordRow, []nameRow) {
	if doc == nil {
		return nil, nil, nil
	}
	days := make([]dayRow, 0, len(doc.Attendance))
	var records []recordRow
	for _, date := range doc.Attendance.Dates() {
		days = append(days, dayRow{Date: date})
		for uid, rec := range doc.Attendance[date] {
			if rec == nil {
				continue
			}
			records = append(records, toRecordRow(date, uid, rec))
		}
	}
	names := make([]nameRow, 0, len(doc.CardNames))
	for uid, name := range doc.CardNames {
		names = append(names, nameRow{UID: uid, Name: name})
	}
	return days, records, names
}

func buildDocument(days []dayRow, records []recordRow, names []nameRow, loc *time.Location) *models.Document {
	doc := models.NewDocument()
	for _, d := range days {
		if _, ok := doc.Attendance[d.Date]; !ok {
			doc.Attendance[d.Date] = make(models.DayMap)
		}
	}
	for _, r := range records {
		doc.PutRecord(r.Date, r.UID, r.toRecord(loc))
	}
	for _, n := range names {
		doc.CardNames[n.UID] = n.Name
	}
	return doc
}
