package services

import (
	"context"
	"errors"
	"fmt"
	"nfcattend/internal/attendance"
	"nfcattend/internal/models"
	"nfcattend/internal/providers"
	"nfcattend/internal/storage/interfaces"
	"nfcattend/internal/structures"
	"strings"
	"sync"
	"time"
)

var (
	ErrUIDRequired   = errors.New("UID is required")
	ErrNameRequired  = errors.New("Name cannot be empty")
	ErrInvalidDate   = errors.New("date must be formatted as YYYY-MM-DD")
	ErrWriteDisabled = errors.New("saving attendance is disabled on this server")
	ErrEmptyDocument = errors.New("attendance document is empty")

	// ErrProfileDegraded accompanies the empty profile served while the
	// store cannot be read. The profile is still usable but must not be cached.
	ErrProfileDegraded = errors.New("profile served without stored attendance")
)

const defaultQueueSize = 64

type AttendanceServiceInterface interface {
	Toggle(ctx context.Context, uid, date string) (*models.EventRecord, error)
	RecordSignIn(ctx context.Context, uid string) (string, error)
	ManualSignIn(ctx context.Context, uid, name, date string) (*models.EventRecord, error)
	Tap(ctx context.Context, uid string) (*models.CardUpdate, error)
	CardRemoved() *models.CardUpdate
	PollUpdate() *models.CardUpdate
	ReaderStatus() models.ReaderStatus
	Profile(ctx context.Context, uid string) (*models.Profile, error)
	Day(ctx context.Context, date string) (*models.DaySheet, error)
	Dates(ctx context.Context) ([]string, error)
	Document(ctx context.Context) (*models.Document, time.Time, error)
	SaveDocument(ctx context.Context, doc *models.Document) error
	SetName(ctx context.Context, uid, name string) error
	Name(ctx context.Context, uid string) (string, error)
	Names(ctx context.Context) (models.NameMap, error)
	CloseStale(ctx context.Context) (*models.StaleReport, error)
	VerifyStale(ctx context.Context) (*models.StaleReport, error)
	Today() string
	StoreKind() string
	QueueLen() int
}

// AttendanceService owns every state change of the attendance document.
// Read-modify-write sequences run under mu so two taps of the same card
// cannot both observe the signed-out state.
type AttendanceService struct {
	store      interfaces.StoreInterface
	cache      providers.CacheProviderInterface
	metrics    providers.MetricsProviderInterface
	logger     providers.Logger
	loc        *time.Location
	allowWrite bool
	now        func() time.Time

	mu      sync.Mutex
	queueMu sync.Mutex
	queue   chan *models.CardUpdate

	readerMu sync.RWMutex
	reader   models.ReaderStatus
}

func NewAttendanceService(conf *structures.Config, store interfaces.StoreInterface, cache providers.CacheProviderInterface, metrics providers.MetricsProviderInterface, logger providers.Logger) AttendanceServiceInterface {
	return newAttendanceService(conf, store, cache, metrics, logger)
}

func newAttendanceService(conf *structures.Config, store interfaces.StoreInterface, cache providers.CacheProviderInterface, metrics providers.MetricsProviderInterface, logger providers.Logger) *AttendanceService {
	size := conf.Attendance.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	return &AttendanceService{
		store:      store,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		loc:        conf.Attendance.Location(),
		allowWrite: conf.Attendance.AllowWrite,
		now:        time.Now,
		queue:      make(chan *models.CardUpdate, size),
	}
}

func (s *AttendanceService) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *AttendanceService) Today() string {
	return s.clock().Format(models.DateLayout)
}

func (s *AttendanceService) StoreKind() string {
	return s.store.Kind()
}

func (s *AttendanceService) resolveDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return s.Today(), nil
	}
	if !models.IsValidDate(date) {
		return "", ErrInvalidDate
	}
	return date, nil
}

func (s *AttendanceService) load(ctx context.Context) (*models.Document, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading attendance: %w", err)
	}
	return doc, nil
}

// putRecord persists one record and drops every cached response.
func (s *AttendanceService) putRecord(ctx context.Context, date, uid string, rec *models.EventRecord) error {
	if err := s.store.PutRecord(ctx, date, uid, rec); err != nil {
		return fmt.Errorf("saving attendance: %w", err)
	}
	s.cache.Clear()
	return nil
}

func (s *AttendanceService) Toggle(ctx context.Context, uid, date string) (*models.EventRecord, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, ErrUIDRequired
	}
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	current, _ := doc.Record(date, uid)
	next := attendance.Toggle(current, s.clock())
	if err := s.putRecord(ctx, date, uid, next); err != nil {
		return nil, err
	}

	if next.SignedIn {
		s.metrics.IncEvents("sign_in")
		s.logger.Infof(providers.TypeApp, "%s signed in on %s", uid, date)
	} else {
		s.metrics.IncEvents("sign_out")
		s.logger.Infof(providers.TypeApp, "%s signed out on %s after %.2fh", uid, date, next.Hours)
	}
	return next, nil
}

func (s *AttendanceService) RecordSignIn(ctx context.Context, uid string) (string, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", ErrUIDRequired
	}
	date := s.Today()

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	if err := s.putRecord(ctx, date, uid, attendance.SignIn(s.clock())); err != nil {
		return "", err
	}
	s.metrics.IncEvents("sign_in")
	s.logger.Infof(providers.TypeApp, "%s signed in on %s", uid, date)
	return doc.CardNames[uid], nil
}

// ManualSignIn forces the signed-in state. The optional name is written
// after the record, so a failure there leaves the sign-in in place.
func (s *AttendanceService) ManualSignIn(ctx context.Context, uid, name, date string) (*models.EventRecord, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, ErrUIDRequired
	}
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	rec := attendance.SignIn(s.clock())
	err = s.putRecord(ctx, date, uid, rec)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.metrics.IncEvents("manual_sign_in")
	s.logger.Infof(providers.TypeApp, "%s manually signed in on %s", uid, date)

	if name = strings.TrimSpace(name); name != "" {
		if err := s.SetName(ctx, uid, name); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// Tap handles a card reported by the reader. Named cards toggle today's
// record; unknown cards are only announced so the UI can ask for a name.
func (s *AttendanceService) Tap(ctx context.Context, uid string) (*models.CardUpdate, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, ErrUIDRequired
	}
	now := s.clock()
	s.metrics.IncEvents("tap")

	name, err := s.Name(ctx, uid)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Name lookup for %s failed: %s", uid, err)
	}

	update := &models.CardUpdate{
		Status:    models.CardDetected,
		UID:       uid,
		Name:      name,
		Timestamp: epochSeconds(now),
	}

	var toggleErr error
	if name != "" {
		update.Record, toggleErr = s.Toggle(ctx, uid, "")
	}

	s.setReader(models.ReaderStatus{CardPresent: true, CardUID: uid, CardName: name, LastEvent: models.NewTimestamp(now)})
	s.push(update)
	return update, toggleErr
}

func (s *AttendanceService) CardRemoved() *models.CardUpdate {
	now := s.clock()
	update := &models.CardUpdate{Status: models.CardRemoved, Timestamp: epochSeconds(now)}
	s.setReader(models.ReaderStatus{LastEvent: models.NewTimestamp(now)})
	s.push(update)
	return update
}

// push enqueues update, evicting the oldest entry when the queue is full so
// a UI that stopped polling cannot block the reader.
func (s *AttendanceService) push(update *models.CardUpdate) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	select {
	case s.queue <- update:
	default:
		dropped := <-s.queue
		s.queue <- update
		s.logger.Warnf(providers.TypeApp, "Card update queue full, dropped %s from %.0f", dropped.Status, dropped.Timestamp)
	}
	s.metrics.SetQueueLength(len(s.queue))
}

func (s *AttendanceService) PollUpdate() *models.CardUpdate {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	select {
	case update := <-s.queue:
		s.metrics.SetQueueLength(len(s.queue))
		return update
	default:
		return nil
	}
}

func (s *AttendanceService) QueueLen() int {
	return len(s.queue)
}

func (s *AttendanceService) setReader(status models.ReaderStatus) {
	s.readerMu.Lock()
	defer s.readerMu.Unlock()
	s.reader = status
}

func (s *AttendanceService) ReaderStatus() models.ReaderStatus {
	s.readerMu.RLock()
	defer s.readerMu.RUnlock()
	return s.reader
}

// Profile never fails on storage errors: the person gets an all-zero
// profile and the failure is logged.
func (s *AttendanceService) Profile(ctx context.Context, uid string) (*models.Profile, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, ErrUIDRequired
	}
	doc, err := s.load(ctx)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Profile for %s served empty: %s", uid, err)
		empty := models.NewDocument()
		return attendance.BuildProfile(empty.Attendance, empty.CardNames, uid), fmt.Errorf("%w: %w", ErrProfileDegraded, err)
	}
	return attendance.BuildProfile(doc.Attendance, doc.CardNames, uid), nil
}

func (s *AttendanceService) Day(ctx context.Context, date string) (*models.DaySheet, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return attendance.BuildDaySheet(doc.Attendance, doc.CardNames, date), nil
}

func (s *AttendanceService) Dates(ctx context.Context) ([]string, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Attendance.Dates(), nil
}

func (s *AttendanceService) Document(ctx context.Context) (*models.Document, time.Time, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	updated, err := s.store.UpdatedAt(ctx)
	if err != nil {
		s.logger.Warnf(providers.TypeStore, "Unable to read store update time: %s", err)
	}
	return doc, updated, nil
}

// SaveDocument writes every date, record and name of doc into the store.
// Existing entries absent from doc are kept.
func (s *AttendanceService) SaveDocument(ctx context.Context, doc *models.Document) error {
	if !s.allowWrite {
		return ErrWriteDisabled
	}
	if doc == nil || (len(doc.Attendance) == 0 && len(doc.CardNames) == 0) {
		return ErrEmptyDocument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Import(ctx, doc); err != nil {
		return fmt.Errorf("saving attendance: %w", err)
	}
	s.cache.Clear()
	s.logger.Infof(providers.TypeApp, "Imported %d dates and %d card names", len(doc.Attendance), len(doc.CardNames))
	return nil
}

func (s *AttendanceService) SetName(ctx context.Context, uid, name string) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return ErrUIDRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if err := s.store.PutName(ctx, uid, name); err != nil {
		return fmt.Errorf("saving card name: %w", err)
	}
	s.cache.Clear()
	s.logger.Infof(providers.TypeApp, "Card %s named %q", uid, name)
	return nil
}

func (s *AttendanceService) Name(ctx context.Context, uid string) (string, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", ErrUIDRequired
	}
	names, err := s.Names(ctx)
	if err != nil {
		return "", err
	}
	return names[uid], nil
}

func (s *AttendanceService) Names(ctx context.Context) (models.NameMap, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.CardNames, nil
}

// CloseStale signs out every sign-in left open on a past date. Only the
// changed records are written back.
func (s *AttendanceService) CloseStale(ctx context.Context) (*models.StaleReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	report, changed := attendance.CloseStale(doc, s.Today())
	if len(changed) > 0 {
		patch := models.NewDocument()
		patch.Attendance = changed
		if err := s.store.Import(ctx, patch); err != nil {
			return nil, fmt.Errorf("saving closed sign-ins: %w", err)
		}
		s.cache.Clear()
	}
	s.logger.Infof(providers.TypeApp, "Stale cleanup closed %d sign-ins, skipped %d", report.Closed, report.Skipped)
	return report, nil
}

func (s *AttendanceService) VerifyStale(ctx context.Context) (*models.StaleReport, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return attendance.FindStale(doc.Attendance, s.Today()), nil
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}
