package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"nfcattend/internal/models"
	"nfcattend/internal/providers"
	"nfcattend/internal/services"
	"nfcattend/internal/structures"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	maxRequestBodySize  = 1 << 20 // 1 MB
	maxDocumentBodySize = 16 << 20
)

type ApiController struct {
	logger  providers.Logger
	service services.AttendanceServiceInterface
	cache   providers.CacheProviderInterface
	loc     *time.Location
}

func NewApiController(conf *structures.Config, logger providers.Logger, service services.AttendanceServiceInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		service: service,
		cache:   cache,
		loc:     conf.Attendance.Location(),
	}
}

type cardRequest struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
	Date string `json:"date"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type sourceInfo struct {
	Kind      string     `json:"kind"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

type fetchResponse struct {
	Success    bool                 `json:"success"`
	Version    int                  `json:"version"`
	Attendance models.AttendanceMap `json:"attendance"`
	CardNames  models.NameMap       `json:"cardNames"`
	Source     sourceInfo           `json:"source"`
}

type dayResponse struct {
	Success     bool              `json:"success"`
	Date        string            `json:"date"`
	Attendance  []models.DayEntry `json:"attendance"`
	Total       int               `json:"total"`
	SignedIn    int               `json:"signedIn"`
	NotSignedIn int               `json:"notSignedIn"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUIDRequired),
		errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrInvalidDate),
		errors.Is(err, services.ErrEmptyDocument):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrWriteDisabled):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error envelope. Server-side failures are logged since the
// caller only sees the message.
func (ac *ApiController) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		ac.logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "%s %s: %s", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (ac *ApiController) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

// uncached marks a compute result that is served but never stored.
type uncached struct {
	value any
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, r *http.Request, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.fail(w, r, err)
		return
	}

	skip, isUncached := result.(uncached)
	if isUncached {
		result = skip.value
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if !isUncached {
		ac.cache.Set(cacheKey, gson)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func (ac *ApiController) FetchAttendance(w http.ResponseWriter, r *http.Request) {
	doc, updated, err := ac.service.Document(r.Context())
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	resp := fetchResponse{
		Success:    true,
		Version:    models.CurrentVersion,
		Attendance: doc.Attendance,
		CardNames:  doc.CardNames,
		Source:     sourceInfo{Kind: ac.service.StoreKind()},
	}
	if !updated.IsZero() {
		resp.Source.UpdatedAt = &updated
	}
	writeJSON(w, http.StatusOK, resp)
}

// SaveAttendance accepts any document shape the normalizer understands,
// including the body returned by FetchAttendance.
func (ac *ApiController) SaveAttendance(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
		return
	}
	doc, err := models.Normalize(body, ac.loc)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if err := ac.service.SaveDocument(r.Context(), doc); err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"dates":   len(doc.Attendance),
		"records": doc.Attendance.RecordCount(),
		"names":   len(doc.CardNames),
	})
}

func (ac *ApiController) ReceiveAttendance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusGone, errorResponse{Error: "remote receive is disabled, use /api/save-attendance"})
}

func (ac *ApiController) Toggle(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if !ac.decode(w, r, &req) {
		return
	}
	rec, err := ac.service.Toggle(r.Context(), req.UID, req.Date)
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "uid": strings.TrimSpace(req.UID), "record": rec})
}

func (ac *ApiController) RecordSignIn(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if !ac.decode(w, r, &req) {
		return
	}
	name, err := ac.service.RecordSignIn(r.Context(), req.UID)
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	who := name
	if who == "" {
		who = strings.TrimSpace(req.UID)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Sign-in recorded for %s", who),
		"name":    name,
	})
}

func (ac *ApiController) ManualSignIn(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if !ac.decode(w, r, &req) {
		return
	}
	rec, err := ac.service.ManualSignIn(r.Context(), req.UID, req.Name, req.Date)
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "record": rec})
}

func (ac *ApiController) CardDetected(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if !ac.decode(w, r, &req) {
		return
	}
	update, err := ac.service.Tap(r.Context(), req.UID)
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "update": update})
}

func (ac *ApiController) CardRemoved(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "update": ac.service.CardRemoved()})
}

func (ac *ApiController) PollStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "update": ac.service.PollUpdate()})
}

func (ac *ApiController) ReaderStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"reader":      ac.service.ReaderStatus(),
		"queueLength": ac.service.QueueLen(),
	})
}

func (ac *ApiController) SaveCardName(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if !ac.decode(w, r, &req) {
		return
	}
	if err := ac.service.SetName(r.Context(), req.UID, req.Name); err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Card name '%s' saved successfully", strings.TrimSpace(req.Name)),
	})
}

func (ac *ApiController) GetCardName(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	name, err := ac.service.Name(r.Context(), uid)
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	var out any
	if name != "" {
		out = name
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "name": out})
}

func (ac *ApiController) GetAllCardNames(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, r, "names", func() (any, error) {
		names, err := ac.service.Names(r.Context())
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "cardNames": names}, nil
	})
}

func (ac *ApiController) AttendanceStatus(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = ac.service.Today()
	}
	ac.serveFromCacheOrCompute(w, r, "day:"+date, func() (any, error) {
		sheet, err := ac.service.Day(r.Context(), date)
		if err != nil {
			return nil, err
		}
		return dayResponse{
			Success:     true,
			Date:        sheet.Date,
			Attendance:  sheet.Entries,
			Total:       sheet.Total,
			SignedIn:    sheet.SignedIn,
			NotSignedIn: sheet.NotSignedIn,
		}, nil
	})
}

func (ac *ApiController) Dates(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, r, "dates", func() (any, error) {
		dates, err := ac.service.Dates(r.Context())
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "dates": dates}, nil
	})
}

func (ac *ApiController) PersonProfile(w http.ResponseWriter, r *http.Request) {
	uid := strings.TrimSpace(r.URL.Query().Get("uid"))
	if uid == "" {
		ac.fail(w, r, services.ErrUIDRequired)
		return
	}
	ac.serveFromCacheOrCompute(w, r, "profile:"+uid, func() (any, error) {
		profile, err := ac.service.Profile(r.Context(), uid)
		if errors.Is(err, services.ErrProfileDegraded) {
			return uncached{map[string]any{"success": true, "profile": profile}}, nil
		}
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "profile": profile}, nil
	})
}
