/*
handlers.go - HTTP API handlers for the vacation engine

PURPOSE:
  Exposes vacation.Service over REST. Handlers decode the body, take the acting
  employee from the request context, call exactly one service operation and
  render its result. No business rule is decided here.

ENDPOINTS:
  Employees:
    GET    /api/employees                  List employees
    POST   /api/employees                  Create or update (HR/admin)
    GET    /api/employees/{id}             Employee details
    PUT    /api/employees/{id}/manager     Assign manager (admin)
    GET    /api/employees/{id}/balance     Balance summary
    GET    /api/employees/{id}/periods     Periods ordered by start

  Periods:
    POST   /api/periods                    Create draft
    POST   /api/periods/calculate          Preview end date and charged days
    POST   /api/periods/submit-batch       Submit drafts by area/manager
    GET    /api/periods/{id}               Period details
    PUT    /api/periods/{id}               Edit draft
    DELETE /api/periods/{id}               Delete draft
    POST   /api/periods/{id}/submit        Draft -> pending_hr
    POST   /api/periods/{id}/approve       pending_hr -> approved
    POST   /api/periods/{id}/reject        pending_hr -> rejected
    POST   /api/periods/{id}/modifications Request new dates
    POST   /api/periods/{id}/suspensions   Request cancellation/shortening
    POST   /api/periods/{id}/comments      Append a note
    GET    /api/periods/{id}/audit         History, oldest first

  Change requests:
    POST   /api/modifications/{id}/approve|reject
    POST   /api/suspensions/{id}/approve|reject

  Calendar (writes: HR/admin):
    GET    /api/holidays?year=YYYY
    POST   /api/holidays
    DELETE /api/holidays/{id}
    GET    /api/settings
    PUT    /api/settings

  Reports (HR/admin):
    GET    /api/reports/alerts?threshold=N
    GET    /api/reports/planned

ERROR HANDLING:
  See errors.go: 400 malformed body, 401 no actor, 403 permission, 404 not
  found, 409 overlap/type limit/state, 422 rule violation, 500 internal.

SEE ALSO:
  - dto.go: Request bodies
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/vacation-engine/calendar"
	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// CalendarAdmin is the holiday and settings store behind the calendar
// endpoints. store/sqlite implements it.
type CalendarAdmin interface {
	calendar.Provider
	ListHolidays(ctx context.Context, year int) ([]calendar.Holiday, error)
	SaveHoliday(ctx context.Context, h calendar.Holiday) (bool, error)
	DeleteHoliday(ctx context.Context, id string) error
	SaveSetting(ctx context.Context, key, value string) error
}

// CacheInvalidator drops cached holiday snapshots. No year means all years.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, years ...int) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	svc       *vacation.Service
	calendar  CalendarAdmin
	cache     CacheInvalidator
	logger    *slog.Logger
	threshold int
	today     func() calendar.Date
}

type HandlerOption func(*Handler)

// WithCache invalidates the holiday cache on holiday writes.
func WithCache(c CacheInvalidator) HandlerOption {
	return func(h *Handler) { h.cache = c }
}

// WithThreshold sets the default missing-schedule threshold for alerts.
func WithThreshold(n int) HandlerOption {
	return func(h *Handler) { h.threshold = n }
}

// WithToday sets the clock used for the default holiday listing year.
func WithToday(fn func() calendar.Date) HandlerOption {
	return func(h *Handler) { h.today = fn }
}

// NewHandler creates a new handler.
func NewHandler(svc *vacation.Service, cal CalendarAdmin, logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		svc:       svc,
		calendar:  cal,
		logger:    logger,
		threshold: vacation.DefaultMissingScheduleThreshold,
		today:     calendar.SystemClock{}.Today,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// decodeOptional is decode for endpoints whose body may be omitted.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.svc.Employees(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if employees == nil {
		employees = []vacation.Employee{}
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Employee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// SaveEmployee creates or updates an employee record. HR/admin only.
func (h *Handler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := h.svc.RequireReviewer(r.Context(), ActorID(r.Context()), "manage employees"); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	e, err := h.svc.SaveEmployee(r.Context(), req.toDomain())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) AssignManager(w http.ResponseWriter, r *http.Request) {
	var req AssignManagerRequest
	if !decode(w, r, &req) {
		return
	}
	e, err := h.svc.AssignManager(r.Context(), ActorID(r.Context()), chi.URLParam(r, "id"), req.ManagerID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Balance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.svc.Periods(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if periods == nil {
		periods = []vacation.Period{}
	}
	writeJSON(w, http.StatusOK, periods)
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.svc.Policies(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if policies == nil {
		policies = []vacation.Policy{}
	}
	writeJSON(w, http.StatusOK, policies)
}

func (h *Handler) SavePolicy(w http.ResponseWriter, r *http.Request) {
	var req PolicyRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := h.svc.RequireReviewer(r.Context(), ActorID(r.Context()), "manage policies"); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	p, err := h.svc.SavePolicy(r.Context(), req.toDomain())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// CreatePeriod stores a new draft.
// POST /api/periods
func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req CreatePeriodRequest
	if !decode(w, r, &req) {
		return
	}
	actor := ActorID(r.Context())
	if req.EmployeeID == "" {
		req.EmployeeID = actor
	}
	out, err := h.svc.Create(r.Context(), vacation.CreateRequest{
		ActorID:    actor,
		EmployeeID: req.EmployeeID,
		Start:      req.Start,
		Type:       req.TypePeriod,
		Attachment: req.Attachment,
	})
	h.respond(w, r, http.StatusCreated, out, err)
}

// Calculate previews a period without storing it.
// POST /api/periods/calculate
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.EmployeeID == "" {
		req.EmployeeID = ActorID(r.Context())
	}
	calc, err := h.svc.Preview(r.Context(), req.EmployeeID, req.Start, req.TypePeriod)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Period(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) EditPeriod(w http.ResponseWriter, r *http.Request) {
	var req EditPeriodRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.Edit(r.Context(), vacation.EditRequest{
		ActorID:  ActorID(r.Context()),
		PeriodID: chi.URLParam(r, "id"),
		Start:    req.Start,
		Type:     req.TypePeriod,
	})
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Delete(r.Context(), ActorID(r.Context()), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) SubmitPeriod(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	out, err := h.svc.SubmitToHR(r.Context(), ActorID(r.Context()), chi.URLParam(r, "id"), req.Document)
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchSubmitRequest
	if !decode(w, r, &req) {
		return
	}
	outs, err := h.svc.SubmitBatch(r.Context(), vacation.BatchSubmit{
		ActorID:   ActorID(r.Context()),
		Area:      req.Area,
		ManagerID: req.ManagerID,
		Document:  req.Document,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"submitted": len(outs), "results": outs})
}

func (h *Handler) ApprovePeriod(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Approve(r.Context(), ActorID(r.Context()), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) RejectPeriod(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	out, err := h.svc.Reject(r.Context(), ActorID(r.Context()), chi.URLParam(r, "id"), req.Reason)
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.AddComment(r.Context(), ActorID(r.Context()), chi.URLParam(r, "id"), req.Text)
	h.respond(w, r, http.StatusCreated, out, err)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []vacation.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// =============================================================================
// CHANGE REQUEST HANDLERS
// =============================================================================

func (h *Handler) RequestModification(w http.ResponseWriter, r *http.Request) {
	var req ModificationRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.RequestModification(r.Context(), vacation.ModificationInput{
		ActorID:    ActorID(r.Context()),
		PeriodID:   chi.URLParam(r, "id"),
		Start:      req.Start,
		Type:       req.TypePeriod,
		Reason:     req.Reason,
		Attachment: req.Attachment,
	})
	h.respond(w, r, http.StatusCreated, out, err)
}

func (h *Handler) ApproveModification(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ApproveModification(r.Context(), ActorID(r.Context()), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) RejectModification(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.RejectModification(r.Context(), ActorID(r.Context()), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) RequestSuspension(w http.ResponseWriter, r *http.Request) {
	var req SuspensionRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.RequestSuspension(r.Context(), vacation.SuspensionInput{
		ActorID:    ActorID(r.Context()),
		PeriodID:   chi.URLParam(r, "id"),
		Type:       req.Type,
		NewEnd:     req.NewEnd,
		Reason:     req.Reason,
		Attachment: req.Attachment,
	})
	h.respond(w, r, http.StatusCreated, out, err)
}

func (h *Handler) ApproveSuspension(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ApproveSuspension(r.Context(), ActorID(r.Context()), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) RejectSuspension(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.RejectSuspension(r.Context(), ActorID(r.Context()), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, out *vacation.Outcome, err error) {
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, status, out)
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// ListHolidays returns every holiday of ?year= (default: current year).
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.today().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = y
	}
	holidays, err := h.calendar.ListHolidays(r.Context(), year)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if holidays == nil {
		holidays = []calendar.Holiday{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "holidays": holidays})
}

// CreateHoliday adds a holiday and drops the cached snapshots of its year.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := h.svc.RequireReviewer(r.Context(), ActorID(r.Context()), "manage holidays"); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	holiday := calendar.Holiday{
		ID:       uuid.NewString(),
		Date:     req.Date,
		Name:     req.Name,
		Location: calendar.NormalizeLocation(req.Location),
	}
	inserted, err := h.calendar.SaveHoliday(r.Context(), holiday)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !inserted {
		writeJSON(w, http.StatusOK, map[string]any{"status": "exists"})
		return
	}
	h.invalidate(r.Context(), holiday.Date.Year())
	writeJSON(w, http.StatusCreated, holiday)
}

// DeleteHoliday removes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.RequireReviewer(r.Context(), ActorID(r.Context()), "manage holidays"); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := h.calendar.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.invalidate(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func (h *Handler) invalidate(ctx context.Context, years ...int) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx, years...); err != nil {
		h.logger.WarnContext(ctx, "holiday cache invalidation failed", "error", err)
	}
}

// GetSettings returns the effective calendar configuration.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := calendar.LoadConfig(r.Context(), h.calendar)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// UpdateSettings stores one or more toggles and returns the new configuration.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if !decode(w, r, &req) {
		return
	}
	actor, err := h.svc.RequireReviewer(r.Context(), ActorID(r.Context()), "change settings")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	for key, value := range req {
		if err := h.calendar.SaveSetting(r.Context(), key, value); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		h.logger.InfoContext(r.Context(), "setting changed", "key", key, "value", value, "actor_id", actor.ID)
	}
	h.GetSettings(w, r)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// Alerts returns balance rows and alerts. ?threshold= overrides the default.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	threshold := h.threshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid threshold", err)
			return
		}
		threshold = n
	}
	report, err := h.svc.Report(r.Context(), ActorID(r.Context()), threshold)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) Planned(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Planned(r.Context(), ActorID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if rows == nil {
		rows = []vacation.PlannedRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}
