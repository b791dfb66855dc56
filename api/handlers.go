/*
handlers.go - HTTP API handlers for the leave management engine

PURPOSE:
  Exposes the request service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates all decisions to the engine.

ENDPOINTS:
  Requests:
    POST   /api/requests                  Create a leave request
    GET    /api/requests/{id}             Get a request aggregate
    POST   /api/requests/{id}/approve     Approve a chain position
    POST   /api/requests/{id}/decline     Decline a chain position
    POST   /api/requests/{id}/cancel      Withdraw the request

  Members:
    GET    /api/members/{id}/requests     List a member's requests
    GET    /api/members/{id}/balance      Ledger rows (recomputed)
    PUT    /api/members/{id}/approvers    Replace explicit approver list
    POST   /api/members/{id}/schedules    Add a schedule version
    POST   /api/members/{id}/recompute    Force a ledger rebuild

  Calendars:
    POST   /api/holidays                  Upsert a public holiday day

ERROR HANDLING:
  Engine errors map to HTTP status by kind:
  - precondition: 422 (404 when the code is not_found)
  - conflict:     409
  - state:        409
  - collaborator: 502
  Everything else is 500. The body always carries {kind, code, message}.

SECURITY NOTE:
  The actor is taken from the request body; authentication is expected to
  sit in front of this service and is out of scope here.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aasimdev/absentify-inhouse-sub002/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *engine.Service
	Log     *zap.Logger
}

// NewHandler creates a handler over the request service.
func NewHandler(svc *engine.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Service: svc, Log: log}
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// CreateRequest handles POST /api/requests.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var body CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.badRequest(w, "invalid JSON body")
		return
	}

	start, err := engine.ParseDate(body.Start)
	if err != nil {
		h.badRequest(w, "invalid start date, want 2006-01-02")
		return
	}
	end, err := engine.ParseDate(body.End)
	if err != nil {
		h.badRequest(w, "invalid end date, want 2006-01-02")
		return
	}
	startAt, endAt, ok := parseMarkers(body.StartAt, body.EndAt)
	if !ok {
		h.badRequest(w, "invalid half-day markers")
		return
	}

	rec, err := h.Service.CreateRequest(r.Context(), engine.CreateInput{
		WorkspaceID: engine.WorkspaceID(body.WorkspaceID),
		MemberID:    engine.MemberID(body.MemberID),
		LeaveTypeID: engine.LeaveTypeID(body.LeaveTypeID),
		Start:       start,
		End:         end,
		StartAt:     startAt,
		EndAt:       endAt,
		Reason:      body.Reason,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toRequestDTO(rec))
}

// GetRequest handles GET /api/requests/{id}.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := engine.RequestID(chi.URLParam(r, "id"))
	rec, err := h.Service.GetRequest(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRequestDTO(rec))
}

// ApproveRequest handles POST /api/requests/{id}/approve.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Approve)
}

// DeclineRequest handles POST /api/requests/{id}/decline.
func (h *Handler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Decline)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, in engine.DecideInput) (engine.RequestRecord, error)) {

	var body DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.badRequest(w, "invalid JSON body")
		return
	}
	if body.Actor.MemberID == "" {
		h.badRequest(w, "actor.member_id is required")
		return
	}

	rec, err := op(r.Context(), engine.DecideInput{
		RequestID: engine.RequestID(chi.URLParam(r, "id")),
		Actor:     body.Actor.toEngine(),
		Position:  engine.MemberID(body.Position),
		Comment:   body.Comment,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRequestDTO(rec))
}

// CancelLeaveRequest handles POST /api/requests/{id}/cancel.
func (h *Handler) CancelLeaveRequest(w http.ResponseWriter, r *http.Request) {
	var body CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.badRequest(w, "invalid JSON body")
		return
	}
	if body.Actor.MemberID == "" {
		h.badRequest(w, "actor.member_id is required")
		return
	}

	rec, err := h.Service.Cancel(r.Context(), engine.CancelInput{
		RequestID: engine.RequestID(chi.URLParam(r, "id")),
		Actor:     body.Actor.toEngine(),
		Reason:    body.Reason,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRequestDTO(rec))
}

// =============================================================================
// MEMBER HANDLERS
// =============================================================================

// ListMemberRequests handles GET /api/members/{id}/requests.
func (h *Handler) ListMemberRequests(w http.ResponseWriter, r *http.Request) {
	member := engine.MemberID(chi.URLParam(r, "id"))
	recs, err := h.Service.ListRequests(r.Context(), member)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]RequestDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRequestDTO(rec))
	}
	h.writeJSON(w, http.StatusOK, out)
}

// GetBalance handles GET /api/members/{id}/balance.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	member := engine.MemberID(chi.URLParam(r, "id"))
	rows, err := h.Service.Balance(r.Context(), member)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toAllowanceDTOs(rows))
}

// SetApprovers handles PUT /api/members/{id}/approvers.
func (h *Handler) SetApprovers(w http.ResponseWriter, r *http.Request) {
	var body SetApproversRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.badRequest(w, "invalid JSON body")
		return
	}

	member := engine.MemberID(chi.URLParam(r, "id"))
	approvers := make([]engine.MemberID, 0, len(body.Approvers))
	for _, a := range body.Approvers {
		approvers = append(approvers, engine.MemberID(a))
	}

	if err := h.Service.SetMemberApprovers(r.Context(),
		engine.WorkspaceID(body.WorkspaceID), member, approvers); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetSchedule handles POST /api/members/{id}/schedules.
func (h *Handler) SetSchedule(w http.ResponseWriter, r *http.Request) {
	var body SetScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.badRequest(w, "invalid JSON body")
		return
	}
	validFrom, err := engine.ParseDate(body.ValidFrom)
	if err != nil {
		h.badRequest(w, "invalid valid_from date, want 2006-01-02")
		return
	}

	member := engine.MemberID(chi.URLParam(r, "id"))
	if err := h.Service.SetMemberSchedule(r.Context(),
		engine.WorkspaceID(body.WorkspaceID), engine.MemberSchedule{
			MemberID:  member,
			ValidFrom: validFrom,
			Week:      body.Week,
		}); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddHoliday handles POST /api/holidays.
func (h *Handler) AddHoliday(w http.ResponseWriter, r *http.Request) {
	var body AddHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.badRequest(w, "invalid JSON body")
		return
	}
	if body.CalendarID == "" {
		h.badRequest(w, "calendar_id is required")
		return
	}
	day, err := engine.ParseDate(body.Date)
	if err != nil {
		h.badRequest(w, "invalid date, want 2006-01-02")
		return
	}
	duration := engine.HolidayDuration(body.Duration)
	if body.Duration == "" {
		duration = engine.HolidayFull
	}
	switch duration {
	case engine.HolidayFull, engine.HolidayMorning, engine.HolidayAfternoon:
	default:
		h.badRequest(w, "invalid duration, want full | morning | afternoon")
		return
	}

	if err := h.Service.AddHoliday(r.Context(), engine.PublicHolidayDay{
		CalendarID: engine.CalendarID(body.CalendarID),
		Date:       day,
		Duration:   duration,
		Name:       body.Name,
	}); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Recompute handles POST /api/members/{id}/recompute.
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	member := engine.MemberID(chi.URLParam(r, "id"))
	if err := h.Service.RecomputeMemberAllowances(r.Context(), member); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func parseMarkers(startAt, endAt string) (engine.StartAt, engine.EndAt, bool) {
	if startAt == "" {
		startAt = string(engine.StartMorning)
	}
	if endAt == "" {
		endAt = string(engine.EndOfDay)
	}
	s := engine.StartAt(startAt)
	e := engine.EndAt(endAt)
	if s != engine.StartMorning && s != engine.StartAfternoon {
		return "", "", false
	}
	if e != engine.EndLunchtime && e != engine.EndOfDay {
		return "", "", false
	}
	return s, e, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Error("encode response", zap.Error(err))
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	var dto ErrorDTO
	dto.Error.Kind = "bad_request"
	dto.Error.Code = "invalid_body"
	dto.Error.Message = msg
	h.writeJSON(w, http.StatusBadRequest, dto)
}

// writeError maps an engine error to an HTTP response.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var dto ErrorDTO
	dto.Error.Kind = string(engine.KindOf(err))
	dto.Error.Code = engine.CodeOf(err)
	dto.Error.Message = err.Error()

	status := http.StatusInternalServerError
	switch engine.KindOf(err) {
	case engine.KindPrecondition:
		status = http.StatusUnprocessableEntity
		if engine.CodeOf(err) == engine.CodeNotFound || errors.Is(err, engine.ErrNotFound) {
			status = http.StatusNotFound
		}
	case engine.KindConflict, engine.KindState:
		status = http.StatusConflict
	case engine.KindCollaborator:
		status = http.StatusBadGateway
	}

	if status >= 500 {
		h.Log.Error("request failed", zap.Error(err))
	}
	h.writeJSON(w, status, dto)
}
