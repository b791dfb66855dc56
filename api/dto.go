/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/aasimdev/absentify-inhouse-sub002/engine"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateRequestRequest is the body of POST /api/requests.
type CreateRequestRequest struct {
	WorkspaceID string `json:"workspace_id"`
	MemberID    string `json:"member_id"`
	LeaveTypeID string `json:"leave_type_id"`
	Start       string `json:"start"`    // 2006-01-02
	End         string `json:"end"`      // 2006-01-02
	StartAt     string `json:"start_at"` // morning | afternoon
	EndAt       string `json:"end_at"`   // lunchtime | end_of_day
	Reason      string `json:"reason,omitempty"`
}

// ActorDTO identifies the principal behind a decision.
type ActorDTO struct {
	MemberID           string   `json:"member_id"`
	IsAdmin            bool     `json:"is_admin,omitempty"`
	ManagesDepartments []string `json:"manages_departments,omitempty"`
}

func (a ActorDTO) toEngine() engine.Actor {
	depts := make([]engine.DepartmentID, 0, len(a.ManagesDepartments))
	for _, d := range a.ManagesDepartments {
		depts = append(depts, engine.DepartmentID(d))
	}
	return engine.Actor{
		MemberID:           engine.MemberID(a.MemberID),
		IsAdmin:            a.IsAdmin,
		ManagesDepartments: depts,
	}
}

// DecideRequest is the body of POST /api/requests/{id}/approve and /decline.
type DecideRequest struct {
	Actor ActorDTO `json:"actor"`
	// Position is the chain position being acted on; empty means the
	// actor's own.
	Position string `json:"position,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// CancelRequest is the body of POST /api/requests/{id}/cancel.
type CancelRequest struct {
	Actor  ActorDTO `json:"actor"`
	Reason string   `json:"reason,omitempty"`
}

// SetApproversRequest is the body of PUT /api/members/{id}/approvers.
type SetApproversRequest struct {
	WorkspaceID string   `json:"workspace_id"`
	Approvers   []string `json:"approvers"`
}

// AddHolidayRequest is the body of POST /api/holidays.
type AddHolidayRequest struct {
	CalendarID string `json:"calendar_id"`
	Date       string `json:"date"`     // 2006-01-02
	Duration   string `json:"duration"` // full | morning | afternoon
	Name       string `json:"name,omitempty"`
}

// SetScheduleRequest is the body of POST /api/members/{id}/schedules.
type SetScheduleRequest struct {
	WorkspaceID string              `json:"workspace_id"`
	ValidFrom   string              `json:"valid_from"` // 2006-01-02
	Week        engine.WeekSchedule `json:"week"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ApproverDTO is one chain position in a response.
type ApproverDTO struct {
	ApproverID  string     `json:"approver_id"`
	Predecessor string     `json:"predecessor,omitempty"`
	Status      string     `json:"status"`
	Comment     string     `json:"comment,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

// RequestDTO is the full request aggregate in responses.
type RequestDTO struct {
	ID          string        `json:"id"`
	MemberID    string        `json:"member_id"`
	WorkspaceID string        `json:"workspace_id"`
	Start       string        `json:"start"`
	End         string        `json:"end"`
	StartAt     string        `json:"start_at"`
	EndAt       string        `json:"end_at"`
	Year        int           `json:"year"`
	Status      string        `json:"status"`
	Process     string        `json:"process"`
	LeaveTypeID string        `json:"leave_type_id"`
	Reason      string        `json:"reason,omitempty"`
	Duration    DurationDTO   `json:"duration"`
	Approvers   []ApproverDTO `json:"approvers"`
	CreatedAt   time.Time     `json:"created_at"`

	CanceledBy   string     `json:"canceled_by,omitempty"`
	CanceledAt   *time.Time `json:"canceled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
}

// DurationDTO carries the computed duration in both units.
type DurationDTO struct {
	Days    string `json:"days"`
	Minutes string `json:"minutes"`
}

// AllowanceDTO is one ledger row in a balance response.
type AllowanceDTO struct {
	AllowanceTypeID string `json:"allowance_type_id"`
	Year            int    `json:"year"`
	Allowance       string `json:"allowance"`
	BroughtForward  string `json:"brought_forward"`
	Compensatory    string `json:"compensatory"`
	Taken           string `json:"taken"`
	Remaining       string `json:"remaining"`
}

// ErrorDTO is the error envelope for all non-2xx responses.
type ErrorDTO struct {
	Error struct {
		Kind    string `json:"kind"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toRequestDTO(rec engine.RequestRecord) RequestDTO {
	dto := RequestDTO{
		ID:          string(rec.Request.ID),
		MemberID:    string(rec.Request.MemberID),
		WorkspaceID: string(rec.Request.WorkspaceID),
		Start:       rec.Request.Start.String(),
		End:         rec.Request.End.String(),
		StartAt:     string(rec.Request.StartAt),
		EndAt:       string(rec.Request.EndAt),
		Year:        rec.Request.Year,
		Status:      string(rec.Detail.Status),
		Process:     string(rec.Detail.Process),
		LeaveTypeID: string(rec.Detail.LeaveTypeID),
		Reason:      rec.Detail.Reason,
		Duration: DurationDTO{
			Days:    rec.Detail.Duration.Days.String(),
			Minutes: rec.Detail.Duration.Minutes.String(),
		},
		CreatedAt:    rec.Request.CreatedAt,
		CanceledAt:   rec.Detail.CanceledAt,
		CancelReason: rec.Detail.CancelReason,
	}
	if rec.Detail.CanceledBy != nil {
		dto.CanceledBy = string(*rec.Detail.CanceledBy)
	}

	for _, a := range engine.SortApprovers(rec.Approvers) {
		ad := ApproverDTO{
			ApproverID: string(a.ApproverID),
			Status:     string(a.Status),
			Comment:    a.Comment,
			DecidedAt:  a.DecidedAt,
		}
		if a.PredecessorID != nil {
			ad.Predecessor = string(*a.PredecessorID)
		}
		dto.Approvers = append(dto.Approvers, ad)
	}
	return dto
}

func toAllowanceDTOs(rows []engine.MemberAllowance) []AllowanceDTO {
	out := make([]AllowanceDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, AllowanceDTO{
			AllowanceTypeID: string(r.AllowanceTypeID),
			Year:            r.Year,
			Allowance:       r.Allowance.String(),
			BroughtForward:  r.BroughtForward.String(),
			Compensatory:    r.Compensatory.String(),
			Taken:           r.Taken.String(),
			Remaining:       r.Remaining.String(),
		})
	}
	return out
}
