/*
handlers_test.go - HTTP endpoint tests

Exercises the router end to end against the in-memory store: happy
paths, input validation, and the error-to-status mapping.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aasimdev/absentify-inhouse-sub002/engine"
	enginestore "github.com/aasimdev/absentify-inhouse-sub002/engine/store"
	"github.com/aasimdev/absentify-inhouse-sub002/lock"
)

// =============================================================================
// FIXTURE
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *enginestore.Memory) {
	t.Helper()
	ctx := context.Background()
	mem := enginestore.NewMemory()

	require.NoError(t, mem.SaveWorkspaceSchedule(ctx, engine.WorkspaceSchedule{
		WorkspaceID: "ws-1",
		Week:        engine.StandardWeek(engine.Clock(9, 0), engine.Clock(13, 0), engine.Clock(14, 0), engine.Clock(18, 0)),
	}))
	mem.SaveAllowanceType(engine.AllowanceType{
		ID:   "at-vacation",
		Unit: engine.UnitDays,
	})
	mem.SaveLeaveType(engine.LeaveType{
		ID:                "lt-vacation",
		Unit:              engine.UnitDays,
		TakeFromAllowance: true,
		NeedsApproval:     true,
		AllowanceTypeID:   "at-vacation",
	})
	require.NoError(t, mem.SaveMember(ctx, engine.Member{
		ID:              "boss",
		WorkspaceID:     "ws-1",
		Email:           "boss@corp.test",
		ApprovalProcess: engine.ProcessLinearAll,
	}))
	require.NoError(t, mem.SaveMember(ctx, engine.Member{
		ID:              "emp",
		WorkspaceID:     "ws-1",
		Email:           "emp@corp.test",
		ApprovalProcess: engine.ProcessLinearAll,
		ApproverIDs:     []engine.MemberID{"boss"},
	}))
	require.NoError(t, mem.SaveAllowances(ctx, []engine.MemberAllowance{{
		MemberID:        "emp",
		WorkspaceID:     "ws-1",
		AllowanceTypeID: "at-vacation",
		Year:            2026,
		Allowance:       decimal.NewFromInt(20),
		Remaining:       decimal.NewFromInt(20),
	}}))

	svc := engine.NewService(engine.ServiceConfig{Store: mem, Locker: lock.NewMemory()})
	srv := httptest.NewServer(NewRouter(NewHandler(svc, nil), []string{"*"}))
	t.Cleanup(srv.Close)
	return srv, mem
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func decodeRequest(t *testing.T, resp *http.Response) RequestDTO {
	t.Helper()
	defer resp.Body.Close()
	var dto RequestDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dto))
	return dto
}

func decodeError(t *testing.T, resp *http.Response) ErrorDTO {
	t.Helper()
	defer resp.Body.Close()
	var dto ErrorDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dto))
	return dto
}

func createBody() CreateRequestRequest {
	return CreateRequestRequest{
		WorkspaceID: "ws-1",
		MemberID:    "emp",
		LeaveTypeID: "lt-vacation",
		Start:       "2026-03-02",
		End:         "2026-03-06",
	}
}

// =============================================================================
// REQUEST LIFECYCLE OVER HTTP
// =============================================================================

func TestHTTP_CreateApproveCancel(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/requests", createBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeRequest(t, resp)
	assert.Equal(t, "PENDING", created.Status)
	assert.Equal(t, "5", created.Duration.Days)
	require.Len(t, created.Approvers, 1)
	assert.Equal(t, "boss", created.Approvers[0].ApproverID)

	resp = postJSON(t, srv.URL+"/api/requests/"+created.ID+"/approve", DecideRequest{
		Actor: ActorDTO{MemberID: "boss"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	approved := decodeRequest(t, resp)
	assert.Equal(t, "APPROVED", approved.Status)

	resp = postJSON(t, srv.URL+"/api/requests/"+created.ID+"/cancel", CancelRequest{
		Actor:  ActorDTO{MemberID: "emp"},
		Reason: "plans changed",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	canceled := decodeRequest(t, resp)
	assert.Equal(t, "CANCELED", canceled.Status)
	assert.Equal(t, "emp", canceled.CanceledBy)
}

func TestHTTP_GetAndList(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decodeRequest(t, postJSON(t, srv.URL+"/api/requests", createBody()))

	resp, err := http.Get(srv.URL + "/api/requests/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeRequest(t, resp)
	assert.Equal(t, created.ID, got.ID)

	resp, err = http.Get(srv.URL + "/api/members/emp/requests")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	var list []RequestDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list, 1)
}

func TestHTTP_Balance(t *testing.T) {
	srv, _ := newTestServer(t)
	decodeRequest(t, postJSON(t, srv.URL+"/api/requests", createBody()))

	resp, err := http.Get(srv.URL + "/api/members/emp/balance")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	var rows []AllowanceDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "5", rows[0].Taken)
	assert.Equal(t, "15", rows[0].Remaining)
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestHTTP_ErrorStatuses(t *testing.T) {
	srv, _ := newTestServer(t)

	// Bad date format: 400 before the engine is involved.
	bad := createBody()
	bad.Start = "03/02/2026"
	resp := postJSON(t, srv.URL+"/api/requests", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Unknown leave type: 404.
	missing := createBody()
	missing.LeaveTypeID = "lt-nope"
	resp = postJSON(t, srv.URL+"/api/requests", missing)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decodeError(t, resp).Error.Code)

	// Inverted range: 422 with the engine's code.
	inverted := createBody()
	inverted.Start, inverted.End = inverted.End, inverted.Start
	resp = postJSON(t, srv.URL+"/api/requests", inverted)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "start_after_end", decodeError(t, resp).Error.Code)

	// Overlap: 409.
	resp = postJSON(t, srv.URL+"/api/requests", createBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	resp = postJSON(t, srv.URL+"/api/requests", createBody())
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "overlapping_request", decodeError(t, resp).Error.Code)
}

func TestHTTP_DecideRequiresActor(t *testing.T) {
	srv, _ := newTestServer(t)
	created := decodeRequest(t, postJSON(t, srv.URL+"/api/requests", createBody()))

	resp := postJSON(t, srv.URL+"/api/requests/"+created.ID+"/approve", DecideRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// MEMBER CONFIGURATION ENDPOINTS
// =============================================================================

func TestHTTP_SetApproversAndSchedule(t *testing.T) {
	srv, mem := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, mem.SaveMember(ctx, engine.Member{
		ID: "lead", WorkspaceID: "ws-1", Email: "lead@corp.test",
	}))

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/members/emp/approvers",
		bytes.NewReader(mustJSON(t, SetApproversRequest{
			WorkspaceID: "ws-1",
			Approvers:   []string{"lead"},
		})))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	created := decodeRequest(t, postJSON(t, srv.URL+"/api/requests", createBody()))
	require.Len(t, created.Approvers, 1)
	assert.Equal(t, "lead", created.Approvers[0].ApproverID)

	halfWeek := engine.StandardWeek(engine.Clock(9, 0), engine.Clock(13, 0), 0, 0)
	resp = postJSON(t, srv.URL+"/api/members/emp/schedules", SetScheduleRequest{
		WorkspaceID: "ws-1",
		ValidFrom:   "2026-01-01",
		Week:        halfWeek,
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestHTTP_HolidayAffectsPricing(t *testing.T) {
	srv, mem := newTestServer(t)
	ctx := context.Background()

	member, err := mem.GetMember(ctx, "emp")
	require.NoError(t, err)
	member.HolidayCalendarID = "cal-de"
	require.NoError(t, mem.SaveMember(ctx, member))

	resp := postJSON(t, srv.URL+"/api/holidays", AddHolidayRequest{
		CalendarID: "cal-de",
		Date:       "2026-03-04",
		Name:       "Founders Day",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	created := decodeRequest(t, postJSON(t, srv.URL+"/api/requests", createBody()))
	assert.Equal(t, "4", created.Duration.Days, "the holiday drops one work day")

	// Unknown duration marker is rejected before the engine runs.
	resp = postJSON(t, srv.URL+"/api/holidays", AddHolidayRequest{
		CalendarID: "cal-de",
		Date:       "2026-03-05",
		Duration:   "evening",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	buf, err := json.Marshal(v)
	require.NoError(t, err)
	return buf
}
