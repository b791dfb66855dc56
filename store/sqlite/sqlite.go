/*
Package sqlite provides a SQLite-backed implementation of engine.Store.

PURPOSE:
  Implements the full persistence surface the request service needs using
  SQLite. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

KEY TABLES:
  leave_requests:      The immutable date-range half of a request
  request_details:     Status, policy snapshot, computed duration
  request_approvers:   One row per chain position
  member_allowances:   Ledger rows, one per member/type/year
  member_schedules:    Versioned member week schedules (week as JSON)
  workspace_schedules: Workspace fallback schedules
  public_holidays:     Calendar days with full/morning/afternoon durations
  members:             Member approval configuration
  department_approvers: Default approver lists, positional
  leave_types / allowance_types: Type configuration

AMOUNT ENCODING:
  Decimal quantities are stored as TEXT via decimal.String() and parsed
  back exactly; REAL would reintroduce the drift decimals exist to avoid.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  st, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/aasimdev/absentify-inhouse-sub002/engine"
)

// Store implements engine.Store on SQLite.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		workspace_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		unit TEXT NOT NULL,
		year INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_member
		ON leave_requests(member_id, start_date);

	CREATE TABLE IF NOT EXISTS request_details (
		request_id TEXT PRIMARY KEY REFERENCES leave_requests(id),
		status TEXT NOT NULL,
		process TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		duration_minutes TEXT NOT NULL,
		duration_days TEXT NOT NULL,
		canceled_by TEXT,
		canceled_at TEXT,
		cancel_reason TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_details_status
		ON request_details(status);

	CREATE TABLE IF NOT EXISTS request_approvers (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL REFERENCES leave_requests(id),
		approver_id TEXT NOT NULL,
		predecessor_id TEXT,
		status TEXT NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		decided_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_approvers_request
		ON request_approvers(request_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_approvers_unique
		ON request_approvers(request_id, approver_id);

	CREATE TABLE IF NOT EXISTS member_allowances (
		member_id TEXT NOT NULL,
		workspace_id TEXT NOT NULL,
		allowance_type_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		allowance TEXT NOT NULL,
		brought_forward TEXT NOT NULL,
		compensatory TEXT NOT NULL,
		taken TEXT NOT NULL,
		remaining TEXT NOT NULL,
		PRIMARY KEY (member_id, allowance_type_id, year)
	);

	CREATE TABLE IF NOT EXISTS member_schedules (
		member_id TEXT NOT NULL,
		valid_from TEXT NOT NULL,
		week_json TEXT NOT NULL,
		PRIMARY KEY (member_id, valid_from)
	);

	CREATE TABLE IF NOT EXISTS workspace_schedules (
		workspace_id TEXT PRIMARY KEY,
		week_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS public_holidays (
		calendar_id TEXT NOT NULL,
		date TEXT NOT NULL,
		duration TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (calendar_id, date)
	);

	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		archived INTEGER NOT NULL DEFAULT 0,
		is_admin INTEGER NOT NULL DEFAULT 0,
		approval_process TEXT NOT NULL,
		departments_json TEXT NOT NULL DEFAULT '[]',
		approvers_json TEXT NOT NULL DEFAULT '[]',
		calendar_id TEXT NOT NULL DEFAULT '',
		disabled_leave_types_json TEXT NOT NULL DEFAULT '[]',
		uses_dept_defaults INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS department_approvers (
		department_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		approver_id TEXT NOT NULL,
		PRIMARY KEY (department_id, position)
	);

	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		unit TEXT NOT NULL,
		take_from_allowance INTEGER NOT NULL DEFAULT 1,
		ignore_schedule INTEGER NOT NULL DEFAULT 0,
		ignore_public_holidays INTEGER NOT NULL DEFAULT 0,
		needs_approval INTEGER NOT NULL DEFAULT 1,
		reason_required INTEGER NOT NULL DEFAULT 0,
		allowance_type_id TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS allowance_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		unit TEXT NOT NULL,
		ignore_allowance_limit INTEGER NOT NULL DEFAULT 0,
		max_carry_forward TEXT NOT NULL DEFAULT '0'
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REQUESTS
// =============================================================================

// CreateRequest persists the full aggregate in one transaction.
func (s *Store) CreateRequest(ctx context.Context, rec engine.RequestRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	r := rec.Request
	_, err = tx.ExecContext(ctx, `
		INSERT INTO leave_requests
		(id, member_id, workspace_id, start_date, end_date, start_at, end_at, unit, year, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.MemberID, r.WorkspaceID,
		r.Start.String(), r.End.String(), r.StartAt, r.EndAt,
		r.Unit, r.Year, r.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}

	if err := insertDetail(ctx, tx, rec.Detail); err != nil {
		return err
	}
	if err := insertApprovers(ctx, tx, rec.Request.ID, rec.Approvers); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateRequest replaces the detail and approver rows. The date-range half
// is immutable and not touched.
func (s *Store) UpdateRequest(ctx context.Context, rec engine.RequestRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	d := rec.Detail
	res, err := tx.ExecContext(ctx, `
		UPDATE request_details
		SET status = ?, reason = ?, canceled_by = ?, canceled_at = ?, cancel_reason = ?
		WHERE request_id = ?`,
		d.Status, d.Reason,
		nullMemberID(d.CanceledBy), nullTime(d.CanceledAt), d.CancelReason,
		d.RequestID)
	if err != nil {
		return fmt.Errorf("failed to update detail: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM request_approvers WHERE request_id = ?`, d.RequestID); err != nil {
		return fmt.Errorf("failed to clear approvers: %w", err)
	}
	if err := insertApprovers(ctx, tx, d.RequestID, rec.Approvers); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetRequest(ctx context.Context, id engine.RequestID) (engine.RequestRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.member_id, r.workspace_id, r.start_date, r.end_date,
		       r.start_at, r.end_at, r.unit, r.year, r.created_at,
		       d.status, d.process, d.leave_type_id, d.reason,
		       d.duration_minutes, d.duration_days,
		       d.canceled_by, d.canceled_at, d.cancel_reason
		FROM leave_requests r
		JOIN request_details d ON d.request_id = r.id
		WHERE r.id = ?`, id)

	rec, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return engine.RequestRecord{}, engine.ErrNotFound
	}
	if err != nil {
		return engine.RequestRecord{}, err
	}

	rec.Approvers, err = s.loadApprovers(ctx, rec.Request.ID)
	if err != nil {
		return engine.RequestRecord{}, err
	}
	return rec, nil
}

func (s *Store) ListMemberRequests(ctx context.Context, member engine.MemberID) ([]engine.RequestRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.member_id, r.workspace_id, r.start_date, r.end_date,
		       r.start_at, r.end_at, r.unit, r.year, r.created_at,
		       d.status, d.process, d.leave_type_id, d.reason,
		       d.duration_minutes, d.duration_days,
		       d.canceled_by, d.canceled_at, d.cancel_reason
		FROM leave_requests r
		JOIN request_details d ON d.request_id = r.id
		WHERE r.member_id = ?
		ORDER BY r.start_date ASC`, member)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var out []engine.RequestRecord
	for rows.Next() {
		rec, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		out[i].Approvers, err = s.loadApprovers(ctx, out[i].Request.ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (engine.RequestRecord, error) {
	var rec engine.RequestRecord
	var start, end, createdAt string
	var minutes, days string
	var canceledBy sql.NullString
	var canceledAt sql.NullString

	err := row.Scan(
		&rec.Request.ID, &rec.Request.MemberID, &rec.Request.WorkspaceID,
		&start, &end, &rec.Request.StartAt, &rec.Request.EndAt,
		&rec.Request.Unit, &rec.Request.Year, &createdAt,
		&rec.Detail.Status, &rec.Detail.Process, &rec.Detail.LeaveTypeID, &rec.Detail.Reason,
		&minutes, &days,
		&canceledBy, &canceledAt, &rec.Detail.CancelReason)
	if err != nil {
		return engine.RequestRecord{}, err
	}

	if rec.Request.Start, err = engine.ParseDate(start); err != nil {
		return engine.RequestRecord{}, fmt.Errorf("bad start_date %q: %w", start, err)
	}
	if rec.Request.End, err = engine.ParseDate(end); err != nil {
		return engine.RequestRecord{}, fmt.Errorf("bad end_date %q: %w", end, err)
	}
	if rec.Request.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return engine.RequestRecord{}, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	if rec.Detail.Duration.Minutes, err = decimal.NewFromString(minutes); err != nil {
		return engine.RequestRecord{}, fmt.Errorf("bad duration_minutes %q: %w", minutes, err)
	}
	if rec.Detail.Duration.Days, err = decimal.NewFromString(days); err != nil {
		return engine.RequestRecord{}, fmt.Errorf("bad duration_days %q: %w", days, err)
	}
	if canceledBy.Valid {
		id := engine.MemberID(canceledBy.String)
		rec.Detail.CanceledBy = &id
	}
	if canceledAt.Valid {
		t, err := time.Parse(time.RFC3339, canceledAt.String)
		if err != nil {
			return engine.RequestRecord{}, fmt.Errorf("bad canceled_at %q: %w", canceledAt.String, err)
		}
		rec.Detail.CanceledAt = &t
	}
	rec.Detail.RequestID = rec.Request.ID
	return rec, nil
}

func (s *Store) loadApprovers(ctx context.Context, id engine.RequestID) ([]engine.RequestApprover, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, approver_id, predecessor_id, status, comment, decided_at
		FROM request_approvers
		WHERE request_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load approvers: %w", err)
	}
	defer rows.Close()

	var out []engine.RequestApprover
	for rows.Next() {
		a := engine.RequestApprover{RequestID: id}
		var pred, decidedAt sql.NullString
		if err := rows.Scan(&a.ID, &a.ApproverID, &pred, &a.Status, &a.Comment, &decidedAt); err != nil {
			return nil, err
		}
		if pred.Valid {
			p := engine.MemberID(pred.String)
			a.PredecessorID = &p
		}
		if decidedAt.Valid {
			t, err := time.Parse(time.RFC3339, decidedAt.String)
			if err != nil {
				return nil, fmt.Errorf("bad decided_at %q: %w", decidedAt.String, err)
			}
			a.DecidedAt = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertDetail(ctx context.Context, db execer, d engine.RequestDetail) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO request_details
		(request_id, status, process, leave_type_id, reason,
		 duration_minutes, duration_days, canceled_by, canceled_at, cancel_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.RequestID, d.Status, d.Process, d.LeaveTypeID, d.Reason,
		d.Duration.Minutes.String(), d.Duration.Days.String(),
		nullMemberID(d.CanceledBy), nullTime(d.CanceledAt), d.CancelReason)
	if err != nil {
		return fmt.Errorf("failed to insert detail: %w", err)
	}
	return nil
}

func insertApprovers(ctx context.Context, db execer, id engine.RequestID, rows []engine.RequestApprover) error {
	for _, a := range rows {
		var pred any
		if a.PredecessorID != nil {
			pred = string(*a.PredecessorID)
		}
		_, err := db.ExecContext(ctx, `
			INSERT INTO request_approvers
			(id, request_id, approver_id, predecessor_id, status, comment, decided_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, id, a.ApproverID, pred, a.Status, a.Comment, nullTime(a.DecidedAt))
		if err != nil {
			return fmt.Errorf("failed to insert approver: %w", err)
		}
	}
	return nil
}

// =============================================================================
// ALLOWANCES
// =============================================================================

func (s *Store) ListAllowances(ctx context.Context, member engine.MemberID) ([]engine.MemberAllowance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT member_id, workspace_id, allowance_type_id, year,
		       allowance, brought_forward, compensatory, taken, remaining
		FROM member_allowances
		WHERE member_id = ?
		ORDER BY allowance_type_id, year`, member)
	if err != nil {
		return nil, fmt.Errorf("failed to list allowances: %w", err)
	}
	defer rows.Close()

	var out []engine.MemberAllowance
	for rows.Next() {
		var a engine.MemberAllowance
		var allowance, brought, comp, taken, remaining string
		if err := rows.Scan(&a.MemberID, &a.WorkspaceID, &a.AllowanceTypeID, &a.Year,
			&allowance, &brought, &comp, &taken, &remaining); err != nil {
			return nil, err
		}
		if a.Allowance, err = decimal.NewFromString(allowance); err != nil {
			return nil, fmt.Errorf("bad allowance %q: %w", allowance, err)
		}
		if a.BroughtForward, err = decimal.NewFromString(brought); err != nil {
			return nil, fmt.Errorf("bad brought_forward %q: %w", brought, err)
		}
		if a.Compensatory, err = decimal.NewFromString(comp); err != nil {
			return nil, fmt.Errorf("bad compensatory %q: %w", comp, err)
		}
		if a.Taken, err = decimal.NewFromString(taken); err != nil {
			return nil, fmt.Errorf("bad taken %q: %w", taken, err)
		}
		if a.Remaining, err = decimal.NewFromString(remaining); err != nil {
			return nil, fmt.Errorf("bad remaining %q: %w", remaining, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) SaveAllowances(ctx context.Context, rows []engine.MemberAllowance) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, a := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO member_allowances
			(member_id, workspace_id, allowance_type_id, year,
			 allowance, brought_forward, compensatory, taken, remaining)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (member_id, allowance_type_id, year) DO UPDATE SET
			 allowance = excluded.allowance,
			 brought_forward = excluded.brought_forward,
			 compensatory = excluded.compensatory,
			 taken = excluded.taken,
			 remaining = excluded.remaining`,
			a.MemberID, a.WorkspaceID, a.AllowanceTypeID, a.Year,
			a.Allowance.String(), a.BroughtForward.String(), a.Compensatory.String(),
			a.Taken.String(), a.Remaining.String())
		if err != nil {
			return fmt.Errorf("failed to upsert allowance: %w", err)
		}
	}
	return tx.Commit()
}

// =============================================================================
// SCHEDULES
// =============================================================================

func (s *Store) MemberSchedules(ctx context.Context, member engine.MemberID) ([]engine.MemberSchedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT valid_from, week_json FROM member_schedules
		WHERE member_id = ? ORDER BY valid_from`, member)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules: %w", err)
	}
	defer rows.Close()

	var out []engine.MemberSchedule
	for rows.Next() {
		var validFrom, weekJSON string
		if err := rows.Scan(&validFrom, &weekJSON); err != nil {
			return nil, err
		}
		sched := engine.MemberSchedule{MemberID: member}
		if sched.ValidFrom, err = engine.ParseDate(validFrom); err != nil {
			return nil, fmt.Errorf("bad valid_from %q: %w", validFrom, err)
		}
		if err := json.Unmarshal([]byte(weekJSON), &sched.Week); err != nil {
			return nil, fmt.Errorf("bad week_json: %w", err)
		}
		out = append(out, sched)
	}
	return out, rows.Err()
}

func (s *Store) WorkspaceSchedule(ctx context.Context, workspace engine.WorkspaceID) (engine.WorkspaceSchedule, error) {
	var weekJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT week_json FROM workspace_schedules WHERE workspace_id = ?`, workspace).Scan(&weekJSON)
	if err == sql.ErrNoRows {
		// A workspace without a configured schedule yields an all-off week;
		// the duration calculator then prices every day at zero.
		return engine.WorkspaceSchedule{WorkspaceID: workspace}, nil
	}
	if err != nil {
		return engine.WorkspaceSchedule{}, fmt.Errorf("failed to load workspace schedule: %w", err)
	}

	ws := engine.WorkspaceSchedule{WorkspaceID: workspace}
	if err := json.Unmarshal([]byte(weekJSON), &ws.Week); err != nil {
		return engine.WorkspaceSchedule{}, fmt.Errorf("bad week_json: %w", err)
	}
	return ws, nil
}

func (s *Store) SaveMemberSchedule(ctx context.Context, sched engine.MemberSchedule) error {
	weekJSON, err := json.Marshal(sched.Week)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO member_schedules (member_id, valid_from, week_json)
		VALUES (?, ?, ?)
		ON CONFLICT (member_id, valid_from) DO UPDATE SET week_json = excluded.week_json`,
		sched.MemberID, sched.ValidFrom.String(), string(weekJSON))
	if err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}
	return nil
}

func (s *Store) SaveWorkspaceSchedule(ctx context.Context, ws engine.WorkspaceSchedule) error {
	weekJSON, err := json.Marshal(ws.Week)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workspace_schedules (workspace_id, week_json)
		VALUES (?, ?)
		ON CONFLICT (workspace_id) DO UPDATE SET week_json = excluded.week_json`,
		ws.WorkspaceID, string(weekJSON))
	if err != nil {
		return fmt.Errorf("failed to save workspace schedule: %w", err)
	}
	return nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) HolidaysInRange(ctx context.Context, calendar engine.CalendarID, r engine.DateRange) ([]engine.PublicHolidayDay, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, duration, name FROM public_holidays
		WHERE calendar_id = ? AND date >= ? AND date <= ?
		ORDER BY date`, calendar, r.Start.String(), r.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}
	defer rows.Close()

	var out []engine.PublicHolidayDay
	for rows.Next() {
		h := engine.PublicHolidayDay{CalendarID: calendar}
		var date string
		if err := rows.Scan(&date, &h.Duration, &h.Name); err != nil {
			return nil, err
		}
		if h.Date, err = engine.ParseDate(date); err != nil {
			return nil, fmt.Errorf("bad holiday date %q: %w", date, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// SaveHoliday upserts one calendar day.
func (s *Store) SaveHoliday(ctx context.Context, h engine.PublicHolidayDay) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO public_holidays (calendar_id, date, duration, name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (calendar_id, date) DO UPDATE SET
		 duration = excluded.duration, name = excluded.name`,
		h.CalendarID, h.Date.String(), h.Duration, h.Name)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

// =============================================================================
// MEMBERS AND CONFIGURATION
// =============================================================================

const memberColumns = `id, workspace_id, email, name, archived, is_admin, approval_process,
		       departments_json, approvers_json, calendar_id,
		       disabled_leave_types_json, uses_dept_defaults`

func scanMember(row rowScanner) (engine.Member, error) {
	var m engine.Member
	var departments, approvers, disabled string
	err := row.Scan(
		&m.ID, &m.WorkspaceID, &m.Email, &m.Name, &m.Archived, &m.IsAdmin, &m.ApprovalProcess,
		&departments, &approvers, &m.HolidayCalendarID,
		&disabled, &m.UsesDeptDefaults)
	if err != nil {
		return engine.Member{}, err
	}

	if err := json.Unmarshal([]byte(departments), &m.DepartmentIDs); err != nil {
		return engine.Member{}, fmt.Errorf("bad departments_json: %w", err)
	}
	if err := json.Unmarshal([]byte(approvers), &m.ApproverIDs); err != nil {
		return engine.Member{}, fmt.Errorf("bad approvers_json: %w", err)
	}
	if err := json.Unmarshal([]byte(disabled), &m.DisabledLeaveTypes); err != nil {
		return engine.Member{}, fmt.Errorf("bad disabled_leave_types_json: %w", err)
	}
	return m, nil
}

func (s *Store) GetMember(ctx context.Context, id engine.MemberID) (engine.Member, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return engine.Member{}, engine.ErrNotFound
	}
	if err != nil {
		return engine.Member{}, fmt.Errorf("failed to load member: %w", err)
	}
	return m, nil
}

func (s *Store) ListMembers(ctx context.Context) ([]engine.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memberColumns+` FROM members WHERE archived = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var out []engine.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) SaveMember(ctx context.Context, m engine.Member) error {
	departments, _ := json.Marshal(m.DepartmentIDs)
	approvers, _ := json.Marshal(m.ApproverIDs)
	disabled, _ := json.Marshal(m.DisabledLeaveTypes)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members
		(id, workspace_id, email, name, archived, is_admin, approval_process,
		 departments_json, approvers_json, calendar_id,
		 disabled_leave_types_json, uses_dept_defaults)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		 workspace_id = excluded.workspace_id,
		 email = excluded.email,
		 name = excluded.name,
		 archived = excluded.archived,
		 is_admin = excluded.is_admin,
		 approval_process = excluded.approval_process,
		 departments_json = excluded.departments_json,
		 approvers_json = excluded.approvers_json,
		 calendar_id = excluded.calendar_id,
		 disabled_leave_types_json = excluded.disabled_leave_types_json,
		 uses_dept_defaults = excluded.uses_dept_defaults`,
		m.ID, m.WorkspaceID, m.Email, m.Name, m.Archived, m.IsAdmin, m.ApprovalProcess,
		string(departments), string(approvers), m.HolidayCalendarID,
		string(disabled), m.UsesDeptDefaults)
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

func (s *Store) DepartmentApprovers(ctx context.Context, dept engine.DepartmentID) ([]engine.MemberID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT approver_id FROM department_approvers
		WHERE department_id = ? ORDER BY position`, dept)
	if err != nil {
		return nil, fmt.Errorf("failed to load department approvers: %w", err)
	}
	defer rows.Close()

	var out []engine.MemberID
	for rows.Next() {
		var id engine.MemberID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SetDepartmentApprovers replaces the department's default list.
func (s *Store) SetDepartmentApprovers(ctx context.Context, dept engine.DepartmentID, approvers []engine.MemberID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM department_approvers WHERE department_id = ?`, dept); err != nil {
		return fmt.Errorf("failed to clear department approvers: %w", err)
	}
	for i, id := range approvers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO department_approvers (department_id, position, approver_id)
			VALUES (?, ?, ?)`, dept, i, id); err != nil {
			return fmt.Errorf("failed to insert department approver: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetLeaveType(ctx context.Context, id engine.LeaveTypeID) (engine.LeaveType, error) {
	var lt engine.LeaveType
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, unit, take_from_allowance, ignore_schedule,
		       ignore_public_holidays, needs_approval, reason_required, allowance_type_id
		FROM leave_types WHERE id = ?`, id).Scan(
		&lt.ID, &lt.Name, &lt.Unit, &lt.TakeFromAllowance, &lt.IgnoreSchedule,
		&lt.IgnorePublicHolidays, &lt.NeedsApproval, &lt.ReasonRequired, &lt.AllowanceTypeID)
	if err == sql.ErrNoRows {
		return engine.LeaveType{}, engine.ErrNotFound
	}
	if err != nil {
		return engine.LeaveType{}, fmt.Errorf("failed to load leave type: %w", err)
	}
	return lt, nil
}

// SaveLeaveType upserts a leave type.
func (s *Store) SaveLeaveType(ctx context.Context, lt engine.LeaveType) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_types
		(id, name, unit, take_from_allowance, ignore_schedule,
		 ignore_public_holidays, needs_approval, reason_required, allowance_type_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		 name = excluded.name,
		 unit = excluded.unit,
		 take_from_allowance = excluded.take_from_allowance,
		 ignore_schedule = excluded.ignore_schedule,
		 ignore_public_holidays = excluded.ignore_public_holidays,
		 needs_approval = excluded.needs_approval,
		 reason_required = excluded.reason_required,
		 allowance_type_id = excluded.allowance_type_id`,
		lt.ID, lt.Name, lt.Unit, lt.TakeFromAllowance, lt.IgnoreSchedule,
		lt.IgnorePublicHolidays, lt.NeedsApproval, lt.ReasonRequired, lt.AllowanceTypeID)
	if err != nil {
		return fmt.Errorf("failed to save leave type: %w", err)
	}
	return nil
}

func (s *Store) GetAllowanceType(ctx context.Context, id engine.AllowanceTypeID) (engine.AllowanceType, error) {
	var at engine.AllowanceType
	var maxCarry string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, unit, ignore_allowance_limit, max_carry_forward
		FROM allowance_types WHERE id = ?`, id).Scan(
		&at.ID, &at.Name, &at.Unit, &at.IgnoreAllowanceLimit, &maxCarry)
	if err == sql.ErrNoRows {
		return engine.AllowanceType{}, engine.ErrNotFound
	}
	if err != nil {
		return engine.AllowanceType{}, fmt.Errorf("failed to load allowance type: %w", err)
	}
	if at.MaxCarryForward, err = decimal.NewFromString(maxCarry); err != nil {
		return engine.AllowanceType{}, fmt.Errorf("bad max_carry_forward %q: %w", maxCarry, err)
	}
	return at, nil
}

// SaveAllowanceType upserts an allowance type.
func (s *Store) SaveAllowanceType(ctx context.Context, at engine.AllowanceType) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO allowance_types
		(id, name, unit, ignore_allowance_limit, max_carry_forward)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		 name = excluded.name,
		 unit = excluded.unit,
		 ignore_allowance_limit = excluded.ignore_allowance_limit,
		 max_carry_forward = excluded.max_carry_forward`,
		at.ID, at.Name, at.Unit, at.IgnoreAllowanceLimit, at.MaxCarryForward.String())
	if err != nil {
		return fmt.Errorf("failed to save allowance type: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullMemberID(id *engine.MemberID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
