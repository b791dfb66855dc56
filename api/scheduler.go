/*
scheduler.go - Automated year-end rollover scheduler

PURPOSE:
  Periodically sweeps all members and materializes the current fiscal
  year's allowance rows from the previous year's closing state, applying
  the carry-forward rule. Request creation already synthesizes missing
  rows on demand; the sweep makes balances visible before the member's
  first request of the year.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Skips members whose current-year row already exists
  - The sweep is idempotent: rerunning it never changes an existing row

USAGE:
  scheduler := NewRolloverScheduler(store, fiscal, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - engine/allowance.go: CarryForward and EnsureYear
  - handlers.go: Recompute endpoint (manual per-member rebuild)
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aasimdev/absentify-inhouse-sub002/engine"
)

// RolloverScheduler materializes new-year allowance rows in the background.
type RolloverScheduler struct {
	Store         engine.Store
	Fiscal        engine.FiscalConfig
	Log           *zap.Logger
	CheckInterval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewRolloverScheduler(store engine.Store, fiscal engine.FiscalConfig, log *zap.Logger) *RolloverScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &RolloverScheduler{
		Store:         store,
		Fiscal:        fiscal,
		Log:           log,
		CheckInterval: time.Hour,
		stop:          make(chan struct{}),
	}
}

// Start begins the background sweep.
func (rs *RolloverScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)
	go rs.run()

	rs.Log.Info("rollover scheduler started", zap.Duration("interval", rs.CheckInterval))
}

// Stop halts the scheduler and waits for an in-flight sweep to finish.
func (rs *RolloverScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.Log.Info("rollover scheduler stopped")
	}
}

// RunNow triggers an immediate sweep, for admin tooling and tests.
func (rs *RolloverScheduler) RunNow() {
	rs.sweep()
}

func (rs *RolloverScheduler) run() {
	defer rs.wg.Done()

	rs.sweep()
	for {
		select {
		case <-rs.ticker.C:
			rs.sweep()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RolloverScheduler) sweep() {
	ctx := context.Background()
	year := rs.Fiscal.YearFor(engine.DateOf(time.Now()))

	members, err := rs.Store.ListMembers(ctx)
	if err != nil {
		rs.Log.Error("rollover sweep: list members", zap.Error(err))
		return
	}

	rolled := 0
	for _, member := range members {
		n, err := rs.rolloverMember(ctx, member, year)
		if err != nil {
			rs.Log.Error("rollover sweep: member failed",
				zap.String("member", string(member.ID)), zap.Error(err))
			continue
		}
		rolled += n
	}
	if rolled > 0 {
		rs.Log.Info("rollover sweep completed",
			zap.Int("year", year), zap.Int("rows", rolled))
	}
}

// rolloverMember creates the member's current-year rows for every
// allowance type that has a previous-year row but no current one.
func (rs *RolloverScheduler) rolloverMember(ctx context.Context, member engine.Member, year int) (int, error) {
	rows, err := rs.Store.ListAllowances(ctx, member.ID)
	if err != nil {
		return 0, err
	}

	var fresh []engine.MemberAllowance
	for _, prev := range rows {
		if prev.Year != year-1 {
			continue
		}
		if _, exists := engine.EnsureYear(rows, member.ID, member.WorkspaceID, prev.AllowanceTypeID, year); exists {
			continue
		}
		at, err := rs.Store.GetAllowanceType(ctx, prev.AllowanceTypeID)
		if err != nil {
			return 0, err
		}
		row, _ := engine.EnsureYear(nil, member.ID, member.WorkspaceID, prev.AllowanceTypeID, year)
		row.BroughtForward = engine.CarryForward(prev, at)
		fresh = append(fresh, engine.Recompute([]engine.MemberAllowance{row}, nil)[0])
	}

	if len(fresh) == 0 {
		return 0, nil
	}
	if err := rs.Store.SaveAllowances(ctx, fresh); err != nil {
		return 0, err
	}
	return len(fresh), nil
}
