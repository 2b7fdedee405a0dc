package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"series-planner/internal/model"
)

const (
	// DefaultWindowDays is the forward horizon, in days from the series
	// start, within which instances are pre-materialized.
	DefaultWindowDays = 90

	// DefaultRefillThresholdDays is the remaining-days trigger below which
	// the window is extended on the next refresh.
	DefaultRefillThresholdDays = 30
)

// TaskTransform describes a series-wide edit: it receives a copy of an
// instance and returns the edited version. Identity and rule fields (id,
// parent, date, completion, creation time, recurrence type and end date)
// are re-pinned after it runs, so a transform cannot move an instance
// between series, rewrite history, or change the series' rule.
type TaskTransform func(model.Task) model.Task

// RecurrenceService owns recurrence semantics: materializing series
// instances into a rolling window, keeping the window topped up, and
// series-wide update/delete/lookup.
type RecurrenceService struct {
	store      TaskStore
	log        *zap.Logger
	windowDays int
	refillDays int
	now        func() time.Time
}

// NewRecurrenceService builds the engine. windowDays and refillDays fall
// back to the defaults when non-positive.
func NewRecurrenceService(store TaskStore, log *zap.Logger, windowDays, refillDays int) *RecurrenceService {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if refillDays <= 0 {
		refillDays = DefaultRefillThresholdDays
	}
	return &RecurrenceService{
		store:      store,
		log:        log,
		windowDays: windowDays,
		refillDays: refillDays,
		now:        time.Now,
	}
}

// RefreshWindow tops up the generated window for one series root. It is
// idempotent: re-running against the same root and children creates no
// duplicate dates. windowDays <= 0 uses the configured default.
//
// A root without children gets its initial generation here; otherwise the
// window is extended only once the latest generated date is closer than the
// refill threshold.
func (s *RecurrenceService) RefreshWindow(ctx context.Context, root *model.Task, windowDays int) error {
	if root == nil || root.RecurrenceType == model.RecurrenceNone {
		return nil
	}
	if windowDays <= 0 {
		windowDays = s.windowDays
	}

	children, err := s.store.GetChildren(ctx, root.ID)
	if err != nil {
		return fmt.Errorf("load children of %d: %w", root.ID, err)
	}
	if len(children) == 0 {
		return s.generate(ctx, root, windowDays, nil)
	}

	existing := make(map[string]struct{}, len(children))
	var last time.Time
	haveLast := false
	for _, child := range children {
		existing[child.Date] = struct{}{}
		date, err := model.ParseDate(child.Date)
		if err != nil {
			s.log.Warn("child has malformed date, ignoring for horizon",
				zap.Uint("task_id", child.ID), zap.String("date", child.Date))
			continue
		}
		if !haveLast || date.After(last) {
			last = date
			haveLast = true
		}
	}
	if haveLast {
		today := model.DateOnly(s.now())
		daysUntilLast := int(last.Sub(today).Hours() / 24)
		if daysUntilLast >= s.refillDays {
			return nil
		}
	}

	return s.generate(ctx, root, windowDays, existing)
}

// generate walks forward from the root's date one period at a time and
// inserts every instance up to the horizon that is not already present.
func (s *RecurrenceService) generate(ctx context.Context, root *model.Task, windowDays int, existing map[string]struct{}) error {
	// Anything outside the closed enum would leave the cursor stuck at the
	// start date and the loop below unbounded.
	switch root.RecurrenceType {
	case model.RecurrenceDaily, model.RecurrenceWeekly, model.RecurrenceMonthly:
	default:
		s.log.Warn("root has unknown recurrence type, skipping generation",
			zap.Uint("task_id", root.ID), zap.String("recurrence", string(root.RecurrenceType)))
		return nil
	}

	start, err := model.ParseDate(root.Date)
	if err != nil {
		// Cannot schedule; leave the root alone rather than fail the cycle.
		s.log.Warn("root has malformed date, skipping generation",
			zap.Uint("task_id", root.ID), zap.String("date", root.Date))
		return nil
	}

	// The horizon rolls with the wall clock; otherwise a refill run could
	// never reach past the dates the initial run already produced.
	base := start
	if today := model.DateOnly(s.now()); today.After(base) {
		base = today
	}
	end := base.AddDate(0, 0, windowDays)
	if root.RecurrenceEndDate != nil && *root.RecurrenceEndDate != "" {
		until, err := model.ParseDate(*root.RecurrenceEndDate)
		if err != nil {
			s.log.Warn("root has malformed recurrence end date, skipping generation",
				zap.Uint("task_id", root.ID), zap.String("end_date", *root.RecurrenceEndDate))
			return nil
		}
		if until.Before(end) {
			end = until
		}
	}

	rootID := root.ID
	anchorDay := start.Day()
	created := 0
	for step := 1; ; step++ {
		cursor := advance(start, root.RecurrenceType, step, anchorDay)
		if cursor.After(end) {
			break
		}
		date := model.FormatDate(cursor)
		if _, ok := existing[date]; ok {
			continue
		}

		child := *root
		child.ID = 0
		child.Date = date
		child.ParentTaskID = &rootID
		child.IsCompleted = false
		// Children never carry the rule themselves; a scan for recurring
		// roots must not pick up generated instances.
		child.RecurrenceType = model.RecurrenceNone
		child.CreatedAt = s.now()
		child.UpdatedAt = time.Time{}

		if err := s.store.Create(ctx, &child); err != nil {
			return fmt.Errorf("insert instance %s of %d: %w", date, rootID, err)
		}
		created++
	}

	if created > 0 {
		s.log.Info("series window refilled",
			zap.Uint("task_id", rootID),
			zap.String("recurrence", string(root.RecurrenceType)),
			zap.Int("created", created))
	}
	return nil
}

// advance returns the date of instance number step. The monthly case
// anchors to the start date's original day-of-month every iteration and
// clamps to the target month's length, so a 31st-rooted series hits Feb
// 28/29 and returns to the 31st instead of drifting.
func advance(start time.Time, rule model.RecurrenceType, step, anchorDay int) time.Time {
	switch rule {
	case model.RecurrenceDaily:
		return start.AddDate(0, 0, step)
	case model.RecurrenceWeekly:
		return start.AddDate(0, 0, 7*step)
	case model.RecurrenceMonthly:
		first := time.Date(start.Year(), start.Month()+time.Month(step), 1, 0, 0, 0, 0, start.Location())
		day := anchorDay
		if last := daysInMonth(first.Month(), first.Year()); day > last {
			day = last
		}
		return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, start.Location())
	}
	return start
}

func daysInMonth(month time.Month, year int) int {
	// Move to next month, roll back a day.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	firstOfNextMonth := firstOfMonth.AddDate(0, 1, 0)
	lastOfMonth := firstOfNextMonth.AddDate(0, 0, -1)
	return lastOfMonth.Day()
}

// DeleteSeries removes the whole series the given task belongs to: every
// generated instance, then the root itself. Unknown ids are a silent no-op.
func (s *RecurrenceService) DeleteSeries(ctx context.Context, taskID uint) error {
	task, err := s.store.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("resolve task %d: %w", taskID, err)
	}
	if task == nil {
		return nil
	}

	rootID := task.RootID()
	children, err := s.store.GetChildren(ctx, rootID)
	if err != nil {
		return fmt.Errorf("load children of %d: %w", rootID, err)
	}
	for i := range children {
		if err := s.store.Delete(ctx, &children[i]); err != nil {
			return fmt.Errorf("delete instance %d: %w", children[i].ID, err)
		}
	}

	root := task
	if rootID != task.ID {
		root, err = s.store.GetByID(ctx, rootID)
		if err != nil {
			return fmt.Errorf("resolve root %d: %w", rootID, err)
		}
	}
	if root != nil {
		if err := s.store.Delete(ctx, root); err != nil {
			return fmt.Errorf("delete root %d: %w", root.ID, err)
		}
	}
	return nil
}

// UpdateSeries applies transform to the incomplete, not-yet-past instances
// of the series the given task belongs to, and to the root itself when the
// root is not completed. Completed or past instances are historical record
// and stay untouched.
func (s *RecurrenceService) UpdateSeries(ctx context.Context, taskID uint, transform TaskTransform) error {
	task, err := s.store.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("resolve task %d: %w", taskID, err)
	}
	if task == nil {
		return nil
	}

	rootID := task.RootID()
	root := task
	if rootID != task.ID {
		root, err = s.store.GetByID(ctx, rootID)
		if err != nil {
			return fmt.Errorf("resolve root %d: %w", rootID, err)
		}
	}

	children, err := s.store.GetChildren(ctx, rootID)
	if err != nil {
		return fmt.Errorf("load children of %d: %w", rootID, err)
	}

	today := model.DateOnly(s.now())
	for _, child := range children {
		if child.IsCompleted {
			continue
		}
		date, err := model.ParseDate(child.Date)
		if err != nil {
			s.log.Warn("child has malformed date, skipping bulk update",
				zap.Uint("task_id", child.ID), zap.String("date", child.Date))
			continue
		}
		if date.Before(today) {
			continue
		}
		updated := applyTransform(transform, child)
		if err := s.store.Update(ctx, &updated); err != nil {
			return fmt.Errorf("update instance %d: %w", child.ID, err)
		}
	}

	if root != nil && !root.IsCompleted {
		updated := applyTransform(transform, *root)
		if err := s.store.Update(ctx, &updated); err != nil {
			return fmt.Errorf("update root %d: %w", root.ID, err)
		}
	}
	return nil
}

func applyTransform(transform TaskTransform, task model.Task) model.Task {
	out := transform(task)
	out.ID = task.ID
	out.ParentTaskID = task.ParentTaskID
	out.Date = task.Date
	out.IsCompleted = task.IsCompleted
	out.CreatedAt = task.CreatedAt
	out.RecurrenceType = task.RecurrenceType
	out.RecurrenceEndDate = task.RecurrenceEndDate
	return out
}

// IsRecurringTask reports whether the task belongs to a series, either as
// its root or as a generated instance. Unknown ids are false.
func (s *RecurrenceService) IsRecurringTask(ctx context.Context, taskID uint) (bool, error) {
	task, err := s.store.GetByID(ctx, taskID)
	if err != nil {
		return false, fmt.Errorf("resolve task %d: %w", taskID, err)
	}
	if task == nil {
		return false, nil
	}
	return task.RecurrenceType != model.RecurrenceNone || task.ParentTaskID != nil, nil
}

// GetParentTask returns the series root for the given task: the task itself
// when it has no parent, otherwise the parent. A dangling parent reference
// yields (nil, nil), not an error.
func (s *RecurrenceService) GetParentTask(ctx context.Context, taskID uint) (*model.Task, error) {
	task, err := s.store.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("resolve task %d: %w", taskID, err)
	}
	if task == nil || task.ParentTaskID == nil {
		return task, nil
	}
	parent, err := s.store.GetByID(ctx, *task.ParentTaskID)
	if err != nil {
		return nil, fmt.Errorf("resolve parent %d: %w", *task.ParentTaskID, err)
	}
	return parent, nil
}
