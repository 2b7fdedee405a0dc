package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"series-planner/internal/model"
	"series-planner/internal/repository/memory"
)

func date(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestEngine(now string) (*RecurrenceService, *memory.TaskStore) {
	store := memory.NewTaskStore()
	engine := NewRecurrenceService(store, zap.NewNop(), 0, 0)
	engine.now = func() time.Time { return date(now) }
	return engine, store
}

func seedRoot(t *testing.T, store *memory.TaskStore, task model.Task) *model.Task {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), &task))
	return &task
}

func childDates(t *testing.T, store *memory.TaskStore, rootID uint) []string {
	t.Helper()
	children, err := store.GetChildren(context.Background(), rootID)
	require.NoError(t, err)
	dates := make([]string, len(children))
	for i, c := range children {
		dates[i] = c.Date
	}
	return dates
}

func TestRefreshWindowNoopForNonRecurring(t *testing.T) {
	engine, store := newTestEngine("2024-01-01")
	root := seedRoot(t, store, model.Task{Name: "one-off", Date: "2024-01-01", RecurrenceType: model.RecurrenceNone})

	require.NoError(t, engine.RefreshWindow(context.Background(), root, 90))
	assert.Empty(t, childDates(t, store, root.ID))
}

func TestRefreshWindowDailyBoundedByEndDate(t *testing.T) {
	engine, store := newTestEngine("2024-01-01")
	end := "2024-01-05"
	root := seedRoot(t, store, model.Task{
		Name:              "water plants",
		Date:              "2024-01-01",
		RecurrenceType:    model.RecurrenceDaily,
		RecurrenceEndDate: &end,
	})

	require.NoError(t, engine.RefreshWindow(context.Background(), root, 90))
	assert.Equal(t, []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}, childDates(t, store, root.ID))
}

func TestRefreshWindowIdempotent(t *testing.T) {
	engine, store := newTestEngine("2024-01-01")
	root := seedRoot(t, store, model.Task{Name: "standup", Date: "2024-01-01", RecurrenceType: model.RecurrenceWeekly})

	require.NoError(t, engine.RefreshWindow(context.Background(), root, 90))
	first := childDates(t, store, root.ID)
	require.NotEmpty(t, first)

	require.NoError(t, engine.RefreshWindow(context.Background(), root, 90))
	assert.Equal(t, first, childDates(t, store, root.ID))

	seen := make(map[string]struct{})
	for _, d := range first {
		_, dup := seen[d]
		assert.False(t, dup, "duplicate date %s", d)
		seen[d] = struct{}{}
	}
}

func TestRefreshWindowMonthlyClampDoesNotDrift(t *testing.T) {
	engine, store := newTestEngine("2024-01-31")
	root := seedRoot(t, store, model.Task{Name: "pay rent", Date: "2024-01-31", RecurrenceType: model.RecurrenceMonthly})

	require.NoError(t, engine.RefreshWindow(context.Background(), root, 120))

	// Leap-year February clamps to the 29th, then March snaps back to the
	// 31st instead of drifting onto the clamped value.
	assert.Equal(t, []string{"2024-02-29", "2024-03-31", "2024-04-30"}, childDates(t, store, root.ID))
}

func TestRefreshWindowMonthlyNonLeapFebruary(t *testing.T) {
	engine, store := newTestEngine("2025-01-31")
	root := seedRoot(t, store, model.Task{Name: "pay rent", Date: "2025-01-31", RecurrenceType: model.RecurrenceMonthly})

	require.NoError(t, engine.RefreshWindow(context.Background(), root, 120))
	assert.Equal(t, []string{"2025-02-28", "2025-03-31", "2025-04-30", "2025-05-31"}, childDates(t, store, root.ID))
}

func TestRefreshWindowWeeklyBoundaryInclusive(t *testing.T) {
	engine, store := newTestEngine("2024-01-01")
	root := seedRoot(t, store, model.Task{Name: "review", Date: "2024-01-01", RecurrenceType: model.RecurrenceWeekly})

	require.NoError(t, engine.RefreshWindow(context.Background(), root, 21))

	// The horizon date itself is included: cursor <= end.
	assert.Equal(t, []string{"2024-01-08", "2024-01-15", "2024-01-22"}, childDates(t, store, root.ID))
}

func TestRefreshWindowRefillTriggersBelowThreshold(t *testing.T) {
	engine, store := newTestEngine("2024-01-01")
	root := seedRoot(t, store, model.Task{Name: "journal", Date: "2024-01-01", RecurrenceType: model.RecurrenceDaily})

	require.NoError(t, engine.RefreshWindow(context.Background(), root, 90))
	initial := childDates(t, store, root.ID)
	require.Equal(t, "2024-03-31", initial[len(initial)-1])

	// 60 days of horizon left: above the threshold, nothing happens.
	engine.now = func() time.Time { return date("2024-01-31") }
	require.NoError(t, engine.RefreshWindow(context.Background(), root, 90))
	assert.Len(t, childDates(t, store, root.ID), len(initial))

	// 10 days left: the window is extended out to today+90.
	engine.now = func() time.Time { return date("2024-03-21") }
	require.NoError(t, engine.RefreshWindow(context.Background(), root, 90))
	refilled := childDates(t, store, root.ID)
	assert.Greater(t, len(refilled), len(initial))
	assert.Equal(t, "2024-06-19", refilled[len(refilled)-1])
}

func TestRefreshWindowSkipsUnknownRecurrenceType(t *testing.T) {
	engine, store := newTestEngine("2024-01-01")
	// Simulates a legacy or hand-edited row that bypassed boundary
	// validation; the walk must terminate without writing anything.
	root := seedRoot(t, store, model.Task{
		Name:           "legacy",
		Date:           "2024-01-01",
		RecurrenceType: model.RecurrenceType("YEARLY"),
	})

	require.NoError(t, engine.RefreshWindow(context.Background(), root, 90))
	assert.Empty(t, childDates(t, store, root.ID))
}

func TestRefreshWindowSkipsUnknownRecurrenceTypeOnRefill(t *testing.T) {
	engine, store := newTestEngine("2024-01-01")
	root := seedRoot(t, store, model.Task{
		Name:           "legacy",
		Date:           "2024-01-01",
		RecurrenceType: model.RecurrenceType("YEARLY"),
	})
	rootID := root.ID
	child := model.Task{Name: "legacy", Date: "2024-01-05", ParentTaskID: &rootID}
	require.NoError(t, store.Create(context.Background(), &child))

	// Horizon is below the refill threshold, so the refill path runs and
	// must bail out the same way the initial path does.
	require.NoError(t, engine.RefreshWindow(context.Background(), root, 90))
	assert.Len(t, childDates(t, store, root.ID), 1)
}

func TestRefreshWindowSkipsMalformedRootDate(t *testing.T) {
	engine, store := newTestEngine("2024-01-01")
	root := seedRoot(t, store, model.Task{Name: "broken", Date: "01/02/2024", RecurrenceType: model.RecurrenceDaily})

	require.NoError(t, engine.RefreshWindow(context.Background(), root, 90))
	assert.Empty(t, childDates(t, store, root.ID))
}

func TestRefreshWindowSkipsMalformedEndDate(t *testing.T) {
	engine, store := newTestEngine("2024-01-01")
	end := "soon"
	root := seedRoot(t, store, model.Task{
		Name:              "broken",
		Date:              "2024-01-01",
		RecurrenceType:    model.RecurrenceDaily,
		RecurrenceEndDate: &end,
	})

	require.NoError(t, engine.RefreshWindow(context.Background(), root, 90))
	assert.Empty(t, childDates(t, store, root.ID))
}

func TestGeneratedChildrenAreNonRecurringCopies(t *testing.T) {
	engine, store := newTestEngine("2024-01-01")
	end := "2024-01-03"
	categoryID := uint(7)
	root := seedRoot(t, store, model.Task{
		Name:              "gym",
		Description:       "leg day",
		Date:              "2024-01-01",
		Time:              "18:30",
		Priority:          model.PriorityHigh,
		CategoryID:        &categoryID,
		Tags:              "fitness",
		Attachments:       "plan.pdf",
		NotifyEnabled:     true,
		RecurrenceType:    model.RecurrenceDaily,
		RecurrenceEndDate: &end,
		IsCompleted:       true,
	})

	require.NoError(t, engine.RefreshWindow(context.Background(), root, 90))
	children, err := store.GetChildren(context.Background(), root.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)

	for _, child := range children {
		assert.Equal(t, root.Name, child.Name)
		assert.Equal(t, root.Description, child.Description)
		assert.Equal(t, root.Time, child.Time)
		assert.Equal(t, root.Priority, child.Priority)
		assert.Equal(t, root.CategoryID, child.CategoryID)
		assert.Equal(t, root.Tags, child.Tags)
		assert.Equal(t, root.Attachments, child.Attachments)
		assert.Equal(t, root.NotifyEnabled, child.NotifyEnabled)
		assert.Equal(t, model.RecurrenceNone, child.RecurrenceType)
		assert.False(t, child.IsCompleted)
		require.NotNil(t, child.ParentTaskID)
		assert.Equal(t, root.ID, *child.ParentTaskID)
		assert.NotZero(t, child.ID)
	}
}

// countingStore tracks delete calls on top of a real store.
type countingStore struct {
	TaskStore
	deletes int
}

func (s *countingStore) Delete(ctx context.Context, task *model.Task) error {
	s.deletes++
	return s.TaskStore.Delete(ctx, task)
}

func TestDeleteSeriesCascadesFromChild(t *testing.T) {
	engine, store := newTestEngine("2024-01-01")
	end := "2024-01-06"
	root := seedRoot(t, store, model.Task{
		Name:              "meds",
		Date:              "2024-01-01",
		RecurrenceType:    model.RecurrenceDaily,
		RecurrenceEndDate: &end,
	})
	require.NoError(t, engine.RefreshWindow(context.Background(), root, 90))

	children, err := store.GetChildren(context.Background(), root.ID)
	require.NoError(t, err)
	require.Len(t, children, 5)

	counting := &countingStore{TaskStore: store}
	engine.store = counting

	require.NoError(t, engine.DeleteSeries(context.Background(), children[2].ID))

	assert.Equal(t, 6, counting.deletes)
	remaining, err := store.GetByID(context.Background(), root.ID)
	require.NoError(t, err)
	assert.Nil(t, remaining)
	assert.Empty(t, childDates(t, store, root.ID))
}

func TestDeleteSeriesUnknownIDIsNoop(t *testing.T) {
	engine, _ := newTestEngine("2024-01-01")
	assert.NoError(t, engine.DeleteSeries(context.Background(), 12345))
}

func TestUpdateSeriesSkipsPastAndCompleted(t *testing.T) {
	engine, store := newTestEngine("2024-06-15")
	root := seedRoot(t, store, model.Task{Name: "run", Date: "2024-06-01", RecurrenceType: model.RecurrenceDaily})

	rootID := root.ID
	past := model.Task{Name: "run", Date: "2024-06-14", ParentTaskID: &rootID}
	today := model.Task{Name: "run", Date: "2024-06-15", ParentTaskID: &rootID}
	done := model.Task{Name: "run", Date: "2024-06-16", ParentTaskID: &rootID, IsCompleted: true}
	require.NoError(t, store.Create(context.Background(), &past))
	require.NoError(t, store.Create(context.Background(), &today))
	require.NoError(t, store.Create(context.Background(), &done))

	err := engine.UpdateSeries(context.Background(), today.ID, func(task model.Task) model.Task {
		task.Name = "sprint"
		return task
	})
	require.NoError(t, err)

	get := func(id uint) *model.Task {
		task, err := store.GetByID(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, task)
		return task
	}
	assert.Equal(t, "run", get(past.ID).Name, "past instance is historical record")
	assert.Equal(t, "sprint", get(today.ID).Name)
	assert.Equal(t, "run", get(done.ID).Name, "completed instance stays untouched")
	assert.Equal(t, "sprint", get(root.ID).Name, "incomplete root is updated too")
}

func TestUpdateSeriesLeavesCompletedRootAlone(t *testing.T) {
	engine, store := newTestEngine("2024-06-15")
	root := seedRoot(t, store, model.Task{Name: "run", Date: "2024-06-01", RecurrenceType: model.RecurrenceDaily, IsCompleted: true})

	rootID := root.ID
	future := model.Task{Name: "run", Date: "2024-06-20", ParentTaskID: &rootID}
	require.NoError(t, store.Create(context.Background(), &future))

	err := engine.UpdateSeries(context.Background(), root.ID, func(task model.Task) model.Task {
		task.Name = "sprint"
		return task
	})
	require.NoError(t, err)

	updatedRoot, err := store.GetByID(context.Background(), root.ID)
	require.NoError(t, err)
	assert.Equal(t, "run", updatedRoot.Name)

	updatedChild, err := store.GetByID(context.Background(), future.ID)
	require.NoError(t, err)
	assert.Equal(t, "sprint", updatedChild.Name)
}

func TestUpdateSeriesPinsIdentityFields(t *testing.T) {
	engine, store := newTestEngine("2024-06-15")
	root := seedRoot(t, store, model.Task{Name: "run", Date: "2024-06-01", RecurrenceType: model.RecurrenceDaily})

	rootID := root.ID
	future := model.Task{Name: "run", Date: "2024-06-20", ParentTaskID: &rootID, RecurrenceType: model.RecurrenceNone}
	require.NoError(t, store.Create(context.Background(), &future))

	newEnd := "2030-01-01"
	err := engine.UpdateSeries(context.Background(), future.ID, func(task model.Task) model.Task {
		task.Date = "1999-01-01"
		task.IsCompleted = true
		task.ParentTaskID = nil
		task.RecurrenceType = model.RecurrenceWeekly
		task.RecurrenceEndDate = &newEnd
		task.Name = "sprint"
		return task
	})
	require.NoError(t, err)

	updated, err := store.GetByID(context.Background(), future.ID)
	require.NoError(t, err)
	assert.Equal(t, "sprint", updated.Name)
	assert.Equal(t, "2024-06-20", updated.Date)
	assert.False(t, updated.IsCompleted)
	require.NotNil(t, updated.ParentTaskID)
	assert.Equal(t, rootID, *updated.ParentTaskID)
	assert.Equal(t, model.RecurrenceNone, updated.RecurrenceType, "a bulk edit cannot stamp a rule onto an instance")
	assert.Nil(t, updated.RecurrenceEndDate)

	updatedRoot, err := store.GetByID(context.Background(), rootID)
	require.NoError(t, err)
	assert.Equal(t, model.RecurrenceDaily, updatedRoot.RecurrenceType, "the root keeps its rule")
}

func TestUpdateSeriesUnknownIDIsNoop(t *testing.T) {
	engine, _ := newTestEngine("2024-06-15")
	err := engine.UpdateSeries(context.Background(), 999, func(task model.Task) model.Task { return task })
	assert.NoError(t, err)
}

func TestIsRecurringTask(t *testing.T) {
	engine, store := newTestEngine("2024-01-01")

	root := seedRoot(t, store, model.Task{Name: "root", Date: "2024-01-01", RecurrenceType: model.RecurrenceDaily})
	rootID := root.ID
	child := model.Task{Name: "child", Date: "2024-01-02", ParentTaskID: &rootID}
	require.NoError(t, store.Create(context.Background(), &child))
	plain := seedRoot(t, store, model.Task{Name: "plain", Date: "2024-01-01", RecurrenceType: model.RecurrenceNone})

	cases := []struct {
		name string
		id   uint
		want bool
	}{
		{"recurring root", root.ID, true},
		{"generated child", child.ID, true},
		{"plain task", plain.ID, false},
		{"missing task", 999, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.IsRecurringTask(context.Background(), tc.id)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetParentTask(t *testing.T) {
	engine, store := newTestEngine("2024-01-01")

	root := seedRoot(t, store, model.Task{Name: "root", Date: "2024-01-01", RecurrenceType: model.RecurrenceDaily})
	rootID := root.ID
	child := model.Task{Name: "child", Date: "2024-01-02", ParentTaskID: &rootID}
	require.NoError(t, store.Create(context.Background(), &child))
	dangling := uint(404)
	orphan := model.Task{Name: "orphan", Date: "2024-01-03", ParentTaskID: &dangling}
	require.NoError(t, store.Create(context.Background(), &orphan))

	got, err := engine.GetParentTask(context.Background(), root.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, root.ID, got.ID)

	got, err = engine.GetParentTask(context.Background(), child.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, root.ID, got.ID)

	got, err = engine.GetParentTask(context.Background(), orphan.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "dangling parent reference resolves to nothing, not an error")

	got, err = engine.GetParentTask(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}
