package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/TWRT/buildtrack/internal/board"
	"github.com/TWRT/buildtrack/internal/models"
	"github.com/TWRT/buildtrack/internal/repository"
	"github.com/TWRT/buildtrack/internal/testutil"
)

func TestChangeStatus_OptimisticThenCanonical(t *testing.T) {
	mock := &testutil.MockTaskClient{}
	svc, journal := newLoadedService(t, mock)

	mock.UpdateTaskStatusFunc = func(ctx context.Context, id string, status models.Status) (*models.Task, error) {
		// The optimistic value is visible before the server answers.
		if got := statusOf(t, svc.Snapshot(), id); got != status {
			t.Errorf("expected optimistic %s during request, got %s", status, got)
		}
		return &models.Task{ID: id, Name: "Excavate", Status: status, PercentageComplete: 100}, nil
	}

	if err := svc.ChangeStatus(context.Background(), "1", models.StatusCompleted); err != nil {
		t.Fatalf("change status failed: %v", err)
	}

	got, _ := svc.Snapshot().Get("1")
	if got.Status != models.StatusCompleted || got.PercentageComplete != 100 {
		t.Errorf("expected canonical task, got %+v", got)
	}
	if len(journal.Entries) != 1 || journal.Entries[0].Outcome != repository.OutcomeConfirmed {
		t.Errorf("expected confirmed journal entry, got %+v", journal.Entries)
	}
}

func TestChangeStatus_InvalidStatusNoMutation(t *testing.T) {
	mock := &testutil.MockTaskClient{}
	svc, _ := newLoadedService(t, mock)
	before := svc.Snapshot().Tasks()

	err := svc.ChangeStatus(context.Background(), "1", "done")
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if mock.CallCount("UpdateTaskStatus") != 0 {
		t.Errorf("expected no network call")
	}
	if statusOf(t, svc.Snapshot(), "1") != before[0].Status {
		t.Errorf("expected no mutation")
	}
}

func TestChangeStatus_UnknownTask(t *testing.T) {
	mock := &testutil.MockTaskClient{}
	svc, _ := newLoadedService(t, mock)

	err := svc.ChangeStatus(context.Background(), "missing", models.StatusOnHold)
	var nf *models.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if mock.CallCount("UpdateTaskStatus") != 0 {
		t.Errorf("expected no network call")
	}
}

func TestChangeStatus_AnyTransitionAllowed(t *testing.T) {
	mock := &testutil.MockTaskClient{}
	svc, _ := newLoadedService(t, mock)

	// completed -> not_started is accepted like any other move.
	if err := svc.ChangeStatus(context.Background(), "2", models.StatusNotStarted); err != nil {
		t.Fatalf("expected move to be allowed, got %v", err)
	}
	if statusOf(t, svc.Snapshot(), "2") != models.StatusNotStarted {
		t.Errorf("expected not_started")
	}
}

func TestChangeStatus_PolicyRejects(t *testing.T) {
	mock := &testutil.MockTaskClient{}
	svc, _ := newLoadedService(t, mock)
	svc.SetTransitionPolicy(func(from, to models.Status) error {
		if from == models.StatusCompleted {
			return fmt.Errorf("completed tasks cannot move to %s", to)
		}
		return nil
	})

	err := svc.ChangeStatus(context.Background(), "2", models.StatusInProgress)
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if statusOf(t, svc.Snapshot(), "2") != models.StatusCompleted {
		t.Errorf("expected no mutation")
	}
}

func TestChangeStatus_FailureReloadsFromServer(t *testing.T) {
	mock := &testutil.MockTaskClient{}
	svc, journal := newLoadedService(t, mock)

	// The server still has task 2 in progress after rejecting the change.
	mock.ListTasksFunc = func(ctx context.Context, c models.Criteria, s models.SortConfig) ([]models.Task, error) {
		tasks := boardTasks()
		tasks[1].Status = models.StatusInProgress
		return tasks, nil
	}
	mock.UpdateTaskStatusFunc = func(ctx context.Context, id string, status models.Status) (*models.Task, error) {
		return nil, &models.NetworkError{Op: "update task status", Err: testutil.ErrMockNetwork}
	}

	if err := svc.ChangeStatus(context.Background(), "2", models.StatusOnHold); err != nil {
		t.Fatalf("expected self-healing failure, got %v", err)
	}

	if got := statusOf(t, svc.Snapshot(), "2"); got != models.StatusInProgress {
		t.Errorf("expected reloaded status in_progress, got %s", got)
	}
	if mock.CallCount("ListTasks") != 2 {
		t.Errorf("expected a full reload, got calls %v", mock.Calls())
	}
	if len(journal.Entries) != 1 || journal.Entries[0].Outcome != repository.OutcomeReloaded {
		t.Errorf("expected reloaded journal entry, got %+v", journal.Entries)
	}
}

func TestChangeStatus_ReloadFailureRevertsOptimisticValue(t *testing.T) {
	mock := &testutil.MockTaskClient{}
	svc, journal := newLoadedService(t, mock)

	mock.UpdateTaskStatusFunc = func(ctx context.Context, id string, status models.Status) (*models.Task, error) {
		return nil, &models.ServerError{StatusCode: 500}
	}
	mock.ListTasksFunc = func(ctx context.Context, c models.Criteria, s models.SortConfig) ([]models.Task, error) {
		return nil, &models.NetworkError{Op: "list tasks", Err: testutil.ErrMockNetwork}
	}

	err := svc.ChangeStatus(context.Background(), "1", models.StatusInProgress)
	if err == nil {
		t.Fatalf("expected error when reload fails")
	}
	if got := statusOf(t, svc.Snapshot(), "1"); got != models.StatusNotStarted {
		t.Errorf("expected pre-change status restored, got %s", got)
	}
	if journal.Entries[0].Outcome != repository.OutcomeReloadFailed {
		t.Errorf("expected reload_failed entry, got %+v", journal.Entries)
	}
}

func TestChangeStatus_StaleConfirmationIgnored(t *testing.T) {
	mock := &testutil.MockTaskClient{}
	svc, journal := newLoadedService(t, mock)

	first, err := svc.BeginStatusChange("1", models.StatusInProgress)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	second, err := svc.BeginStatusChange("1", models.StatusOnHold)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if second.Sequence <= first.Sequence {
		t.Fatalf("expected increasing sequence, got %d then %d", first.Sequence, second.Sequence)
	}

	mock.UpdateTaskStatusFunc = func(ctx context.Context, id string, status models.Status) (*models.Task, error) {
		return &models.Task{ID: id, Status: status}, nil
	}

	// The newer change is confirmed first; the older answer arrives late.
	if outcome, err := svc.CompleteStatusChange(context.Background(), second); err != nil || outcome != repository.OutcomeConfirmed {
		t.Fatalf("expected confirmed, got %q, %v", outcome, err)
	}
	if outcome, err := svc.CompleteStatusChange(context.Background(), first); err != nil || outcome != repository.OutcomeStale {
		t.Fatalf("expected stale, got %q, %v", outcome, err)
	}

	if got := statusOf(t, svc.Snapshot(), "1"); got != models.StatusOnHold {
		t.Errorf("expected newest status on_hold, got %s", got)
	}
	if len(journal.Entries) != 2 || journal.Entries[1].Outcome != repository.OutcomeStale {
		t.Errorf("expected stale entry for late answer, got %+v", journal.Entries)
	}
}

func TestChangeStatus_DifferentTasksIndependent(t *testing.T) {
	mock := &testutil.MockTaskClient{}
	svc, _ := newLoadedService(t, mock)

	a, _ := svc.BeginStatusChange("1", models.StatusInProgress)
	b, _ := svc.BeginStatusChange("2", models.StatusCancelled)

	mock.UpdateTaskStatusFunc = func(ctx context.Context, id string, status models.Status) (*models.Task, error) {
		return &models.Task{ID: id, Status: status}, nil
	}
	if _, err := svc.CompleteStatusChange(context.Background(), b); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if _, err := svc.CompleteStatusChange(context.Background(), a); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if statusOf(t, svc.Snapshot(), "1") != models.StatusInProgress ||
		statusOf(t, svc.Snapshot(), "2") != models.StatusCancelled {
		t.Errorf("expected both changes applied, got %+v", svc.Snapshot().Tasks())
	}
}

func TestCompleteStatusChange_ReportsReload(t *testing.T) {
	mock := &testutil.MockTaskClient{}
	svc, _ := newLoadedService(t, mock)

	mock.UpdateTaskStatusFunc = func(ctx context.Context, id string, status models.Status) (*models.Task, error) {
		return nil, &models.ServerError{StatusCode: 500}
	}

	tr, err := svc.BeginStatusChange("1", models.StatusOnHold)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	outcome, err := svc.CompleteStatusChange(context.Background(), tr)
	if err != nil {
		t.Fatalf("expected healed failure, got %v", err)
	}
	if outcome != repository.OutcomeReloaded {
		t.Errorf("expected reloaded outcome, got %q", outcome)
	}
}

func TestChangeStatus_ConcurrentFailuresKeepStoreConsistent(t *testing.T) {
	mock := &testutil.MockTaskClient{}
	svc, _ := newLoadedService(t, mock)

	var calls atomic.Int64
	mock.UpdateTaskStatusFunc = func(ctx context.Context, id string, status models.Status) (*models.Task, error) {
		if calls.Add(1)%2 == 0 {
			return nil, &models.ServerError{StatusCode: 500}
		}
		return &models.Task{ID: id, Name: "changed", Status: status}, nil
	}

	var notified atomic.Int64
	svc.Subscribe(func(board.Store) { notified.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		for _, id := range []string{"1", "2"} {
			wg.Add(1)
			go func(id string, i int) {
				defer wg.Done()
				status := models.Statuses[i%len(models.Statuses)]
				if err := svc.ChangeStatus(context.Background(), id, status); err != nil {
					t.Errorf("change %s failed: %v", id, err)
				}
			}(id, i)
		}
	}
	wg.Wait()

	if got := svc.Snapshot().Len(); got != 2 {
		t.Errorf("expected 2 tasks after concurrent changes, got %d", got)
	}
	if notified.Load() == 0 {
		t.Error("expected listeners to be notified")
	}
}
