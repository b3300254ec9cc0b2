package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarydesk/internal/reminders"
	"github.com/mrlokans/librarydesk/internal/tasks"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, kind reminders.Kind) (reminders.SweepResult, error) {
	args := m.Called(kind)
	return args.Get(0).(reminders.SweepResult), args.Error(1)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Enqueue(ctx context.Context, task backlite.Task) (string, error) {
	args := m.Called(task)
	return args.String(0), args.Error(1)
}

func (m *mockQueue) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	args := m.Called(taskID)
	return args.Get(0).(backlite.TaskStatus), args.Error(1)
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestSweepsController_Inline(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", reminders.KindReminder).Return(reminders.SweepResult{RunID: "r1", Kind: reminders.KindReminder, Scanned: 3, Sent: 2, Failed: 1}, nil)
	runner.On("Run", reminders.KindOverdue).Return(reminders.SweepResult{}, reminders.ErrSweepRunning)

	router := NewRouter(RouterConfig{Sweeps: runner})

	w := serve(router, "POST", "/api/sweeps/reminder")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"run_id":"r1"`)

	w = serve(router, "POST", "/api/sweeps/overdue")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(router, "POST", "/api/sweeps/weekly")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	runner.AssertExpectations(t)
}

func TestSweepsController_InlineFailure(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", reminders.KindOverdue).Return(reminders.SweepResult{}, errors.New("store closed"))

	w := serve(NewRouter(RouterConfig{Sweeps: runner}), "POST", "/api/sweeps/overdue")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "store closed")
}

func TestSweepsController_Queued(t *testing.T) {
	queue := &mockQueue{}
	queue.On("Enqueue", tasks.SweepTask{Kind: reminders.KindOverdue, RequestedBy: "api"}).Return("task-1", nil)
	runner := &mockRunner{}

	router := NewRouter(RouterConfig{Sweeps: runner, TaskQueue: queue, Tasks: queue})

	w := serve(router, "POST", "/api/sweeps/overdue")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"task_id":"task-1"`)

	queue.AssertExpectations(t)
	runner.AssertNotCalled(t, "Run", mock.Anything)
}

func TestTasksController_GetTaskStatus(t *testing.T) {
	queue := &mockQueue{}
	queue.On("Status", "task-1").Return(backlite.TaskStatusSuccess, nil)
	queue.On("Status", "missing").Return(backlite.TaskStatusNotFound, nil)
	queue.On("Status", "broken").Return(backlite.TaskStatusPending, errors.New("db closed"))

	router := NewRouter(RouterConfig{Tasks: queue})

	w := serve(router, "GET", "/api/tasks/task-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"success"`)

	w = serve(router, "GET", "/api/tasks/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, "GET", "/api/tasks/broken")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTaskStatusToString(t *testing.T) {
	assert.Equal(t, "pending", taskStatusToString(backlite.TaskStatusPending))
	assert.Equal(t, "running", taskStatusToString(backlite.TaskStatusRunning))
	assert.Equal(t, "failure", taskStatusToString(backlite.TaskStatusFailure))
}

func TestRouter_ReadOnly(t *testing.T) {
	runner := &mockRunner{}
	router := NewRouter(RouterConfig{Sweeps: runner, ReadOnly: true})

	w := serve(router, "POST", "/api/sweeps/reminder")
	assert.Equal(t, http.StatusForbidden, w.Code)
	runner.AssertNotCalled(t, "Run", mock.Anything)

	w = serve(router, "GET", "/ping")
	assert.Equal(t, http.StatusOK, w.Code)
}
