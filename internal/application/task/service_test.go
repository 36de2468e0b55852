package task

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskhive-api/internal/domain"
)

// --- mocks ---

type mockTaskStore struct{ mock.Mock }

func (m *mockTaskStore) Put(ctx context.Context, t *domain.Task) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockTaskStore) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	args := m.Called(ctx, userID, taskID)
	if t, _ := args.Get(0).(*domain.Task); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTaskStore) ListByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	args := m.Called(ctx, userID)
	if ts, _ := args.Get(0).([]domain.Task); ts != nil {
		return ts, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTaskStore) Update(ctx context.Context, userID, taskID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, taskID, updates).Error(0)
}
func (m *mockTaskStore) SoftDelete(ctx context.Context, userID, taskID string) error {
	return m.Called(ctx, userID, taskID).Error(0)
}

type mockObjectStore struct{ mock.Mock }

func (m *mockObjectStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	return m.Called(ctx, key, r, contentType).Error(0)
}
func (m *mockObjectStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if rc, _ := args.Get(0).(io.ReadCloser); rc != nil {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, ev domain.TaskEvent) error {
	return m.Called(ctx, ev).Error(0)
}

// --- helpers ---

func openTask(taskID, title string, dueAt *time.Time) domain.Task {
	now := time.Now().UTC()
	return domain.Task{
		UserID:    "user-123",
		TaskID:    taskID,
		Title:     title,
		Status:    domain.TaskStatusOpen,
		DueAt:     dueAt,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func timePtr(t time.Time) *time.Time { return &t }

// --- Create ---

func TestCreate_PublishesEvent(t *testing.T) {
	repo, obj, pub := &mockTaskStore{}, &mockObjectStore{}, &mockPublisher{}
	svc := NewService(repo, obj, pub)

	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.Task")).Return(nil)
	pub.On("Publish", mock.Anything, mock.AnythingOfType("domain.TaskEvent")).Return(nil)

	created, err := svc.Create(context.Background(), "user-123", domain.CreateTaskRequest{
		Title: "write report", DueAt: "2026-09-01T12:00:00Z",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, created.TaskID)
	assert.Equal(t, domain.TaskStatusOpen, created.Status)
	require.NotNil(t, created.DueAt)
	pub.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(ev domain.TaskEvent) bool {
		return ev.Type == "task.created" && ev.TaskID == created.TaskID && ev.UserID == "user-123"
	}))
}

func TestCreate_BadDueAt_BadRequest(t *testing.T) {
	repo, obj, pub := &mockTaskStore{}, &mockObjectStore{}, &mockPublisher{}
	svc := NewService(repo, obj, pub)

	_, err := svc.Create(context.Background(), "user-123", domain.CreateTaskRequest{
		Title: "write report", DueAt: "tomorrow",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreate_PublishFailure_DoesNotFailRequest(t *testing.T) {
	repo, obj, pub := &mockTaskStore{}, &mockObjectStore{}, &mockPublisher{}
	svc := NewService(repo, obj, pub)

	repo.On("Put", mock.Anything, mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("sns unavailable"))

	_, err := svc.Create(context.Background(), "user-123", domain.CreateTaskRequest{Title: "t"})

	require.NoError(t, err)
}

func TestCreate_NilPublisher_OK(t *testing.T) {
	repo, obj := &mockTaskStore{}, &mockObjectStore{}
	svc := NewService(repo, obj, nil)

	repo.On("Put", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Create(context.Background(), "user-123", domain.CreateTaskRequest{Title: "t"})

	require.NoError(t, err)
}

// --- List ---

func TestList_FiltersByStatusAndDueBefore(t *testing.T) {
	repo, obj, pub := &mockTaskStore{}, &mockObjectStore{}, &mockPublisher{}
	svc := NewService(repo, obj, pub)

	soon := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	done := openTask("t2", "done task", timePtr(soon))
	done.Status = domain.TaskStatusDone
	repo.On("ListByUser", mock.Anything, "user-123").Return([]domain.Task{
		openTask("t1", "due soon", timePtr(soon)),
		done,
		openTask("t3", "due later", timePtr(later)),
		openTask("t4", "no due date", nil),
	}, nil)

	cutoff := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	tasks, err := svc.List(context.Background(), "user-123", ListFilter{
		Status: domain.TaskStatusOpen, DueBefore: &cutoff,
	})

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].TaskID)
}

func TestList_NoFilter_ReturnsAllSorted(t *testing.T) {
	repo, obj, pub := &mockTaskStore{}, &mockObjectStore{}, &mockPublisher{}
	svc := NewService(repo, obj, pub)

	repo.On("ListByUser", mock.Anything, "user-123").Return([]domain.Task{
		openTask("t2", "b", nil),
		openTask("t1", "a", nil),
	}, nil)

	tasks, err := svc.List(context.Background(), "user-123", ListFilter{})

	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t1", tasks[0].TaskID)
	assert.Equal(t, "t2", tasks[1].TaskID)
}

// --- Update / Delete ---

func TestUpdate_ClearDueAt_RendersRemove(t *testing.T) {
	repo, obj, pub := &mockTaskStore{}, &mockObjectStore{}, &mockPublisher{}
	svc := NewService(repo, obj, pub)

	existing := openTask("t1", "a", timePtr(time.Now()))
	repo.On("Get", mock.Anything, "user-123", "t1").Return(&existing, nil)

	var updates map[string]interface{}
	repo.On("Update", mock.Anything, "user-123", "t1", mock.Anything).
		Run(func(args mock.Arguments) { updates = args.Get(3).(map[string]interface{}) }).
		Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	empty := ""
	_, err := svc.Update(context.Background(), "user-123", "t1", domain.UpdateTaskRequest{DueAt: &empty})

	require.NoError(t, err)
	require.NotNil(t, updates)
	val, ok := updates[fieldDueAt]
	assert.True(t, ok)
	assert.Nil(t, val)
}

func TestUpdate_UnknownTask_NotFound(t *testing.T) {
	repo, obj, pub := &mockTaskStore{}, &mockObjectStore{}, &mockPublisher{}
	svc := NewService(repo, obj, pub)

	repo.On("Get", mock.Anything, "user-123", "missing").Return(nil, domain.ErrNotFound)

	title := "new title"
	_, err := svc.Update(context.Background(), "user-123", "missing", domain.UpdateTaskRequest{Title: &title})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_SoftDeletesAndPublishes(t *testing.T) {
	repo, obj, pub := &mockTaskStore{}, &mockObjectStore{}, &mockPublisher{}
	svc := NewService(repo, obj, pub)

	existing := openTask("t1", "a", nil)
	repo.On("Get", mock.Anything, "user-123", "t1").Return(&existing, nil)
	repo.On("SoftDelete", mock.Anything, "user-123", "t1").Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := svc.Delete(context.Background(), "user-123", "t1")

	require.NoError(t, err)
	pub.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(ev domain.TaskEvent) bool {
		return ev.Type == "task.deleted" && ev.TaskID == "t1"
	}))
}

// --- ExportCSV ---

func TestExportCSV_WritesHeaderAndRows(t *testing.T) {
	repo, obj, pub := &mockTaskStore{}, &mockObjectStore{}, &mockPublisher{}
	svc := NewService(repo, obj, pub)

	due := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	repo.On("ListByUser", mock.Anything, "user-123").Return([]domain.Task{
		openTask("t1", "write report", timePtr(due)),
		openTask("t2", "no due date", nil),
	}, nil)

	var buf bytes.Buffer
	err := svc.ExportCSV(context.Background(), "user-123", &buf)

	require.NoError(t, err)
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "title", "notes", "status", "due_at", "created", "updated"}, records[0])
	assert.Equal(t, "t1", records[1][0])
	assert.Equal(t, "2026-09-01T12:00:00Z", records[1][4])
	assert.Equal(t, "", records[2][4])
}

// --- Attachments ---

func TestAddAttachment_UploadsAndAppends(t *testing.T) {
	repo, obj, pub := &mockTaskStore{}, &mockObjectStore{}, &mockPublisher{}
	svc := NewService(repo, obj, pub)

	existing := openTask("t1", "a", nil)
	repo.On("Get", mock.Anything, "user-123", "t1").Return(&existing, nil)
	obj.On("Upload", mock.Anything, mock.Anything, mock.Anything, "text/plain").Return(nil)

	var updates map[string]interface{}
	repo.On("Update", mock.Anything, "user-123", "t1", mock.Anything).
		Run(func(args mock.Arguments) { updates = args.Get(3).(map[string]interface{}) }).
		Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	att, err := svc.AddAttachment(context.Background(), "user-123", "t1",
		"../../notes.txt", "text/plain", 5, strings.NewReader("hello"))

	require.NoError(t, err)
	assert.Equal(t, "notes.txt", att.FileName, "path components must be stripped")
	assert.True(t, strings.HasPrefix(att.S3Key, "tasks/t1/"))
	require.NotNil(t, updates)
	stored, ok := updates[fieldAttachments].([]domain.Attachment)
	require.True(t, ok)
	require.Len(t, stored, 1)
	assert.Equal(t, att.AttachmentID, stored[0].AttachmentID)
}

func TestOpenAttachment_Unknown_NotFound(t *testing.T) {
	repo, obj, pub := &mockTaskStore{}, &mockObjectStore{}, &mockPublisher{}
	svc := NewService(repo, obj, pub)

	existing := openTask("t1", "a", nil)
	repo.On("Get", mock.Anything, "user-123", "t1").Return(&existing, nil)

	_, _, err := svc.OpenAttachment(context.Background(), "user-123", "t1", "nope")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	obj.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
}

func TestDeleteAttachment_RemovesObjectAndMetadata(t *testing.T) {
	repo, obj, pub := &mockTaskStore{}, &mockObjectStore{}, &mockPublisher{}
	svc := NewService(repo, obj, pub)

	existing := openTask("t1", "a", nil)
	existing.Attachments = []domain.Attachment{
		{AttachmentID: "att-1", S3Key: "tasks/t1/att-1"},
		{AttachmentID: "att-2", S3Key: "tasks/t1/att-2"},
	}
	repo.On("Get", mock.Anything, "user-123", "t1").Return(&existing, nil)
	obj.On("Delete", mock.Anything, "tasks/t1/att-1").Return(nil)

	var updates map[string]interface{}
	repo.On("Update", mock.Anything, "user-123", "t1", mock.Anything).
		Run(func(args mock.Arguments) { updates = args.Get(3).(map[string]interface{}) }).
		Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := svc.DeleteAttachment(context.Background(), "user-123", "t1", "att-1")

	require.NoError(t, err)
	require.NotNil(t, updates)
	kept, ok := updates[fieldAttachments].([]domain.Attachment)
	require.True(t, ok)
	require.Len(t, kept, 1)
	assert.Equal(t, "att-2", kept[0].AttachmentID)
}
