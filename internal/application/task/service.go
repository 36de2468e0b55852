package task

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"time"

	"github.com/taskhive-api/internal/domain"
	"github.com/taskhive-api/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldTitle       = "title"
	fieldNotes       = "notes"
	fieldStatus      = "status"
	fieldDueAt       = "due_at"
	fieldAttachments = "attachments"
)

const (
	eventCreated = "task.created"
	eventUpdated = "task.updated"
	eventDeleted = "task.deleted"
)

// ListFilter narrows List results; zero values mean "no constraint".
type ListFilter struct {
	Status    string
	DueBefore *time.Time
}

type Service interface {
	Create(ctx context.Context, userID string, req domain.CreateTaskRequest) (*domain.Task, error)
	List(ctx context.Context, userID string, filter ListFilter) ([]domain.Task, error)
	Get(ctx context.Context, userID, taskID string) (*domain.Task, error)
	Update(ctx context.Context, userID, taskID string, req domain.UpdateTaskRequest) (*domain.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
	ExportCSV(ctx context.Context, userID string, w io.Writer) error
	AddAttachment(ctx context.Context, userID, taskID, fileName, contentType string, size int64, r io.Reader) (*domain.Attachment, error)
	OpenAttachment(ctx context.Context, userID, taskID, attachmentID string) (*domain.Attachment, io.ReadCloser, error)
	DeleteAttachment(ctx context.Context, userID, taskID, attachmentID string) error
}

type taskStore interface {
	Put(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, userID, taskID string) (*domain.Task, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Task, error)
	Update(ctx context.Context, userID, taskID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID, taskID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, ev domain.TaskEvent) error
}

type service struct {
	repo    taskStore
	objects objectStore
	events  eventPublisher // nil when no topic is configured
}

func NewService(repo taskStore, objects objectStore, events eventPublisher) Service {
	return &service{repo: repo, objects: objects, events: events}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateTaskRequest) (*domain.Task, error) {
	dueAt, err := parseDueAt(req.DueAt)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t := &domain.Task{
		UserID:    userID,
		TaskID:    id.New(),
		Title:     req.Title,
		Notes:     req.Notes,
		Status:    domain.TaskStatusOpen,
		DueAt:     dueAt,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	s.publish(ctx, eventCreated, userID, t.TaskID)
	return t, nil
}

func (s *service) List(ctx context.Context, userID string, filter ListFilter) ([]domain.Task, error) {
	tasks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := tasks[:0]
	for _, t := range tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.DueBefore != nil && (t.DueAt == nil || !t.DueAt.Before(*filter.DueBefore)) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	return s.repo.Get(ctx, userID, taskID)
}

func (s *service) Update(ctx context.Context, userID, taskID string, req domain.UpdateTaskRequest) (*domain.Task, error) {
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates[fieldTitle] = *req.Title
	}
	if req.Notes != nil {
		updates[fieldNotes] = *req.Notes
	}
	if req.Status != nil {
		updates[fieldStatus] = *req.Status
	}
	if req.DueAt != nil {
		if *req.DueAt == "" {
			updates[fieldDueAt] = nil // REMOVE
		} else {
			dueAt, err := parseDueAt(*req.DueAt)
			if err != nil {
				return nil, err
			}
			updates[fieldDueAt] = dueAt
		}
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, userID, taskID)
	}
	// Existence check keeps a blind UpdateItem from resurrecting a deleted row.
	if _, err := s.repo.Get(ctx, userID, taskID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, taskID, updates); err != nil {
		return nil, err
	}
	s.publish(ctx, eventUpdated, userID, taskID)
	return s.repo.Get(ctx, userID, taskID)
}

func (s *service) Delete(ctx context.Context, userID, taskID string) error {
	if _, err := s.repo.Get(ctx, userID, taskID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, userID, taskID); err != nil {
		return err
	}
	s.publish(ctx, eventDeleted, userID, taskID)
	return nil
}

// ExportCSV streams all of the user's tasks as CSV.
func (s *service) ExportCSV(ctx context.Context, userID string, w io.Writer) error {
	tasks, err := s.List(ctx, userID, ListFilter{})
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "title", "notes", "status", "due_at", "created", "updated"}); err != nil {
		return err
	}
	for _, t := range tasks {
		dueAt := ""
		if t.DueAt != nil {
			dueAt = t.DueAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			t.TaskID, t.Title, t.Notes, t.Status, dueAt,
			t.CreatedAt.UTC().Format(time.RFC3339),
			t.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *service) AddAttachment(ctx context.Context, userID, taskID, fileName, contentType string, size int64, r io.Reader) (*domain.Attachment, error) {
	t, err := s.repo.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	att := domain.Attachment{
		AttachmentID: id.New(),
		FileName:     path.Base(fileName),
		ContentType:  contentType,
		Size:         size,
		CreatedAt:    time.Now().UTC(),
	}
	att.S3Key = fmt.Sprintf("tasks/%s/%s", taskID, att.AttachmentID)
	if err := s.objects.Upload(ctx, att.S3Key, r, contentType); err != nil {
		return nil, err
	}
	attachments := append(t.Attachments, att)
	if err := s.repo.Update(ctx, userID, taskID, map[string]interface{}{fieldAttachments: attachments}); err != nil {
		return nil, err
	}
	s.publish(ctx, eventUpdated, userID, taskID)
	return &att, nil
}

func (s *service) OpenAttachment(ctx context.Context, userID, taskID, attachmentID string) (*domain.Attachment, io.ReadCloser, error) {
	t, err := s.repo.Get(ctx, userID, taskID)
	if err != nil {
		return nil, nil, err
	}
	for i := range t.Attachments {
		if t.Attachments[i].AttachmentID == attachmentID {
			rc, err := s.objects.Download(ctx, t.Attachments[i].S3Key)
			if err != nil {
				return nil, nil, err
			}
			return &t.Attachments[i], rc, nil
		}
	}
	return nil, nil, fmt.Errorf("attachment not found: %w", domain.ErrNotFound)
}

func (s *service) DeleteAttachment(ctx context.Context, userID, taskID, attachmentID string) error {
	t, err := s.repo.Get(ctx, userID, taskID)
	if err != nil {
		return err
	}
	kept := make([]domain.Attachment, 0, len(t.Attachments))
	var removed *domain.Attachment
	for i := range t.Attachments {
		if t.Attachments[i].AttachmentID == attachmentID {
			removed = &t.Attachments[i]
			continue
		}
		kept = append(kept, t.Attachments[i])
	}
	if removed == nil {
		return fmt.Errorf("attachment not found: %w", domain.ErrNotFound)
	}
	if err := s.objects.Delete(ctx, removed.S3Key); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, userID, taskID, map[string]interface{}{fieldAttachments: kept}); err != nil {
		return err
	}
	s.publish(ctx, eventUpdated, userID, taskID)
	return nil
}

// publish is best effort: a broker outage must not fail the user's request.
func (s *service) publish(ctx context.Context, eventType, userID, taskID string) {
	if s.events == nil {
		return
	}
	ev := domain.TaskEvent{Type: eventType, UserID: userID, TaskID: taskID, At: time.Now().UTC()}
	if err := s.events.Publish(ctx, ev); err != nil {
		slog.Warn("failed to publish task event", "type", eventType, "task_id", taskID, "err", err)
	}
}

func parseDueAt(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("due_at must be in RFC 3339 format: %w", domain.ErrBadRequest)
	}
	return &t, nil
}
