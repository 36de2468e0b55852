package domain

import "time"

const (
	TaskStatusOpen = "open"
	TaskStatusDone = "done"
)

type Task struct {
	UserID      string       `json:"user_id" dynamodbav:"user_id"`
	TaskID      string       `json:"id" dynamodbav:"task_id"`
	Title       string       `json:"title" dynamodbav:"title"`
	Notes       string       `json:"notes,omitempty" dynamodbav:"notes"`
	Status      string       `json:"status" dynamodbav:"status"` // "open" | "done"
	DueAt       *time.Time   `json:"due_at,omitempty" dynamodbav:"due_at"`
	Attachments []Attachment `json:"attachments,omitempty" dynamodbav:"attachments"`
	Enable      bool         `json:"enable" dynamodbav:"enable"`
	CreatedAt   time.Time    `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time    `json:"updated" dynamodbav:"updated_at"`
}

// Attachment is file metadata stored on the task item; the bytes live in S3
// under S3Key.
type Attachment struct {
	AttachmentID string    `json:"id" dynamodbav:"attachment_id"`
	FileName     string    `json:"file_name" dynamodbav:"file_name"`
	ContentType  string    `json:"content_type" dynamodbav:"content_type"`
	Size         int64     `json:"size" dynamodbav:"size"`
	S3Key        string    `json:"-" dynamodbav:"s3_key"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
}

type CreateTaskRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Notes string `json:"notes" validate:"max=4000"`
	DueAt string `json:"due_at"` // expected format: RFC 3339
}

type UpdateTaskRequest struct {
	Title  *string `json:"title" validate:"omitempty,max=200"`
	Notes  *string `json:"notes" validate:"omitempty,max=4000"`
	Status *string `json:"status" validate:"omitempty,oneof=open done"`
	DueAt  *string `json:"due_at"` // expected format: RFC 3339, empty string clears
}

// TaskEvent is published to SNS on task mutations so downstream consumers
// (push delivery, analytics) can react without polling.
type TaskEvent struct {
	Type   string    `json:"type"` // "task.created" | "task.updated" | "task.deleted"
	UserID string    `json:"user_id"`
	TaskID string    `json:"task_id"`
	At     time.Time `json:"at"`
}
