package model

import (
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type TaskID string

// NewTaskID generates a new unique TaskID
func NewTaskID() TaskID {
	return TaskID(uuid.New().String())
}

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusAssigned  TaskStatus = "ASSIGNED"
	TaskStatusAnswered  TaskStatus = "ANSWERED"
	TaskStatusCompleted TaskStatus = "COMPLETED"
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

// Validate checks if the task status is valid
func (s TaskStatus) Validate() error {
	switch s {
	case TaskStatusPending, TaskStatusAssigned, TaskStatusAnswered, TaskStatusCompleted, TaskStatusCancelled:
		return nil
	default:
		return goerr.New("invalid task status", goerr.V("status", string(s)))
	}
}

type TaskType string

const (
	TaskTypeSMEQA        TaskType = "SME_QA"
	TaskTypeContentDraft TaskType = "CONTENT_DRAFT"
	TaskTypeLegalReview  TaskType = "LEGAL_REVIEW"
	TaskTypeQualityCheck TaskType = "QUALITY_CHECK"
	TaskTypeOther        TaskType = "OTHER"
)

// RoutingInfo records how the SME router resolved a task assignment.
type RoutingInfo struct {
	MatchedEntryID KnowledgeID `firestore:"matched_entry_id" json:"matched_entry_id,omitempty"`
	Score          float64     `firestore:"score" json:"score,omitempty"`
	RoutedAt       time.Time   `firestore:"routed_at" json:"routed_at,omitempty"`
}

// Task is a unit of work derived from an RFP. Tasks are created by the
// BDM breakdown, assigned by the SME router, and resolved by downstream
// agents. They are never deleted, only marked completed or cancelled.
type Task struct {
	ID    TaskID `firestore:"id" json:"id"`
	RFPID RFPID  `firestore:"rfp_id" json:"rfp_id"`

	Type   TaskType   `firestore:"type" json:"type"`
	Status TaskStatus `firestore:"status" json:"status"`

	Title       string `firestore:"title" json:"title"`
	Description string `firestore:"description" json:"description,omitempty"`

	AssignedTeam string      `firestore:"assigned_team" json:"assigned_team,omitempty"`
	Routing      RoutingInfo `firestore:"routing" json:"routing,omitempty"`

	Embedding firestore.Vector32 `firestore:"embedding" json:"embedding,omitempty"`

	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at" json:"updated_at"`
}

// Unassigned reports whether the task still needs SME routing.
func (t *Task) Unassigned() bool {
	return t.AssignedTeam == "" &&
		t.Status != TaskStatusCancelled && t.Status != TaskStatusCompleted
}

// Text returns the content used for embedding and routing.
func (t *Task) Text() string {
	if t.Description != "" {
		return t.Title + "\n" + t.Description
	}
	return t.Title
}
