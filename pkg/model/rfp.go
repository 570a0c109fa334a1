package model

import (
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidStatus = goerr.New("invalid RFP status")
)

type RFPID string

// NewRFPID generates a new unique RFPID
func NewRFPID() RFPID {
	return RFPID(uuid.New().String())
}

// Status is a workflow state of an RFP record. Transitions between
// statuses are validated by the workflow package; model code only
// checks membership.
type Status string

const (
	StatusInitiated       Status = "INITIATED"
	StatusLinkedToRFP     Status = "LINKED_TO_RFP"
	StatusSalesAssembly   Status = "SALES_ASSEMBLY"
	StatusBDMReview       Status = "BDM_REVIEW"
	StatusRFPBreakdown    Status = "RFP_BREAKDOWN"
	StatusSMEQA           Status = "SME_QA"
	StatusContentDraft    Status = "CONTENT_DRAFT"
	StatusLegalReview     Status = "LEGAL_REVIEW"
	StatusQualityReview   Status = "QUALITY_REVIEW"
	StatusFinalRFP        Status = "FINAL_RFP"
	StatusApprovedByVP    Status = "APPROVED_BY_VP"
	StatusSubmissionReady Status = "SUBMISSION_READY"
	StatusSubmitted       Status = "SUBMITTED"
)

// AllStatuses lists every workflow state in happy-path order.
func AllStatuses() []Status {
	return []Status{
		StatusInitiated,
		StatusLinkedToRFP,
		StatusSalesAssembly,
		StatusBDMReview,
		StatusRFPBreakdown,
		StatusSMEQA,
		StatusContentDraft,
		StatusLegalReview,
		StatusQualityReview,
		StatusFinalRFP,
		StatusApprovedByVP,
		StatusSubmissionReady,
		StatusSubmitted,
	}
}

// Validate checks if the status is a member of the workflow state set
func (s Status) Validate() error {
	for _, known := range AllStatuses() {
		if s == known {
			return nil
		}
	}
	return goerr.Wrap(ErrInvalidStatus, "unknown status", goerr.V("status", string(s)))
}

type ClientInfo struct {
	Name    string `firestore:"name" json:"name"`
	Contact string `firestore:"contact" json:"contact,omitempty"`
}

type Milestone struct {
	Name string `firestore:"name" json:"name"`
	Date string `firestore:"date" json:"date,omitempty"`
}

type Timeline struct {
	ReceivedDate string      `firestore:"received_date" json:"received_date,omitempty"`
	DueDate      string      `firestore:"due_date" json:"due_date,omitempty"`
	Milestones   []Milestone `firestore:"milestones" json:"milestones,omitempty"`
}

type Participants struct {
	SalesTeam []string `firestore:"sales_team" json:"sales_team,omitempty"`
	BDM       string   `firestore:"bdm" json:"bdm,omitempty"`
	Writers   []string `firestore:"writers" json:"writers,omitempty"`
	SMEs      []string `firestore:"smes" json:"smes,omitempty"`
}

type DocumentLinks struct {
	OriginalRFPURL   string `firestore:"original_rfp_url" json:"original_rfp_url,omitempty"`
	DraftDocumentURL string `firestore:"draft_document_url" json:"draft_document_url,omitempty"`
	FinalDocumentURL string `firestore:"final_document_url" json:"final_document_url,omitempty"`
}

type Metadata struct {
	Industry string   `firestore:"industry" json:"industry,omitempty"`
	RFPSize  string   `firestore:"rfp_size" json:"rfp_size,omitempty"`
	Tags     []string `firestore:"tags" json:"tags,omitempty"`
}

// HistoryEvent is one entry of an RFP's append-only audit trail. Each
// entry documents exactly one attempted transition; rejected attempts
// keep the proposed target in To and carry the Rejected marker, while
// the record's status stays at From.
type HistoryEvent struct {
	Timestamp time.Time `firestore:"timestamp" json:"timestamp"`
	Actor     string    `firestore:"actor" json:"actor"`
	From      Status    `firestore:"from_state" json:"from_state"`
	To        Status    `firestore:"to_state" json:"to_state"`
	Note      string    `firestore:"note" json:"note,omitempty"`
	Events    []string  `firestore:"events" json:"events,omitempty"`
	Rejected  bool      `firestore:"rejected" json:"rejected,omitempty"`
}

// TaskRef links a Task document to its owning RFP. The RFP owns the
// reference; the Task itself lives in its own collection.
type TaskRef struct {
	TaskID TaskID `firestore:"task_id" json:"task_id"`
	Source string `firestore:"source" json:"source,omitempty"`
}

// RFP is the central record of one proposal lifecycle. Status and
// History are mutated only by the orchestrator's commit step; agents
// return patches instead of writing.
type RFP struct {
	ID     RFPID      `firestore:"id" json:"id"`
	Title  string     `firestore:"title" json:"title"`
	Client ClientInfo `firestore:"client" json:"client"`
	Status Status     `firestore:"status" json:"status"`

	Timeline     Timeline       `firestore:"timeline" json:"timeline"`
	Participants Participants   `firestore:"participants" json:"participants"`
	Tasks        []TaskRef      `firestore:"tasks" json:"tasks"`
	Documents    DocumentLinks  `firestore:"documents" json:"documents"`
	History      []HistoryEvent `firestore:"history" json:"history"`
	Metadata     Metadata       `firestore:"metadata" json:"metadata"`

	Embedding firestore.Vector32 `firestore:"embedding" json:"embedding,omitempty"`

	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at" json:"updated_at"`
}

// HasTask reports whether the RFP already references the given task.
func (r *RFP) HasTask(id TaskID) bool {
	for _, ref := range r.Tasks {
		if ref.TaskID == id {
			return true
		}
	}
	return false
}
