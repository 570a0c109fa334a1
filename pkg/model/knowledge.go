package model

import (
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

type KnowledgeID string

// NewKnowledgeID generates a new unique KnowledgeID
func NewKnowledgeID() KnowledgeID {
	return KnowledgeID(uuid.New().String())
}

// KnowledgeEntry is one reference document of the SME knowledge base.
// Entries are written by the loader and read by the SME router via
// vector search; the router never modifies them.
type KnowledgeEntry struct {
	ID      KnowledgeID `firestore:"id" json:"id"`
	Content string      `firestore:"content" json:"content"`
	TeamKey string      `firestore:"team_key" json:"team_key"`
	Topic   string      `firestore:"topic" json:"topic,omitempty"`
	Tags    []string    `firestore:"tags" json:"tags,omitempty"`

	Embedding firestore.Vector32 `firestore:"embedding" json:"embedding,omitempty"`

	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
}

// KnowledgeMatch is a knowledge entry paired with its similarity score
// (1.0 is identical, 0.0 unrelated).
type KnowledgeMatch struct {
	Entry *KnowledgeEntry
	Score float64
}

// RFPMatch is an RFP paired with its similarity score.
type RFPMatch struct {
	RFP   *RFP
	Score float64
}
