package model

import "cloud.google.com/go/firestore"

// RFPPatch is a partial update returned by an agent. Scalar pointers
// overwrite when non-nil, nested patches merge field-wise, and slices
// union-append unless the corresponding Replace flag is set. Only the
// orchestrator applies patches.
type RFPPatch struct {
	Title  *string
	Client *ClientPatch

	Timeline     *TimelinePatch
	Participants *ParticipantsPatch
	Documents    *DocumentsPatch
	Metadata     *MetadataPatch

	Tasks []TaskRef // appended, deduplicated by TaskID

	Embedding firestore.Vector32
}

type ClientPatch struct {
	Name    *string
	Contact *string
}

type TimelinePatch struct {
	ReceivedDate *string
	DueDate      *string
	Milestones   []Milestone
}

type ParticipantsPatch struct {
	SalesTeam []string
	BDM       *string
	Writers   []string
	SMEs      []string
}

type DocumentsPatch struct {
	OriginalRFPURL   *string
	DraftDocumentURL *string
	FinalDocumentURL *string
}

type MetadataPatch struct {
	Industry    *string
	RFPSize     *string
	Tags        []string
	ReplaceTags bool
}

// IsEmpty reports whether the patch carries no changes at all.
func (p *RFPPatch) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.Title == nil && p.Client == nil && p.Timeline == nil &&
		p.Participants == nil && p.Documents == nil && p.Metadata == nil &&
		len(p.Tasks) == 0 && len(p.Embedding) == 0
}

// Apply merges the patch into the record. Applying the same patch twice
// yields the same record: scalar overwrites are stable and slice appends
// skip values already present.
func (p *RFPPatch) Apply(r *RFP) {
	if p == nil {
		return
	}

	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Client != nil {
		if p.Client.Name != nil {
			r.Client.Name = *p.Client.Name
		}
		if p.Client.Contact != nil {
			r.Client.Contact = *p.Client.Contact
		}
	}

	if p.Timeline != nil {
		if p.Timeline.ReceivedDate != nil {
			r.Timeline.ReceivedDate = *p.Timeline.ReceivedDate
		}
		if p.Timeline.DueDate != nil {
			r.Timeline.DueDate = *p.Timeline.DueDate
		}
		for _, m := range p.Timeline.Milestones {
			if !containsMilestone(r.Timeline.Milestones, m) {
				r.Timeline.Milestones = append(r.Timeline.Milestones, m)
			}
		}
	}

	if p.Participants != nil {
		r.Participants.SalesTeam = appendUnique(r.Participants.SalesTeam, p.Participants.SalesTeam)
		if p.Participants.BDM != nil {
			r.Participants.BDM = *p.Participants.BDM
		}
		r.Participants.Writers = appendUnique(r.Participants.Writers, p.Participants.Writers)
		r.Participants.SMEs = appendUnique(r.Participants.SMEs, p.Participants.SMEs)
	}

	if p.Documents != nil {
		if p.Documents.OriginalRFPURL != nil {
			r.Documents.OriginalRFPURL = *p.Documents.OriginalRFPURL
		}
		if p.Documents.DraftDocumentURL != nil {
			r.Documents.DraftDocumentURL = *p.Documents.DraftDocumentURL
		}
		if p.Documents.FinalDocumentURL != nil {
			r.Documents.FinalDocumentURL = *p.Documents.FinalDocumentURL
		}
	}

	if p.Metadata != nil {
		if p.Metadata.Industry != nil {
			r.Metadata.Industry = *p.Metadata.Industry
		}
		if p.Metadata.RFPSize != nil {
			r.Metadata.RFPSize = *p.Metadata.RFPSize
		}
		if p.Metadata.ReplaceTags {
			r.Metadata.Tags = append([]string(nil), p.Metadata.Tags...)
		} else {
			r.Metadata.Tags = appendUnique(r.Metadata.Tags, p.Metadata.Tags)
		}
	}

	for _, ref := range p.Tasks {
		if !r.HasTask(ref.TaskID) {
			r.Tasks = append(r.Tasks, ref)
		}
	}

	if len(p.Embedding) > 0 {
		r.Embedding = p.Embedding
	}
}

// Ptr is a small helper for building patches from literals.
func Ptr[T any](v T) *T {
	return &v
}

func appendUnique(dst, src []string) []string {
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}

func containsMilestone(ms []Milestone, m Milestone) bool {
	for _, existing := range ms {
		if existing.Name == m.Name && existing.Date == m.Date {
			return true
		}
	}
	return false
}
