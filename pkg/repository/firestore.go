package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionRFPs      = "rfps"
	collectionTasks     = "tasks"
	collectionKnowledge = "knowledge_base"

	distanceField = "vector_distance"
)

// Firestore implements Repository using Cloud Firestore. RFP embeddings
// and knowledge entries are stored as Vector32 fields and searched with
// Firestore vector search (cosine distance).
type Firestore struct {
	client *firestore.Client
}

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutRFP(ctx context.Context, rfp *model.RFP) error {
	if rfp.ID == "" {
		return goerr.New("RFP ID is empty")
	}

	if _, err := r.client.Collection(collectionRFPs).Doc(string(rfp.ID)).Set(ctx, rfp); err != nil {
		return goerr.Wrap(err, "failed to put RFP", goerr.V("rfp_id", rfp.ID))
	}
	return nil
}

func (r *Firestore) GetRFP(ctx context.Context, id model.RFPID) (*model.RFP, error) {
	doc, err := r.client.Collection(collectionRFPs).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "RFP not found", goerr.V("rfp_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get RFP", goerr.V("rfp_id", id))
	}

	var rfp model.RFP
	if err := doc.DataTo(&rfp); err != nil {
		return nil, goerr.Wrap(err, "failed to decode RFP", goerr.V("rfp_id", id))
	}
	return &rfp, nil
}

func (r *Firestore) ListRFPs(ctx context.Context, offset, limit int) ([]*model.RFP, error) {
	iter := r.client.Collection(collectionRFPs).
		OrderBy("created_at", firestore.Desc).
		Offset(offset).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var rfps []*model.RFP
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate RFPs")
		}

		var rfp model.RFP
		if err := doc.DataTo(&rfp); err != nil {
			return nil, goerr.Wrap(err, "failed to decode RFP")
		}
		rfps = append(rfps, &rfp)
	}
	return rfps, nil
}

func (r *Firestore) SearchSimilarRFPs(ctx context.Context, embedding []float32, limit int) ([]*model.RFPMatch, error) {
	iter := r.client.Collection(collectionRFPs).
		FindNearest("embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine,
			&firestore.FindNearestOptions{DistanceResultField: distanceField}).
		Documents(ctx)
	defer iter.Stop()

	var matches []*model.RFPMatch
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search similar RFPs")
		}

		var rfp model.RFP
		if err := doc.DataTo(&rfp); err != nil {
			return nil, goerr.Wrap(err, "failed to decode RFP")
		}
		matches = append(matches, &model.RFPMatch{
			RFP:   &rfp,
			Score: cosineScore(doc.Data()[distanceField]),
		})
	}
	return matches, nil
}

func (r *Firestore) PutTask(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		return goerr.New("task ID is empty")
	}

	if _, err := r.client.Collection(collectionTasks).Doc(string(task.ID)).Set(ctx, task); err != nil {
		return goerr.Wrap(err, "failed to put task", goerr.V("task_id", task.ID))
	}
	return nil
}

func (r *Firestore) GetTask(ctx context.Context, id model.TaskID) (*model.Task, error) {
	doc, err := r.client.Collection(collectionTasks).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "task not found", goerr.V("task_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get task", goerr.V("task_id", id))
	}

	var task model.Task
	if err := doc.DataTo(&task); err != nil {
		return nil, goerr.Wrap(err, "failed to decode task", goerr.V("task_id", id))
	}
	return &task, nil
}

func (r *Firestore) ListTasksByRFP(ctx context.Context, id model.RFPID) ([]*model.Task, error) {
	iter := r.client.Collection(collectionTasks).
		Where("rfp_id", "==", string(id)).
		OrderBy("created_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var tasks []*model.Task
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate tasks", goerr.V("rfp_id", id))
		}

		var task model.Task
		if err := doc.DataTo(&task); err != nil {
			return nil, goerr.Wrap(err, "failed to decode task")
		}
		tasks = append(tasks, &task)
	}
	return tasks, nil
}

func (r *Firestore) PutKnowledge(ctx context.Context, entry *model.KnowledgeEntry) error {
	if entry.ID == "" {
		return goerr.New("knowledge entry ID is empty")
	}

	if _, err := r.client.Collection(collectionKnowledge).Doc(string(entry.ID)).Set(ctx, entry); err != nil {
		return goerr.Wrap(err, "failed to put knowledge entry", goerr.V("entry_id", entry.ID))
	}
	return nil
}

func (r *Firestore) ClearKnowledge(ctx context.Context) (int, error) {
	iter := r.client.Collection(collectionKnowledge).Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return count, goerr.Wrap(err, "failed to iterate knowledge entries")
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return count, goerr.Wrap(err, "failed to delete knowledge entry")
		}
		count++
	}
	return count, nil
}

func (r *Firestore) SearchKnowledge(ctx context.Context, embedding []float32, limit int) ([]*model.KnowledgeMatch, error) {
	iter := r.client.Collection(collectionKnowledge).
		FindNearest("embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine,
			&firestore.FindNearestOptions{DistanceResultField: distanceField}).
		Documents(ctx)
	defer iter.Stop()

	var matches []*model.KnowledgeMatch
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search knowledge base")
		}

		var entry model.KnowledgeEntry
		if err := doc.DataTo(&entry); err != nil {
			return nil, goerr.Wrap(err, "failed to decode knowledge entry")
		}
		matches = append(matches, &model.KnowledgeMatch{
			Entry: &entry,
			Score: cosineScore(doc.Data()[distanceField]),
		})
	}
	return matches, nil
}

// cosineScore converts a cosine distance reported by Firestore
// (0 identical, 2 opposite) into a similarity score (1 identical).
func cosineScore(v any) float64 {
	dist, ok := v.(float64)
	if !ok {
		return 0
	}
	return 1 - dist
}
