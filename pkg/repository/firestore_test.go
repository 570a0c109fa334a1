package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/repository"
)

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	repo, err := repository.New(context.Background(), projectID, databaseID)
	gt.NoError(t, err)

	return repo
}

func TestFirestoreRFPRoundTrip(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	now := time.Now()
	rfp := &model.RFP{
		ID:     model.NewRFPID(),
		Title:  "Integration test RFP",
		Status: model.StatusInitiated,
		Client: model.ClientInfo{Name: "Acme", Contact: "pm@acme.example"},
		History: []model.HistoryEvent{
			{
				Timestamp: now,
				Actor:     "sales",
				From:      model.StatusInitiated,
				To:        model.StatusLinkedToRFP,
				Events:    []string{"rfp_created"},
			},
		},
		Embedding: []float32{0.1, 0.2, 0.3},
		CreatedAt: now,
		UpdatedAt: now,
	}

	gt.NoError(t, repo.PutRFP(ctx, rfp))

	retrieved, err := repo.GetRFP(ctx, rfp.ID)
	gt.NoError(t, err)
	gt.Equal(t, retrieved.Title, rfp.Title)
	gt.Equal(t, retrieved.Status, rfp.Status)
	gt.A(t, retrieved.History).Length(1)
	gt.Equal(t, retrieved.History[0].Actor, "sales")
}

func TestFirestoreGetRFPNotFound(t *testing.T) {
	repo := setupFirestore(t)

	_, err := repo.GetRFP(context.Background(), model.NewRFPID())
	gt.Error(t, err)
}

func TestFirestoreTasks(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	rfpID := model.NewRFPID()
	now := time.Now()

	for i, title := range []string{"first", "second"} {
		task := &model.Task{
			ID:        model.NewTaskID(),
			RFPID:     rfpID,
			Type:      model.TaskTypeSMEQA,
			Status:    model.TaskStatusPending,
			Title:     title,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
			UpdatedAt: now,
		}
		gt.NoError(t, repo.PutTask(ctx, task))
	}

	tasks, err := repo.ListTasksByRFP(ctx, rfpID)
	gt.NoError(t, err)
	gt.A(t, tasks).Length(2)
	gt.Equal(t, tasks[0].Title, "first")
}
