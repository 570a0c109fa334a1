package knowledge_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/rfpstudio/rfpflow/pkg/knowledge"
	"github.com/rfpstudio/rfpflow/pkg/repository"
)

type fixedEmbedder struct{}

func (e *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (e *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

const knowledgeYAML = `entries:
  - content: "SOC 2 Type II report available under NDA"
    team: security
    topic: compliance
    tags: [soc2, audit]
  - content: "Standard pricing is per seat with volume discounts"
    team: pricing
`

func TestLoadDir(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(tmpDir, "kb.yml"), []byte(knowledgeYAML), 0644))

	repo := repository.NewMemory()
	loader := knowledge.NewLoader(repo, &fixedEmbedder{})

	n, err := loader.LoadDir(ctx, tmpDir)
	gt.NoError(t, err)
	gt.Equal(t, n, 2)

	matches, err := repo.SearchKnowledge(ctx, []float32{1, 0, 0}, 10)
	gt.NoError(t, err)
	gt.A(t, matches).Length(2)

	teams := map[string]bool{}
	for _, m := range matches {
		teams[m.Entry.TeamKey] = true
		gt.A(t, []float32(m.Entry.Embedding)).Length(3)
	}
	gt.True(t, teams["security"])
	gt.True(t, teams["pricing"])
}

func TestLoadDirEmpty(t *testing.T) {
	loader := knowledge.NewLoader(repository.NewMemory(), &fixedEmbedder{})

	_, err := loader.LoadDir(context.Background(), t.TempDir())
	gt.Error(t, err)
}

func TestLoadFileRejectsInvalidEntries(t *testing.T) {
	tmpDir := t.TempDir()
	bad := "entries:\n  - content: \"no team given\"\n"
	path := filepath.Join(tmpDir, "bad.yaml")
	gt.NoError(t, os.WriteFile(path, []byte(bad), 0644))

	loader := knowledge.NewLoader(repository.NewMemory(), &fixedEmbedder{})

	_, err := loader.LoadFile(context.Background(), path)
	gt.Error(t, err)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(tmpDir, "kb.yaml"), []byte(knowledgeYAML), 0644))

	repo := repository.NewMemory()
	loader := knowledge.NewLoader(repo, &fixedEmbedder{})

	_, err := loader.LoadDir(ctx, tmpDir)
	gt.NoError(t, err)

	n, err := loader.Clear(ctx)
	gt.NoError(t, err)
	gt.Equal(t, n, 2)
}
