package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/adapter"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/repository"
	"github.com/rfpstudio/rfpflow/pkg/utils/logging"
	"gopkg.in/yaml.v3"
)

// entryFile is the YAML schema of a knowledge base file. A file holds
// one or more entries:
//
//	entries:
//	  - content: "Our SOC 2 Type II report covers ..."
//	    team: security
//	    topic: compliance
//	    tags: [soc2, audit]
type entryFile struct {
	Entries []fileEntry `yaml:"entries"`
}

type fileEntry struct {
	Content string   `yaml:"content"`
	Team    string   `yaml:"team"`
	Topic   string   `yaml:"topic"`
	Tags    []string `yaml:"tags"`
}

// Loader reads knowledge base YAML files, embeds their contents and
// stores them for the SME router to search.
type Loader struct {
	repo     repository.Repository
	embedder adapter.Embedder
}

func NewLoader(repo repository.Repository, embedder adapter.Embedder) *Loader {
	return &Loader{repo: repo, embedder: embedder}
}

// LoadDir loads every *.yml / *.yaml file under dir (sorted by name)
// and returns the number of entries stored.
func (x *Loader) LoadDir(ctx context.Context, dir string) (int, error) {
	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matched, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return 0, goerr.Wrap(err, "failed to glob knowledge files", goerr.V("dir", dir))
		}
		files = append(files, matched...)
	}
	if len(files) == 0 {
		return 0, goerr.New("no knowledge files found", goerr.V("dir", dir))
	}
	sort.Strings(files)

	total := 0
	for _, file := range files {
		n, err := x.LoadFile(ctx, file)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// LoadFile loads a single YAML file into the knowledge base.
func (x *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to read knowledge file", goerr.V("path", path))
	}

	var doc entryFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return 0, goerr.Wrap(err, "failed to parse knowledge file", goerr.V("path", path))
	}

	var entries []fileEntry
	for i, e := range doc.Entries {
		if e.Content == "" {
			return 0, goerr.New("knowledge entry has no content",
				goerr.V("path", path), goerr.V("index", i))
		}
		if e.Team == "" {
			return 0, goerr.New("knowledge entry has no team",
				goerr.V("path", path), goerr.V("index", i))
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		logging.From(ctx).Warn("knowledge file has no entries", "path", path)
		return 0, nil
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Content
	}

	vectors, err := x.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to embed knowledge entries", goerr.V("path", path))
	}

	now := time.Now()
	for i, e := range entries {
		entry := &model.KnowledgeEntry{
			ID:        model.NewKnowledgeID(),
			Content:   e.Content,
			TeamKey:   e.Team,
			Topic:     e.Topic,
			Tags:      e.Tags,
			Embedding: vectors[i],
			CreatedAt: now,
		}
		if err := x.repo.PutKnowledge(ctx, entry); err != nil {
			return i, goerr.Wrap(err, "failed to store knowledge entry",
				goerr.V("path", path), goerr.V("team", e.Team))
		}
	}

	logging.From(ctx).Info("loaded knowledge file", "path", path, "entries", len(entries))
	return len(entries), nil
}

// Clear drops every knowledge entry and reports the removed count.
func (x *Loader) Clear(ctx context.Context) (int, error) {
	n, err := x.repo.ClearKnowledge(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to clear knowledge base")
	}
	return n, nil
}
