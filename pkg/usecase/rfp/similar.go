package rfp

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/adapter"
	"github.com/rfpstudio/rfpflow/pkg/model"
)

// SimilarOptions contains options for similarity search. Exactly one of
// ID or Query selects the search vector: ID reuses a stored record's
// embedding, Query is embedded on the fly.
type SimilarOptions struct {
	ID    model.RFPID
	Query string
	Limit int
}

// Similar searches for past RFPs close to a record or query text
// 1. Resolve the search vector (stored embedding or fresh query embedding)
// 2. Perform vector search over stored RFP embeddings
// 3. Return matches ordered by similarity, excluding the record itself
func (u *UseCase) Similar(
	ctx context.Context,
	opts SimilarOptions,
) ([]*model.RFPMatch, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	var vector []float32
	switch {
	case opts.ID != "":
		rfp, err := u.repo.GetRFP(ctx, opts.ID)
		if err != nil {
			return nil, err
		}
		if len(rfp.Embedding) == 0 {
			return nil, goerr.Wrap(adapter.ErrEmbeddingUnavailable,
				"record has no stored embedding", goerr.V("rfp_id", opts.ID))
		}
		vector = rfp.Embedding
	case opts.Query != "":
		if u.embedder == nil {
			return nil, goerr.Wrap(adapter.ErrEmbeddingUnavailable,
				"no embedding backend configured")
		}
		v, err := u.embedder.Embed(ctx, opts.Query)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to embed query")
		}
		vector = v
	default:
		return nil, goerr.New("similar search requires an RFP id or a query")
	}

	// Fetch one extra so the source record can be dropped from its own
	// results.
	matches, err := u.repo.SearchSimilarRFPs(ctx, vector, limit+1)
	if err != nil {
		return nil, err
	}

	out := make([]*model.RFPMatch, 0, limit)
	for _, m := range matches {
		if opts.ID != "" && m.RFP.ID == opts.ID {
			continue
		}
		out = append(out, m)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
