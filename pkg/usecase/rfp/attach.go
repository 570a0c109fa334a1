package rfp

import (
	"context"
	"io"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/adapter"
	"github.com/rfpstudio/rfpflow/pkg/model"
)

// AttachOptions contains options for attaching a document artifact
type AttachOptions struct {
	ID      model.RFPID
	Kind    adapter.DocumentKind
	Name    string
	Content io.Reader
}

// Attach uploads a document artifact and links its URL on the record
// 1. Upload the content to the document store
// 2. Patch the record's document link for the artifact slot
// 3. Persist the updated record
func (u *UseCase) Attach(
	ctx context.Context,
	opts AttachOptions,
) (*model.RFP, error) {
	if u.docs == nil {
		return nil, goerr.New("no document store configured")
	}
	if err := opts.Kind.Validate(); err != nil {
		return nil, err
	}

	rfp, err := u.repo.GetRFP(ctx, opts.ID)
	if err != nil {
		return nil, err
	}

	url, err := u.docs.Upload(ctx, opts.ID, opts.Kind, opts.Name, opts.Content)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upload document",
			goerr.V("rfp_id", opts.ID), goerr.V("kind", opts.Kind))
	}

	patch := &model.RFPPatch{Documents: &model.DocumentsPatch{}}
	switch opts.Kind {
	case adapter.DocumentOriginal:
		patch.Documents.OriginalRFPURL = model.Ptr(url)
	case adapter.DocumentDraft:
		patch.Documents.DraftDocumentURL = model.Ptr(url)
	case adapter.DocumentFinal:
		patch.Documents.FinalDocumentURL = model.Ptr(url)
	}

	patch.Apply(rfp)
	rfp.UpdatedAt = time.Now()

	if err := u.repo.PutRFP(ctx, rfp); err != nil {
		return nil, goerr.Wrap(err, "failed to persist document link", goerr.V("rfp_id", opts.ID))
	}
	return rfp, nil
}
