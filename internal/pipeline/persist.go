package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/address"
	"github.com/rpger/content-extractor/internal/common"
	"github.com/rpger/content-extractor/internal/model"
	"github.com/rpger/content-extractor/internal/vectorstore"
)

// persist fans the artifact out to the vector and document stores under
// all_must_succeed=false: one failing store leaves a partial_persistence
// note; both failing is a terminal error.
func (o *Orchestrator) persist(ctx context.Context, artifact *model.Artifact, layout constants.Layout) (string, error) {
	addr := address.Build(artifact.Verdict, layout)
	timeout := o.deps.Stores.StoreTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var vectorErr, docErr error
	var g errgroup.Group

	g.Go(func() error {
		if o.deps.Vectors == nil {
			vectorErr = common.Errorf(common.CodeStoreUnreachable, "vector store not configured")
			return nil
		}
		vctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		vectorErr = o.persistVectors(vctx, addr.VectorCollection, addr.Folder, artifact)
		return nil
	})
	g.Go(func() error {
		if o.deps.Documents == nil {
			docErr = common.Errorf(common.CodeStoreUnreachable, "document store not configured")
			return nil
		}
		dctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		docErr = o.persistDocuments(dctx, addr, layout, artifact)
		return nil
	})
	_ = g.Wait()

	switch {
	case vectorErr == nil && docErr == nil:
		return "", nil
	case vectorErr != nil && docErr != nil:
		return "", common.NewAppError(common.CodeStoreUnreachable,
			fmt.Sprintf("both stores failed (vector: %v)", vectorErr), docErr)
	case vectorErr != nil:
		o.logger.Warn("pipeline.persist.partial", "failed", "vector", "error", vectorErr)
		return "partial_persistence: vector store failed", nil
	default:
		o.logger.Warn("pipeline.persist.partial", "failed", "document", "error", docErr)
		return "partial_persistence: document store failed", nil
	}
}

// persistVectors upserts the sections. A store_oversize failure retries
// once with every record truncated to 95% of the provider limit.
func (o *Orchestrator) persistVectors(ctx context.Context, collection, folder string, artifact *model.Artifact) error {
	if err := o.deps.Vectors.EnsureCollection(ctx, collection); err != nil {
		return err
	}
	records := vectorRecords(collection, folder, artifact)
	err := o.deps.Vectors.UpsertSections(ctx, collection, records)
	if common.HasCode(err, common.CodeStoreOversize) {
		limit := o.deps.Stores.MaxValueBytes
		if limit <= 0 {
			limit = 32 << 10
		}
		cap95 := limit * 95 / 100
		for i := range records {
			if len(records[i].Text) > cap95 {
				records[i].Text = records[i].Text[:cap95]
			}
		}
		o.logger.Warn("pipeline.persist.oversize_retry", "collection", collection, "cap", cap95)
		err = o.deps.Vectors.UpsertSections(ctx, collection, records)
	}
	return err
}

func (o *Orchestrator) persistDocuments(ctx context.Context, addr address.Address, layout constants.Layout, artifact *model.Artifact) error {
	if err := o.deps.Documents.EnsureCollection(ctx, addr.DocCollection); err != nil {
		return err
	}
	if layout == constants.LayoutSingleWithFolder {
		_, err := o.deps.Documents.InsertWhole(ctx, addr.DocCollection, *artifact, addr.Folder)
		return err
	}
	_, err := o.deps.Documents.InsertSplit(ctx, addr.DocCollection, *artifact, "")
	return err
}

// vectorRecords builds the upsert batch; ids follow the
// ${collection}_page${page}_${ordinal} scheme so re-ingests are idempotent.
func vectorRecords(collection, folder string, artifact *model.Artifact) []vectorstore.Record {
	v := artifact.Verdict
	records := make([]vectorstore.Record, 0, len(artifact.Sections))
	for _, s := range artifact.Sections {
		text := s.EnhancedText
		if text == "" {
			text = s.RawText
		}
		metadata := map[string]any{
			"game":          v.Game,
			"edition":       v.Edition,
			"book":          v.BookCode,
			"kind":          string(v.Kind),
			"page":          s.Page,
			"ordinal":       s.Ordinal,
			"category":      s.Category,
			"source_digest": artifact.SourceHash,
		}
		if folder != "" {
			metadata["folder_path"] = folder
		}
		records = append(records, vectorstore.Record{
			ID:       fmt.Sprintf("%s_page%d_%d", collection, s.Page, s.Ordinal),
			Text:     text,
			Metadata: metadata,
		})
	}
	return records
}
