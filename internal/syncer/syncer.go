package syncer

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"nucliasync/internal/config"
	"nucliasync/internal/content"
	"nucliasync/internal/indexstore"
	"nucliasync/internal/logging"
	"nucliasync/internal/nuclia"
	"nucliasync/internal/queue"
	"nucliasync/internal/services"
)

// RemoteClient is the slice of the knowledge-box client the syncer
// depends on; tests substitute a fake.
type RemoteClient interface {
	CreateResource(ctx context.Context, payload nuclia.Resource) (*nuclia.CreateResult, error)
	ModifyResource(ctx context.Context, rid string, payload nuclia.Resource) (*int64, error)
	DeleteResource(ctx context.Context, rid string) error
	UpdateResourceLabels(ctx context.Context, rid string, classifications []nuclia.Classification) error
	UploadFile(ctx context.Context, rid, filePath, mimeType string) (*int64, error)
}

// Syncer reconciles local content against the remote index.
type Syncer struct {
	cfg     *config.Config
	source  content.Source
	queue   *queue.Store
	records *indexstore.Store
	remote  RemoteClient
	logger  *slog.Logger
	rules   map[string]nuclia.TaxonomyRules
	stagger time.Duration
}

// New wires a syncer. All collaborators are injected; the syncer holds
// no ambient state.
func New(cfg *config.Config, source content.Source, queueStore *queue.Store, records *indexstore.Store, remote RemoteClient, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = logging.NewNop()
	}
	stagger := time.Duration(cfg.Indexing.StaggerSeconds) * time.Second
	if stagger <= 0 {
		stagger = 2 * time.Second
	}
	return &Syncer{
		cfg:     cfg,
		source:  source,
		queue:   queueStore,
		records: records,
		remote:  remote,
		logger:  logging.NewComponentLogger(logger, "syncer"),
		rules:   nuclia.RulesFromConfig(cfg),
		stagger: stagger,
	}
}

// SaveEvent describes one content mutation as reported by the host
// system.
type SaveEvent struct {
	ContentID int64
	Autosave  bool
}

// HandleContentSaved reacts to a create or update of a content item.
// Autosaves, disallowed types, and items that are not publicly visible
// are skipped; a previously indexed item that loses visibility keeps
// its remote copy and simply stops receiving updates.
func (s *Syncer) HandleContentSaved(ctx context.Context, event SaveEvent) error {
	if event.Autosave {
		return nil
	}
	item, err := s.source.Item(ctx, event.ContentID)
	if err != nil {
		if services.IsSkippable(err) {
			return nil
		}
		return err
	}
	if !s.cfg.IndexableType(item.Type) {
		return nil
	}
	if !item.PubliclyVisible() {
		return nil
	}
	return s.indexItem(ctx, item)
}

// HandleContentDeleted removes the remote resource for a deleted item.
// Items that were never indexed are a no-op. A failed remote delete is
// logged but the local record is removed either way: the content is
// gone, so re-associating it later is never correct.
func (s *Syncer) HandleContentDeleted(ctx context.Context, contentID int64) error {
	rid, err := s.records.Get(ctx, contentID)
	if err != nil {
		return err
	}
	if rid == "" {
		return nil
	}
	if err := s.remote.DeleteResource(ctx, rid); err != nil {
		s.logger.Error("remote delete failed",
			logging.Int64(logging.FieldContentID, contentID),
			logging.String(logging.FieldResourceID, rid),
			logging.Error(err),
		)
	}
	return s.records.Delete(ctx, contentID)
}

// indexItem creates or modifies the remote resource for an item and
// persists the resulting record.
func (s *Syncer) indexItem(ctx context.Context, item *content.Item) error {
	payload := nuclia.BuildPayload(item, nuclia.PayloadOptions{
		DefaultLanguage: s.cfg.Indexing.Language,
		Rules:           s.rules,
	})

	rid, err := s.records.Get(ctx, item.ID)
	if err != nil {
		return err
	}

	if rid != "" {
		seq, err := s.remote.ModifyResource(ctx, rid, payload)
		if err != nil {
			return err
		}
		return s.records.Upsert(ctx, item.ID, rid, seqString(seq))
	}

	result, err := s.remote.CreateResource(ctx, payload)
	if err != nil {
		return err
	}
	seq := result.SeqID

	if item.IsAttachment() && item.FilePath != "" {
		uploadSeq, err := s.remote.UploadFile(ctx, result.RID, item.FilePath, item.MimeType)
		if err != nil {
			// The resource exists; the binary can be retried by a reindex.
			s.logger.Warn("attachment upload failed",
				logging.Int64(logging.FieldContentID, item.ID),
				logging.String(logging.FieldResourceID, result.RID),
				logging.Error(err),
			)
		} else if uploadSeq != nil {
			seq = uploadSeq
		}
	}

	return s.records.Upsert(ctx, item.ID, result.RID, seqString(seq))
}

// relabelItem rebuilds only the classification block for an already
// indexed item.
func (s *Syncer) relabelItem(ctx context.Context, item *content.Item, rid string) error {
	payload := nuclia.BuildPayload(item, nuclia.PayloadOptions{
		DefaultLanguage: s.cfg.Indexing.Language,
		Rules:           s.rules,
	})
	var classifications []nuclia.Classification
	if payload.UserMetadata != nil {
		classifications = payload.UserMetadata.Classifications
	}
	return s.remote.UpdateResourceLabels(ctx, rid, classifications)
}

func seqString(seq *int64) string {
	if seq == nil {
		return ""
	}
	return strconv.FormatInt(*seq, 10)
}

func isNotFound(err error) bool {
	return errors.Is(err, services.ErrNotFound)
}
