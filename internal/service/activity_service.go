package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/renardhq/renard/internal/ai"
	"github.com/renardhq/renard/internal/model"
	appErr "github.com/renardhq/renard/internal/pkg/errors"
	"github.com/renardhq/renard/internal/pkg/logutil"
	"github.com/renardhq/renard/internal/pkg/timeutil"
	"github.com/renardhq/renard/internal/vecstore"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	maxListLimit       = 200
)

type SearchHit struct {
	Activity model.Activity `json:"activity"`
	Score    float32        `json:"score"`
}

// ActivityService owns the synchronous ingest+embed path and the read
// surface (get/list/search/delete).
type ActivityService struct {
	activities activityStore
	embedder   ai.IEmbedder
	index      vectorIndex
	cache      embeddingCache
	collection string
	queryCache *expirable.LRU[string, []float32]
}

func NewActivityService(activities activityStore, embedder ai.IEmbedder, index vectorIndex, cache embeddingCache, collection string) *ActivityService {
	return &ActivityService{
		activities: activities,
		embedder:   embedder,
		index:      index,
		cache:      cache,
		collection: collection,
		queryCache: expirable.NewLRU[string, []float32](10000, nil, 2*time.Hour),
	}
}

// Create persists the record and then embeds and indexes it inline. The
// write always succeeds if the insert does; an embedding or index failure
// leaves the record unprocessed for the next batch run and is reported as a
// warning, not an error.
func (s *ActivityService) Create(ctx context.Context, userID string, input ActivityInput) (*model.Activity, string, error) {
	if err := input.validate(); err != nil {
		return nil, "", err
	}
	act := input.toActivity(userID, timeutil.NowUnix())
	if err := s.activities.Create(ctx, act); err != nil {
		return nil, "", err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("activity_id", act.ID), zap.String("user_id", userID))

	vector, err := s.embedCached(ctx, act.Content, ai.TaskDocument)
	if err != nil {
		logger.Warn("inline embedding failed, record left unprocessed", zap.Error(err))
		_ = s.activities.RecordFailure(ctx, []string{act.ID}, err.Error(), timeutil.NowUnix())
		return act, "embedding deferred: " + err.Error(), nil
	}
	if err := s.index.Upsert(ctx, s.collection, []vecstore.Point{buildPoint(act, vector)}); err != nil {
		logger.Warn("inline index upsert failed, record left unprocessed", zap.Error(err))
		_ = s.activities.RecordFailure(ctx, []string{act.ID}, err.Error(), timeutil.NowUnix())
		return act, "indexing deferred: " + err.Error(), nil
	}
	if err := s.activities.MarkProcessed(ctx, act.ID, act.ID, timeutil.NowUnix()); err != nil {
		return nil, "", err
	}
	act.Processed = true
	vectorID := act.ID
	act.VectorID = &vectorID
	return act, "", nil
}

func (s *ActivityService) Get(ctx context.Context, userID, id string) (*model.Activity, error) {
	return s.activities.GetByID(ctx, userID, id)
}

func (s *ActivityService) List(ctx context.Context, userID, teamID string, limit, offset uint) ([]model.Activity, error) {
	if limit == 0 || limit > maxListLimit {
		limit = 50
	}
	return s.activities.List(ctx, userID, teamID, limit, offset)
}

// Search embeds the query, runs a filtered similarity search scoped to the
// caller, then re-fetches the matching records from the primary store for
// display fidelity.
func (s *ActivityService) Search(ctx context.Context, userID, teamID, query string, limit int) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, appErr.ErrInvalid
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	filter := map[string]string{"user_id": userID}
	if teamID != "" {
		filter["team_id"] = teamID
	}
	scored, err := s.index.Search(ctx, s.collection, vector, limit, filter)
	if err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(scored))
	for _, hit := range scored {
		ids = append(ids, hit.ID)
	}
	acts, err := s.activities.ListByIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Activity, len(acts))
	for _, act := range acts {
		byID[act.ID] = act
	}
	hits := make([]SearchHit, 0, len(scored))
	for _, item := range scored {
		act, ok := byID[item.ID]
		if !ok {
			// Index entry without a row: stale vector, skip it.
			continue
		}
		hits = append(hits, SearchHit{Activity: act, Score: item.Score})
	}
	return hits, nil
}

// Delete removes the record and its vector. Removing a vector that was
// never written is a no-op on the index side.
func (s *ActivityService) Delete(ctx context.Context, userID, id string) error {
	act, err := s.activities.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.activities.Delete(ctx, userID, id); err != nil {
		return err
	}
	if act.VectorID != nil {
		if err := s.index.Delete(ctx, s.collection, []string{*act.VectorID}); err != nil {
			logutil.GetLogger(ctx).Error("vector delete failed after row delete",
				zap.String("activity_id", id), zap.Error(err))
			return err
		}
	}
	return nil
}

func (s *ActivityService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	key := contentHash(query)
	if cached, ok := s.queryCache.Get(key); ok {
		return cached, nil
	}
	vector, err := s.embedCached(ctx, query, ai.TaskQuery)
	if err != nil {
		return nil, err
	}
	s.queryCache.Add(key, vector)
	return vector, nil
}

// embedCached consults the durable embedding cache before calling the
// provider, so repeated identical content costs one provider call.
func (s *ActivityService) embedCached(ctx context.Context, text, taskType string) ([]float32, error) {
	hash := contentHash(text)
	if s.cache != nil {
		if vector, ok, err := s.cache.Get(ctx, s.embedder.ModelName(), taskType, hash); err == nil && ok {
			return vector, nil
		}
	}
	vector, err := s.embedder.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Save(ctx, &model.EmbeddingCache{
			ModelName:   s.embedder.ModelName(),
			TaskType:    taskType,
			ContentHash: hash,
			Embedding:   vector,
			Ctime:       timeutil.NowUnix(),
		})
	}
	return vector, nil
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
