package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/renardhq/renard/internal/model"
	appErr "github.com/renardhq/renard/internal/pkg/errors"
	"github.com/renardhq/renard/internal/vecstore"
)

type fakeStore struct {
	records map[string]*model.Activity
	order   []string
	nextCt  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]*model.Activity{}}
}

func (s *fakeStore) add(act *model.Activity) {
	if act.Ctime == 0 {
		s.nextCt++
		act.Ctime = s.nextCt
	}
	s.records[act.ID] = act
	s.order = append(s.order, act.ID)
}

func (s *fakeStore) Create(ctx context.Context, act *model.Activity) error {
	clone := *act
	s.add(&clone)
	return nil
}

func (s *fakeStore) CreateBatch(ctx context.Context, acts []*model.Activity) error {
	for _, act := range acts {
		clone := *act
		s.add(&clone)
	}
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, userID, id string) (*model.Activity, error) {
	act, ok := s.records[id]
	if !ok || act.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	clone := *act
	return &clone, nil
}

func (s *fakeStore) ListByIDs(ctx context.Context, userID string, ids []string) ([]model.Activity, error) {
	var out []model.Activity
	for _, id := range ids {
		if act, ok := s.records[id]; ok && act.UserID == userID {
			out = append(out, *act)
		}
	}
	return out, nil
}

func (s *fakeStore) List(ctx context.Context, userID, teamID string, limit, offset uint) ([]model.Activity, error) {
	var out []model.Activity
	for _, id := range s.order {
		act := s.records[id]
		if act.UserID != userID {
			continue
		}
		if teamID != "" && act.TeamID != teamID {
			continue
		}
		out = append(out, *act)
	}
	return out, nil
}

func (s *fakeStore) ListUnprocessed(ctx context.Context, teamID string, limit int) ([]model.Activity, error) {
	var out []model.Activity
	for _, act := range s.records {
		if act.Processed {
			continue
		}
		if teamID != "" && act.TeamID != teamID {
			continue
		}
		out = append(out, *act)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ctime < out[j].Ctime })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) MarkProcessed(ctx context.Context, id, vectorID string, mtime int64) error {
	act, ok := s.records[id]
	if !ok {
		return appErr.ErrNotFound
	}
	act.Processed = true
	act.VectorID = &vectorID
	act.Mtime = mtime
	return nil
}

func (s *fakeStore) RecordFailure(ctx context.Context, ids []string, message string, mtime int64) error {
	for _, id := range ids {
		if act, ok := s.records[id]; ok {
			act.AttemptCount++
			msg := message
			act.LastError = &msg
		}
	}
	return nil
}

func (s *fakeStore) CountUnprocessed(ctx context.Context, teamID string) (int64, error) {
	acts, err := s.ListUnprocessed(ctx, teamID, len(s.records)+1)
	if err != nil {
		return 0, err
	}
	return int64(len(acts)), nil
}

func (s *fakeStore) Stats(ctx context.Context, userID, teamID string) (*model.ActivityStats, error) {
	stats := &model.ActivityStats{}
	for _, act := range s.records {
		if act.UserID != userID {
			continue
		}
		if teamID != "" && act.TeamID != teamID {
			continue
		}
		stats.Total++
		if act.Processed {
			stats.Processed++
		}
	}
	stats.Unprocessed = stats.Total - stats.Processed
	return stats, nil
}

func (s *fakeStore) Delete(ctx context.Context, userID, id string) error {
	act, ok := s.records[id]
	if !ok || act.UserID != userID {
		return appErr.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

const fakeDimension = 4

type fakeEmbedder struct {
	batchCalls  int
	singleCalls int
	failOnCall  map[int]error
	failSingle  error
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{failOnCall: map[int]error{}}
}

func (e *fakeEmbedder) vectorFor(text string) []float32 {
	vec := make([]float32, fakeDimension)
	vec[0] = float32(len(text))
	return vec
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.singleCalls++
	if e.failSingle != nil {
		return nil, e.failSingle
	}
	return e.vectorFor(text), nil
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	e.batchCalls++
	if err := e.failOnCall[e.batchCalls]; err != nil {
		return nil, err
	}
	vecs := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vecs = append(vecs, e.vectorFor(text))
	}
	return vecs, nil
}

func (e *fakeEmbedder) ModelName() string { return "fake-embed" }

func (e *fakeEmbedder) Dimension() int { return fakeDimension }

type fakeIndex struct {
	points        map[string]vecstore.Point
	upsertCalls   int
	failUpsert    error
	searchResults []vecstore.ScoredID
	scrollPoints  []vecstore.ScrolledPoint
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{points: map[string]vecstore.Point{}}
}

func (f *fakeIndex) Upsert(ctx context.Context, collection string, points []vecstore.Point) error {
	f.upsertCalls++
	if f.failUpsert != nil {
		return f.failUpsert
	}
	for _, p := range points {
		f.points[p.ID] = p
	}
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, collection string, vector []float32, limit int, filter map[string]string) ([]vecstore.ScoredID, error) {
	if f.searchResults != nil {
		if len(f.searchResults) > limit {
			return f.searchResults[:limit], nil
		}
		return f.searchResults, nil
	}
	var out []vecstore.ScoredID
	for id, p := range f.points {
		if matchesFilter(p.Payload, filter) {
			out = append(out, vecstore.ScoredID{ID: id, Score: 1})
		}
	}
	return out, nil
}

func (f *fakeIndex) Scroll(ctx context.Context, collection string, filter map[string]string, pageLimit int, offset string) ([]vecstore.ScrolledPoint, string, error) {
	if f.scrollPoints != nil {
		return f.scrollPoints, "", nil
	}
	var out []vecstore.ScrolledPoint
	for id, p := range f.points {
		if matchesFilter(p.Payload, filter) {
			out = append(out, vecstore.ScrolledPoint{ID: id, Payload: p.Payload})
		}
	}
	return out, "", nil
}

func (f *fakeIndex) Delete(ctx context.Context, collection string, ids []string) error {
	for _, id := range ids {
		delete(f.points, id)
	}
	return nil
}

func matchesFilter(payload map[string]interface{}, filter map[string]string) bool {
	for key, want := range filter {
		got, _ := payload[key].(string)
		if got != want {
			return false
		}
	}
	return true
}

func seedBacklog(store *fakeStore, n int, teamID string) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("00000000-0000-0000-0000-%012d", i)
		store.add(&model.Activity{
			ID:           id,
			UserID:       "user-1",
			TeamID:       teamID,
			ActivityType: "chat",
			Content:      fmt.Sprintf("captured context %d", i),
			Metadata:     model.Metadata{},
		})
		ids = append(ids, id)
	}
	return ids
}
