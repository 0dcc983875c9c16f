package handler_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/renardhq/renard/internal/handler"
	"github.com/renardhq/renard/internal/pkg/jwt"
	"github.com/renardhq/renard/internal/repo"
	"github.com/renardhq/renard/internal/service"
	"github.com/renardhq/renard/internal/vecstore"
	"github.com/renardhq/renard/test/testutil"
)

var testJWTSecret = []byte("test-secret")

const testDimension = 4

// memEmbedder returns fixed-size vectors without calling a provider.
type memEmbedder struct {
	mu         sync.Mutex
	batchCalls int
}

func (e *memEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return make([]float32, testDimension), nil
}

func (e *memEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	e.mu.Lock()
	e.batchCalls++
	e.mu.Unlock()
	vecs := make([][]float32, len(texts))
	for i := range vecs {
		vecs[i] = make([]float32, testDimension)
	}
	return vecs, nil
}

func (e *memEmbedder) ModelName() string { return "mem-embed" }
func (e *memEmbedder) Dimension() int    { return testDimension }

// memIndex keeps points in a map and answers searches with insertion order.
type memIndex struct {
	mu     sync.Mutex
	points map[string]vecstore.Point
	order  []string
}

func newMemIndex() *memIndex {
	return &memIndex{points: map[string]vecstore.Point{}}
}

func (m *memIndex) Upsert(ctx context.Context, collection string, points []vecstore.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		if _, ok := m.points[p.ID]; !ok {
			m.order = append(m.order, p.ID)
		}
		m.points[p.ID] = p
	}
	return nil
}

func (m *memIndex) matches(p vecstore.Point, filter map[string]string) bool {
	for key, want := range filter {
		got, _ := p.Payload[key].(string)
		if got != want {
			return false
		}
	}
	return true
}

func (m *memIndex) Search(ctx context.Context, collection string, vector []float32, limit int, filter map[string]string) ([]vecstore.ScoredID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]vecstore.ScoredID, 0)
	score := float32(1.0)
	for _, id := range m.order {
		if len(results) >= limit {
			break
		}
		if m.matches(m.points[id], filter) {
			results = append(results, vecstore.ScoredID{ID: id, Score: score})
			score -= 0.01
		}
	}
	return results, nil
}

func (m *memIndex) Scroll(ctx context.Context, collection string, filter map[string]string, pageLimit int, offset string) ([]vecstore.ScrolledPoint, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	points := make([]vecstore.ScrolledPoint, 0, len(m.order))
	for _, id := range m.order {
		p := m.points[id]
		if m.matches(p, filter) {
			points = append(points, vecstore.ScrolledPoint{ID: id, Payload: p.Payload})
		}
	}
	return points, "", nil
}

func (m *memIndex) Delete(ctx context.Context, collection string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.points, id)
	}
	return nil
}

func setupRouter(t *testing.T) (http.Handler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	activityRepo := repo.NewActivityRepo(db)
	embedder := &memEmbedder{}
	index := newMemIndex()

	ingestService := service.NewIngestService(activityRepo)
	activityService := service.NewActivityService(activityRepo, embedder, index, nil, "activities")
	processorService := service.NewProcessorService(activityRepo, embedder, index, "activities", time.Millisecond)
	graphService := service.NewGraphService(index, "activities")

	deps := handler.RouterDeps{
		Messages:   handler.NewMessageHandler(ingestService),
		Activities: handler.NewActivityHandler(activityService),
		Processing: handler.NewProcessingHandler(processorService),
		Graph:      handler.NewGraphHandler(graphService),
		JWTSecret:  testJWTSecret,
	}

	engine := gin.New()
	handler.RegisterRoutes(engine.Group("/api/v1"), deps)
	return engine, cleanup
}

func bearerToken(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, role, testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return "Bearer " + token
}
