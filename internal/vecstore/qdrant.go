package vecstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/renardhq/renard/internal/pkg/logutil"
)

// Point is one index entry: a vector keyed by the activity id with a
// filterable payload mirror of the record.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]interface{}
}

type ScoredID struct {
	ID    string
	Score float32
}

type ScrolledPoint struct {
	ID      string
	Payload map[string]interface{}
}

// Store wraps the qdrant grpc API. One instance is shared for the process
// lifetime and injected by reference into the services that need it.
type Store struct {
	conn        *grpc.ClientConn
	collections qdrant.CollectionsClient
	points      qdrant.PointsClient
}

func New(host string, port int) (*Store, error) {
	target := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect qdrant %s: %w", target, err)
	}
	return &Store{
		conn:        conn,
		collections: qdrant.NewCollectionsClient(conn),
		points:      qdrant.NewPointsClient(conn),
	}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureCollection creates the collection and its keyword payload indexes if
// they do not exist yet. Re-running against an existing collection is a
// no-op.
func (s *Store) EnsureCollection(ctx context.Context, name string, dimension int, distance string) error {
	logger := logutil.GetLogger(ctx).With(zap.String("collection", name))
	_, err := s.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: name,
	})
	if err != nil {
		st, ok := status.FromError(err)
		if !ok || st.Code() != codes.NotFound {
			return fmt.Errorf("check collection: %w", err)
		}
		logger.Info("creating collection", zap.Int("dimension", dimension), zap.String("distance", distance))
		_, err = s.collections.Create(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: &qdrant.VectorsConfig{
				Config: &qdrant.VectorsConfig_Params{
					Params: &qdrant.VectorParams{
						Size:     uint64(dimension),
						Distance: parseDistance(distance),
					},
				},
			},
		})
		if err != nil && !alreadyExists(err) {
			return fmt.Errorf("create collection: %w", err)
		}
	}
	// Keyword indexes let search filter by owner/team without a full scan.
	for _, field := range []string{"user_id", "team_id"} {
		fieldType := qdrant.FieldType_FieldTypeKeyword
		_, err := s.points.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: name,
			FieldName:      field,
			FieldType:      &fieldType,
		})
		if err != nil && !alreadyExists(err) {
			return fmt.Errorf("create field index %s: %w", field, err)
		}
	}
	return nil
}

// Upsert writes all points in one call and waits for them to be applied, so
// a subsequent search sees them. Re-upserting an id overwrites the entry.
func (s *Store) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	qpoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		qpoints = append(qpoints, &qdrant.PointStruct{
			Id:      pointID(p.ID),
			Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: p.Vector}}},
			Payload: toPayload(p.Payload),
		})
	}
	wait := true
	_, err := s.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         qpoints,
	})
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

// Search returns ids ordered by descending similarity. The filter is a
// conjunction of exact keyword matches on payload fields.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, limit int, filter map[string]string) ([]ScoredID, error) {
	resp, err := s.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(limit),
		Filter:         buildFilter(filter),
	})
	if err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}
	results := make([]ScoredID, 0, len(resp.Result))
	for _, hit := range resp.Result {
		results = append(results, ScoredID{ID: hit.Id.GetUuid(), Score: hit.Score})
	}
	return results, nil
}

// Scroll enumerates points without ranking. offset is the opaque cursor from
// a previous page ("" for the first page); the returned cursor is "" when
// the collection is exhausted.
func (s *Store) Scroll(ctx context.Context, collection string, filter map[string]string, pageLimit int, offset string) ([]ScrolledPoint, string, error) {
	limit := uint32(pageLimit)
	req := &qdrant.ScrollPoints{
		CollectionName: collection,
		Filter:         buildFilter(filter),
		Limit:          &limit,
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if offset != "" {
		req.Offset = pointID(offset)
	}
	resp, err := s.points.Scroll(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("scroll points: %w", err)
	}
	points := make([]ScrolledPoint, 0, len(resp.Result))
	for _, item := range resp.Result {
		points = append(points, ScrolledPoint{
			ID:      item.Id.GetUuid(),
			Payload: fromPayload(item.Payload),
		})
	}
	next := ""
	if resp.NextPageOffset != nil {
		next = resp.NextPageOffset.GetUuid()
	}
	return points, next, nil
}

// Delete removes the given ids. Missing ids are not an error.
func (s *Store) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	qids := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		qids = append(qids, pointID(id))
	}
	wait := true
	_, err := s.points.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           &wait,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: qids},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete points: %w", err)
	}
	return nil
}

func pointID(id string) *qdrant.PointId {
	return &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: id}}
}

func parseDistance(distance string) qdrant.Distance {
	switch strings.ToLower(distance) {
	case "euclid", "euclidean":
		return qdrant.Distance_Euclid
	case "dot":
		return qdrant.Distance_Dot
	default:
		return qdrant.Distance_Cosine
	}
}

func buildFilter(filter map[string]string) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, 0, len(filter))
	for key, value := range filter {
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   key,
					Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: value}},
				},
			},
		})
	}
	return &qdrant.Filter{Must: conditions}
}

func alreadyExists(err error) bool {
	if st, ok := status.FromError(err); ok && st.Code() == codes.AlreadyExists {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
