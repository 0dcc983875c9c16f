package service

import (
	"context"
	"strings"

	"github.com/renardhq/renard/internal/model"
	appErr "github.com/renardhq/renard/internal/pkg/errors"
	"github.com/renardhq/renard/internal/pkg/timeutil"
)

// ActivityInput is one raw record as submitted by a caller. The owning user
// comes from the auth context, never from the body.
type ActivityInput struct {
	ActivityType string         `json:"activityType"`
	Content      string         `json:"content"`
	TeamID       string         `json:"teamId"`
	Metadata     model.Metadata `json:"metadata"`
}

func (in *ActivityInput) validate() error {
	if strings.TrimSpace(in.ActivityType) == "" {
		return appErr.ErrInvalid
	}
	if strings.TrimSpace(in.Content) == "" {
		return appErr.ErrInvalid
	}
	if strings.TrimSpace(in.TeamID) == "" {
		return appErr.ErrInvalid
	}
	return in.Metadata.Validate()
}

func (in *ActivityInput) toActivity(userID string, now int64) *model.Activity {
	meta := in.Metadata
	if meta == nil {
		meta = model.Metadata{}
	}
	return &model.Activity{
		ID:           newID(),
		UserID:       userID,
		TeamID:       in.TeamID,
		ActivityType: in.ActivityType,
		Content:      in.Content,
		Metadata:     meta,
		Processed:    false,
		Ctime:        now,
		Mtime:        now,
	}
}

// IngestService is the buffered fast path: records are persisted with
// processed=false and embedding is left to the batch processor. It never
// calls the embedding provider.
type IngestService struct {
	activities activityStore
}

func NewIngestService(activities activityStore) *IngestService {
	return &IngestService{activities: activities}
}

func (s *IngestService) CreateMessage(ctx context.Context, userID string, input ActivityInput) (*model.Activity, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	act := input.toActivity(userID, timeutil.NowUnix())
	if err := s.activities.Create(ctx, act); err != nil {
		return nil, err
	}
	return act, nil
}

// CreateMessages persists a batch in one insert. Validation runs over the
// whole batch before any side effect, so a bad element rejects the request
// without partial writes.
func (s *IngestService) CreateMessages(ctx context.Context, userID string, inputs []ActivityInput) ([]*model.Activity, error) {
	if len(inputs) == 0 {
		return nil, appErr.ErrInvalid
	}
	for i := range inputs {
		if err := inputs[i].validate(); err != nil {
			return nil, err
		}
	}
	now := timeutil.NowUnix()
	acts := make([]*model.Activity, 0, len(inputs))
	for i := range inputs {
		acts = append(acts, inputs[i].toActivity(userID, now))
	}
	if err := s.activities.CreateBatch(ctx, acts); err != nil {
		return nil, err
	}
	return acts, nil
}

func (s *IngestService) Stats(ctx context.Context, userID, teamID string) (*model.ActivityStats, error) {
	return s.activities.Stats(ctx, userID, teamID)
}
