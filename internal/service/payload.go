package service

import (
	"github.com/renardhq/renard/internal/model"
	"github.com/renardhq/renard/internal/pkg/timeutil"
	"github.com/renardhq/renard/internal/vecstore"
)

// buildPoint mirrors the record into the index payload so filtered search
// results can be rendered without a join back to the primary store.
func buildPoint(act *model.Activity, vector []float32) vecstore.Point {
	return vecstore.Point{
		ID:     act.ID,
		Vector: vector,
		Payload: map[string]interface{}{
			"activity_id":   act.ID,
			"user_id":       act.UserID,
			"team_id":       act.TeamID,
			"activity_type": act.ActivityType,
			"content":       act.Content,
			"timestamp":     timeutil.ToISO(act.Ctime),
			"metadata":      map[string]interface{}(act.Metadata),
		},
	}
}
