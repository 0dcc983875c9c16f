package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/lib/pq"

	"github.com/renardhq/renard/internal/model"
	"github.com/renardhq/renard/internal/pkg/dbutil"
	appErr "github.com/renardhq/renard/internal/pkg/errors"
)

var activityColumns = []string{
	"id", "user_id", "team_id", "activity_type", "content", "metadata",
	"processed", "vector_id", "attempt_count", "last_error", "ctime", "mtime",
}

type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Create(ctx context.Context, act *model.Activity) error {
	return r.CreateBatch(ctx, []*model.Activity{act})
}

func (r *ActivityRepo) CreateBatch(ctx context.Context, acts []*model.Activity) error {
	if len(acts) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(acts))
	for _, act := range acts {
		meta, err := act.Metadata.Encode()
		if err != nil {
			return err
		}
		rows = append(rows, map[string]interface{}{
			"id":            act.ID,
			"user_id":       act.UserID,
			"team_id":       act.TeamID,
			"activity_type": act.ActivityType,
			"content":       act.Content,
			"metadata":      meta,
			"processed":     act.Processed,
			"vector_id":     act.VectorID,
			"attempt_count": act.AttemptCount,
			"last_error":    act.LastError,
			"ctime":         act.Ctime,
			"mtime":         act.Mtime,
		})
	}
	sqlStr, args, err := builder.BuildInsert("activities", rows)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ActivityRepo) GetByID(ctx context.Context, userID, id string) (*model.Activity, error) {
	where := map[string]interface{}{
		"id":      id,
		"user_id": userID,
	}
	acts, err := r.query(ctx, where)
	if err != nil {
		return nil, err
	}
	if len(acts) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &acts[0], nil
}

// ListByIDs fetches the caller's activities for a set of ids, in no
// particular order. Used to rehydrate search hits from the primary store.
func (r *ActivityRepo) ListByIDs(ctx context.Context, userID string, ids []string) ([]model.Activity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	where := map[string]interface{}{
		"id in":   ids,
		"user_id": userID,
	}
	return r.query(ctx, where)
}

func (r *ActivityRepo) List(ctx context.Context, userID, teamID string, limit, offset uint) ([]model.Activity, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
		"_limit":   []uint{offset, limit},
	}
	if teamID != "" {
		where["team_id"] = teamID
	}
	return r.query(ctx, where)
}

// ListUnprocessed returns the oldest part of the backlog, oldest first, so
// that stale context is drained before fresh context.
func (r *ActivityRepo) ListUnprocessed(ctx context.Context, teamID string, limit int) ([]model.Activity, error) {
	where := map[string]interface{}{
		"processed": false,
		"_orderby":  "ctime asc",
		"_limit":    []uint{0, uint(limit)},
	}
	if teamID != "" {
		where["team_id"] = teamID
	}
	return r.query(ctx, where)
}

func (r *ActivityRepo) MarkProcessed(ctx context.Context, id, vectorID string, mtime int64) error {
	where := map[string]interface{}{
		"id": id,
	}
	update := map[string]interface{}{
		"processed":  true,
		"vector_id":  vectorID,
		"last_error": nil,
		"mtime":      mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("activities", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// RecordFailure bumps the attempt counter and stores the last error for a
// chunk that could not be embedded or indexed. The records stay
// processed=false so the next run picks them up again.
func (r *ActivityRepo) RecordFailure(ctx context.Context, ids []string, message string, mtime int64) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `
		UPDATE activities
		SET attempt_count = attempt_count + 1, last_error = $1, mtime = $2
		WHERE id = ANY($3)
	`
	_, err := r.db.ExecContext(ctx, query, message, mtime, pq.Array(ids))
	return err
}

func (r *ActivityRepo) CountUnprocessed(ctx context.Context, teamID string) (int64, error) {
	query := `SELECT COUNT(*) FROM activities WHERE processed = FALSE`
	args := []interface{}{}
	if teamID != "" {
		query += ` AND team_id = $1`
		args = append(args, teamID)
	}
	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ActivityRepo) Stats(ctx context.Context, userID, teamID string) (*model.ActivityStats, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE processed)
		FROM activities
		WHERE user_id = $1
	`
	args := []interface{}{userID}
	if teamID != "" {
		query += ` AND team_id = $2`
		args = append(args, teamID)
	}
	var stats model.ActivityStats
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&stats.Total, &stats.Processed); err != nil {
		return nil, err
	}
	stats.Unprocessed = stats.Total - stats.Processed
	return &stats, nil
}

func (r *ActivityRepo) Delete(ctx context.Context, userID, id string) error {
	where := map[string]interface{}{
		"id":      id,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildDelete("activities", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *ActivityRepo) query(ctx context.Context, where map[string]interface{}) ([]model.Activity, error) {
	sqlStr, args, err := builder.BuildSelect("activities", where, activityColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var acts []model.Activity
	for rows.Next() {
		act, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		acts = append(acts, *act)
	}
	return acts, rows.Err()
}

func scanActivity(rows *sql.Rows) (*model.Activity, error) {
	var act model.Activity
	var meta string
	var vectorID, lastError sql.NullString
	if err := rows.Scan(
		&act.ID, &act.UserID, &act.TeamID, &act.ActivityType, &act.Content, &meta,
		&act.Processed, &vectorID, &act.AttemptCount, &lastError, &act.Ctime, &act.Mtime,
	); err != nil {
		return nil, err
	}
	if vectorID.Valid {
		act.VectorID = &vectorID.String
	}
	if lastError.Valid {
		act.LastError = &lastError.String
	}
	decoded, err := model.DecodeMetadata(meta)
	if err != nil {
		return nil, err
	}
	act.Metadata = decoded
	return &act, nil
}
