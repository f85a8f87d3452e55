package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrNotFound = sql.ErrNoRows

// ScoreRepo is the audit log of issued scores.
//
// Expected schema:
//
//	create table handwriting_scores (
//	    id          bigserial primary key,
//	    created_at  timestamptz not null default now(),
//	    image_hash  text not null,
//	    model       text not null,
//	    target_text text not null,
//	    score       double precision not null
//	);
//	create index on handwriting_scores (image_hash, created_at desc);
type ScoreRepo struct{ DB *sql.DB }

func NewScoreRepo(db *sql.DB) *ScoreRepo { return &ScoreRepo{DB: db} }

type ScoreRow struct {
	ID         int64
	CreatedAt  time.Time
	ImageHash  string
	Model      string
	TargetText string
	Score      float64
}

func (r *ScoreRepo) Insert(ctx context.Context, imageHash, model, targetText string, score float64) error {
	const q = `
insert into handwriting_scores (image_hash, model, target_text, score)
values ($1,$2,$3,$4)`
	_, err := r.DB.ExecContext(ctx, q, imageHash, model, targetText, score)
	return err
}

// FindByHash fetches the freshest score for (image_hash, model,
// target_text). Inference is deterministic, so a hit can be replayed
// instead of re-running the model. If maxAge > 0 older rows are treated
// as misses.
func (r *ScoreRepo) FindByHash(ctx context.Context, imageHash, model, targetText string, maxAge time.Duration) (*ScoreRow, error) {
	const q = `
select id, created_at, image_hash, model, target_text, score
from handwriting_scores
where image_hash = $1 and model = $2 and target_text = $3
order by created_at desc
limit 1`
	row := r.DB.QueryRowContext(ctx, q, imageHash, model, targetText)

	var sr ScoreRow
	if err := row.Scan(&sr.ID, &sr.CreatedAt, &sr.ImageHash, &sr.Model, &sr.TargetText, &sr.Score); err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(sr.CreatedAt) > maxAge {
		return nil, ErrNotFound
	}
	return &sr, nil
}

// PurgeOlderThan deletes old audit rows so the table does not grow
// without bound.
func (r *ScoreRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	const q = `delete from handwriting_scores where created_at < $1`
	res, err := r.DB.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
