package yamdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Reviews is the review store. It also feeds the rating aggregator.
type Reviews interface {
	RatingSource

	ListByTitle(ctx context.Context, titleID uuid.UUID, page Page) ([]*Review, int, error)
	GetForTitle(ctx context.Context, titleID, reviewID uuid.UUID) (*Review, error)
	ExistsForAuthorTx(ctx context.Context, tx bun.IDB, authorID, titleID uuid.UUID) (bool, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Review) (*Review, error)
	Update(ctx context.Context, record *Review, columns ...string) (*Review, error)
	DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

// Comments is the comment store.
type Comments interface {
	ListByReview(ctx context.Context, reviewID uuid.UUID, page Page) ([]*Comment, int, error)
	GetForReview(ctx context.Context, reviewID, commentID uuid.UUID) (*Comment, error)
	Create(ctx context.Context, record *Comment) (*Comment, error)
	Update(ctx context.Context, record *Comment, columns ...string) (*Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type reviews struct {
	db *bun.DB
}

var _ Reviews = (*reviews)(nil)

// NewReviewsRepository returns the bun backed review store.
func NewReviewsRepository(db *bun.DB) Reviews {
	return &reviews{db: db}
}

func (r *reviews) ListByTitle(ctx context.Context, titleID uuid.UUID, page Page) ([]*Review, int, error) {
	var records []*Review
	q := r.db.NewSelect().
		Model(&records).
		Relation("Author").
		Where("?TableAlias.title_id = ?", titleID).
		OrderExpr("?TableAlias.pub_date DESC").
		OrderExpr("?TableAlias.id ASC")

	count, err := applyPage(q, page).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, internalError(err, "failed to list reviews")
	}
	return records, count, nil
}

func (r *reviews) GetForTitle(ctx context.Context, titleID, reviewID uuid.UUID) (*Review, error) {
	record := &Review{}
	err := r.db.NewSelect().
		Model(record).
		Relation("Author").
		Where("?TableAlias.id = ?", reviewID).
		Where("?TableAlias.title_id = ?", titleID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, translateStoreError(err, "id", "review", reviewID.String())
	}
	return record, nil
}

func (r *reviews) ExistsForAuthorTx(ctx context.Context, tx bun.IDB, authorID, titleID uuid.UUID) (bool, error) {
	exists, err := tx.NewSelect().
		Model((*Review)(nil)).
		Where("author_id = ?", authorID).
		Where("title_id = ?", titleID).
		Exists(ctx)
	if err != nil {
		return false, internalError(err, "failed to check review uniqueness")
	}
	return exists, nil
}

func (r *reviews) CreateTx(ctx context.Context, tx bun.IDB, record *Review) (*Review, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		if IsUniqueViolation(err) {
			return nil, duplicateReviewError()
		}
		return nil, translateStoreError(err, "review", "review", record.ID.String())
	}
	return record, nil
}

func (r *reviews) Update(ctx context.Context, record *Review, columns ...string) (*Review, error) {
	q := r.db.NewUpdate().Model(record).WherePK()
	if len(columns) > 0 {
		q = q.Column(columns...)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, translateStoreError(err, "review", "review", record.ID.String())
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, NotFoundError("review", record.ID.String())
	}
	return record, nil
}

// DeleteTx removes the review and every comment attached to it.
func (r *reviews) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	if _, err := tx.NewDelete().Model((*Comment)(nil)).Where("review_id = ?", id).Exec(ctx); err != nil {
		return internalError(err, "failed to delete review comments")
	}

	res, err := tx.NewDelete().Model((*Review)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return internalError(err, "failed to delete review")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NotFoundError("review", id.String())
	}
	return nil
}

func (r *reviews) ScoresForTitle(ctx context.Context, titleID uuid.UUID) ([]int, error) {
	var scores []int
	err := r.db.NewSelect().
		Model((*Review)(nil)).
		Column("score").
		Where("title_id = ?", titleID).
		Scan(ctx, &scores)
	if err != nil && !isRecordNotFound(err) {
		return nil, err
	}
	return scores, nil
}

type titleAverage struct {
	TitleID uuid.UUID `bun:"title_id"`
	Average float64   `bun:"average"`
}

// AverageScores runs one grouped query for all the given titles.
func (r *reviews) AverageScores(ctx context.Context, titleIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	var rows []titleAverage
	err := r.db.NewSelect().
		Model((*Review)(nil)).
		Column("title_id").
		ColumnExpr("AVG(CAST(score AS DOUBLE PRECISION)) AS average").
		Where("title_id IN (?)", bun.In(titleIDs)).
		Group("title_id").
		Scan(ctx, &rows)
	if err != nil && !isRecordNotFound(err) {
		return nil, err
	}

	out := make(map[uuid.UUID]float64, len(rows))
	for _, row := range rows {
		out[row.TitleID] = row.Average
	}
	return out, nil
}

func duplicateReviewError() error {
	return ConflictError("title", "this author has already reviewed the title")
}

type comments struct {
	db *bun.DB
}

var _ Comments = (*comments)(nil)

// NewCommentsRepository returns the bun backed comment store.
func NewCommentsRepository(db *bun.DB) Comments {
	return &comments{db: db}
}

func (r *comments) ListByReview(ctx context.Context, reviewID uuid.UUID, page Page) ([]*Comment, int, error) {
	var records []*Comment
	q := r.db.NewSelect().
		Model(&records).
		Relation("Author").
		Where("?TableAlias.review_id = ?", reviewID).
		OrderExpr("?TableAlias.pub_date DESC").
		OrderExpr("?TableAlias.id ASC")

	count, err := applyPage(q, page).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, internalError(err, "failed to list comments")
	}
	return records, count, nil
}

func (r *comments) GetForReview(ctx context.Context, reviewID, commentID uuid.UUID) (*Comment, error) {
	record := &Comment{}
	err := r.db.NewSelect().
		Model(record).
		Relation("Author").
		Where("?TableAlias.id = ?", commentID).
		Where("?TableAlias.review_id = ?", reviewID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, translateStoreError(err, "id", "comment", commentID.String())
	}
	return record, nil
}

func (r *comments) Create(ctx context.Context, record *Comment) (*Comment, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, translateStoreError(err, "comment", "comment", record.ID.String())
	}
	return record, nil
}

func (r *comments) Update(ctx context.Context, record *Comment, columns ...string) (*Comment, error) {
	q := r.db.NewUpdate().Model(record).WherePK()
	if len(columns) > 0 {
		q = q.Column(columns...)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, translateStoreError(err, "comment", "comment", record.ID.String())
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, NotFoundError("comment", record.ID.String())
	}
	return record, nil
}

func (r *comments) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().Model((*Comment)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return internalError(err, "failed to delete comment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NotFoundError("comment", id.String())
	}
	return nil
}
