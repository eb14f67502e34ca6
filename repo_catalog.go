package yamdb

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewCategoriesRepository returns a slug keyed repository for categories.
func NewCategoriesRepository(db *bun.DB) repository.Repository[*Category] {
	handlers := repository.ModelHandlers[*Category]{
		NewRecord: func() *Category {
			return &Category{}
		},
		GetID: func(record *Category) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Category, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
	}
	return repository.NewRepository(db, handlers)
}

// NewGenresRepository returns a slug keyed repository for genres.
func NewGenresRepository(db *bun.DB) repository.Repository[*Genre] {
	handlers := repository.ModelHandlers[*Genre]{
		NewRecord: func() *Genre {
			return &Genre{}
		},
		GetID: func(record *Genre) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Genre, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
	}
	return repository.NewRepository(db, handlers)
}

// SearchByName filters a catalog list by a case insensitive name fragment.
func SearchByName(search string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if search == "" {
			return q
		}
		return q.Where("LOWER(?TableAlias.name) LIKE LOWER(?)", "%"+search+"%")
	}
}

// OrderByName sorts a catalog list alphabetically.
func OrderByName() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.name ASC")
	}
}

// Paginate applies a limit/offset window.
func Paginate(page Page) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return applyPage(q, page)
	}
}

// TitleFilter narrows a title listing. Zero values are ignored.
type TitleFilter struct {
	Category string
	Genre    string
	Name     string
	Year     int
}

// Titles is the title store. Genres are kept in the title_genres join table.
type Titles interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Title, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Title, error)
	List(ctx context.Context, filter TitleFilter, page Page) ([]*Title, int, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Title, genreIDs []uuid.UUID) (*Title, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *Title, columns []string, genreIDs []uuid.UUID) (*Title, error)
	DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	DetachCategoryTx(ctx context.Context, tx bun.IDB, categoryID uuid.UUID) error
	DetachGenreTx(ctx context.Context, tx bun.IDB, genreID uuid.UUID) error
}

type titles struct {
	db *bun.DB
}

var _ Titles = (*titles)(nil)

// NewTitlesRepository returns the bun backed title store.
func NewTitlesRepository(db *bun.DB) Titles {
	db.RegisterModel((*TitleGenre)(nil))
	return &titles{db: db}
}

func (r *titles) GetByID(ctx context.Context, id uuid.UUID) (*Title, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

func (r *titles) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Title, error) {
	record := &Title{}
	err := tx.NewSelect().
		Model(record).
		Relation("Category").
		Relation("Genres", orderGenres).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, translateStoreError(err, "id", "title", id.String())
	}
	return normalizeTitle(record), nil
}

func (r *titles) List(ctx context.Context, filter TitleFilter, page Page) ([]*Title, int, error) {
	var records []*Title
	q := r.db.NewSelect().
		Model(&records).
		Relation("Category").
		Relation("Genres", orderGenres)

	if filter.Category != "" {
		q = q.Where("?TableAlias.category_id IN (?)",
			r.db.NewSelect().
				TableExpr("categories AS c").
				Column("c.id").
				Where("c.slug = ?", filter.Category))
	}

	if filter.Genre != "" {
		q = q.Where("?TableAlias.id IN (?)",
			r.db.NewSelect().
				TableExpr("title_genres AS tg").
				Column("tg.title_id").
				Join("JOIN genres AS g ON g.id = tg.genre_id").
				Where("g.slug = ?", filter.Genre))
	}

	if filter.Name != "" {
		q = q.Where("LOWER(?TableAlias.name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}

	if filter.Year != 0 {
		q = q.Where("?TableAlias.year = ?", filter.Year)
	}

	q = applyPage(q.OrderExpr("?TableAlias.name ASC").OrderExpr("?TableAlias.id ASC"), page)

	count, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, internalError(err, "failed to list titles")
	}
	for _, t := range records {
		normalizeTitle(t)
	}
	return records, count, nil
}

func (r *titles) CreateTx(ctx context.Context, tx bun.IDB, record *Title, genreIDs []uuid.UUID) (*Title, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, translateStoreError(err, "name", "title", record.Name)
	}

	if err := r.replaceGenresTx(ctx, tx, record.ID, genreIDs); err != nil {
		return nil, err
	}

	return r.GetByIDTx(ctx, tx, record.ID)
}

// UpdateTx writes the named columns. A nil genreIDs leaves the genre set
// untouched, an empty slice clears it.
func (r *titles) UpdateTx(ctx context.Context, tx bun.IDB, record *Title, columns []string, genreIDs []uuid.UUID) (*Title, error) {
	if len(columns) > 0 {
		res, err := tx.NewUpdate().Model(record).Column(columns...).WherePK().Exec(ctx)
		if err != nil {
			return nil, translateStoreError(err, "name", "title", record.ID.String())
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, NotFoundError("title", record.ID.String())
		}
	}

	if genreIDs != nil {
		if err := r.replaceGenresTx(ctx, tx, record.ID, genreIDs); err != nil {
			return nil, err
		}
	}

	return r.GetByIDTx(ctx, tx, record.ID)
}

// DeleteTx removes the title along with its reviews and their comments.
func (r *titles) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	reviewIDs := tx.NewSelect().Model((*Review)(nil)).Column("id").Where("title_id = ?", id)

	if _, err := tx.NewDelete().Model((*Comment)(nil)).Where("review_id IN (?)", reviewIDs).Exec(ctx); err != nil {
		return internalError(err, "failed to delete title comments")
	}

	if _, err := tx.NewDelete().Model((*Review)(nil)).Where("title_id = ?", id).Exec(ctx); err != nil {
		return internalError(err, "failed to delete title reviews")
	}

	if _, err := tx.NewDelete().Model((*TitleGenre)(nil)).Where("title_id = ?", id).Exec(ctx); err != nil {
		return internalError(err, "failed to delete title genres")
	}

	res, err := tx.NewDelete().Model((*Title)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return internalError(err, "failed to delete title")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NotFoundError("title", id.String())
	}

	return nil
}

// DetachCategoryTx clears the category of every title that references it.
func (r *titles) DetachCategoryTx(ctx context.Context, tx bun.IDB, categoryID uuid.UUID) error {
	_, err := tx.NewUpdate().
		Model((*Title)(nil)).
		Set("category_id = NULL").
		Where("category_id = ?", categoryID).
		Exec(ctx)
	return translateStoreError(err, "category", "category", categoryID.String())
}

// DetachGenreTx removes a genre from every title that carries it.
func (r *titles) DetachGenreTx(ctx context.Context, tx bun.IDB, genreID uuid.UUID) error {
	_, err := tx.NewDelete().Model((*TitleGenre)(nil)).Where("genre_id = ?", genreID).Exec(ctx)
	return translateStoreError(err, "genre", "genre", genreID.String())
}

func (r *titles) replaceGenresTx(ctx context.Context, tx bun.IDB, titleID uuid.UUID, genreIDs []uuid.UUID) error {
	if _, err := tx.NewDelete().Model((*TitleGenre)(nil)).Where("title_id = ?", titleID).Exec(ctx); err != nil {
		return internalError(err, "failed to reset title genres")
	}

	if len(genreIDs) == 0 {
		return nil
	}

	links := make([]*TitleGenre, 0, len(genreIDs))
	seen := make(map[uuid.UUID]struct{}, len(genreIDs))
	for _, id := range genreIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		links = append(links, &TitleGenre{TitleID: titleID, GenreID: id})
	}

	if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
		return internalError(err, "failed to link title genres")
	}

	return nil
}

// normalizeTitle drops an empty category left by the outer join and makes
// sure genres render as a list.
func normalizeTitle(t *Title) *Title {
	if t == nil {
		return nil
	}
	if t.CategoryID == nil || (t.Category != nil && t.Category.ID == uuid.Nil) {
		t.Category = nil
	}
	if t.Genres == nil {
		t.Genres = []*Genre{}
	}
	return t
}

func orderGenres(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("?TableAlias.name ASC")
}

func stampNow(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}
