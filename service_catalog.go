package yamdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CatalogInput creates a category or a genre.
type CatalogInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TitleInput creates a title. Category and genres are given by slug.
type TitleInput struct {
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Genre       []string `json:"genre"`
}

// TitlePatch is a partial title update. Nil fields are left untouched.
type TitlePatch struct {
	Name        *string   `json:"name"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Genre       *[]string `json:"genre"`
}

// CatalogService manages categories, genres and titles.
type CatalogService struct {
	repo    RepositoryManager
	ratings *RatingAggregator
	now     func() time.Time
}

// NewCatalogService returns a catalog service over repo.
func NewCatalogService(repo RepositoryManager, ratings *RatingAggregator) *CatalogService {
	if ratings == nil {
		ratings = NewRatingAggregator(repo.Reviews())
	}
	return &CatalogService{repo: repo, ratings: ratings, now: time.Now}
}

// WithClock injects a clock used for the year check.
func (s *CatalogService) WithClock(clock func() time.Time) *CatalogService {
	if clock != nil {
		s.now = clock
	}
	return s
}

func (s *CatalogService) ListCategories(ctx context.Context, search string, page Page) ([]*Category, int, error) {
	records, count, err := s.repo.Categories().List(ctx, SearchByName(search), OrderByName(), Paginate(page))
	if err != nil {
		return nil, 0, internalError(err, "failed to list categories")
	}
	return records, count, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor *Actor, in CatalogInput) (*Category, error) {
	if err := Authorize(actor, Resource{Kind: ResourceCategory}, ActionCreate); err != nil {
		return nil, err
	}

	record := &Category{ID: uuid.New(), Name: in.Name, Slug: in.Slug}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.Categories().GetByIdentifier(ctx, record.Slug); err == nil {
		return nil, ConflictError("slug", "a category with that slug already exists")
	} else if !isRecordNotFound(err) {
		return nil, internalError(err, "failed to check category slug")
	}

	created, err := s.repo.Categories().Create(ctx, record)
	if err != nil {
		return nil, translateStoreError(err, "slug", "category", record.Slug)
	}
	return created, nil
}

// DeleteCategory removes the category. Titles in it lose their category.
func (s *CatalogService) DeleteCategory(ctx context.Context, actor *Actor, slug string) error {
	if err := Authorize(actor, Resource{Kind: ResourceCategory}, ActionDelete); err != nil {
		return err
	}

	record, err := s.repo.Categories().GetByIdentifier(ctx, slug)
	if err != nil {
		return translateStoreError(err, "slug", "category", slug)
	}

	return s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Titles().DetachCategoryTx(ctx, tx, record.ID); err != nil {
			return err
		}
		_, err := tx.NewDelete().Model((*Category)(nil)).Where("id = ?", record.ID).Exec(ctx)
		return translateStoreError(err, "slug", "category", slug)
	})
}

func (s *CatalogService) ListGenres(ctx context.Context, search string, page Page) ([]*Genre, int, error) {
	records, count, err := s.repo.Genres().List(ctx, SearchByName(search), OrderByName(), Paginate(page))
	if err != nil {
		return nil, 0, internalError(err, "failed to list genres")
	}
	return records, count, nil
}

func (s *CatalogService) CreateGenre(ctx context.Context, actor *Actor, in CatalogInput) (*Genre, error) {
	if err := Authorize(actor, Resource{Kind: ResourceGenre}, ActionCreate); err != nil {
		return nil, err
	}

	record := &Genre{ID: uuid.New(), Name: in.Name, Slug: in.Slug}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.Genres().GetByIdentifier(ctx, record.Slug); err == nil {
		return nil, ConflictError("slug", "a genre with that slug already exists")
	} else if !isRecordNotFound(err) {
		return nil, internalError(err, "failed to check genre slug")
	}

	created, err := s.repo.Genres().Create(ctx, record)
	if err != nil {
		return nil, translateStoreError(err, "slug", "genre", record.Slug)
	}
	return created, nil
}

// DeleteGenre removes the genre and unlinks it from every title.
func (s *CatalogService) DeleteGenre(ctx context.Context, actor *Actor, slug string) error {
	if err := Authorize(actor, Resource{Kind: ResourceGenre}, ActionDelete); err != nil {
		return err
	}

	record, err := s.repo.Genres().GetByIdentifier(ctx, slug)
	if err != nil {
		return translateStoreError(err, "slug", "genre", slug)
	}

	return s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Titles().DetachGenreTx(ctx, tx, record.ID); err != nil {
			return err
		}
		_, err := tx.NewDelete().Model((*Genre)(nil)).Where("id = ?", record.ID).Exec(ctx)
		return translateStoreError(err, "slug", "genre", slug)
	})
}

// ListTitles returns filtered titles with their current ratings.
func (s *CatalogService) ListTitles(ctx context.Context, filter TitleFilter, page Page) ([]*Title, int, error) {
	records, count, err := s.repo.Titles().List(ctx, filter, page)
	if err != nil {
		return nil, 0, err
	}

	if err := s.ratings.Apply(ctx, records...); err != nil {
		return nil, 0, err
	}

	return records, count, nil
}

// GetTitle returns one title with its current rating.
func (s *CatalogService) GetTitle(ctx context.Context, id uuid.UUID) (*Title, error) {
	record, err := s.repo.Titles().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if record.Rating, err = s.ratings.Rating(ctx, id); err != nil {
		return nil, err
	}

	return record, nil
}

func (s *CatalogService) CreateTitle(ctx context.Context, actor *Actor, in TitleInput) (*Title, error) {
	if err := Authorize(actor, Resource{Kind: ResourceTitle}, ActionCreate); err != nil {
		return nil, err
	}

	if err := ValidateTitle(in.Name, in.Year, s.now()); err != nil {
		return nil, err
	}

	record := &Title{
		ID:          uuid.New(),
		Name:        in.Name,
		Year:        in.Year,
		Description: in.Description,
	}

	var err error
	if record.CategoryID, err = s.resolveCategory(ctx, in.Category); err != nil {
		return nil, err
	}

	genreIDs, err := s.resolveGenres(ctx, in.Genre)
	if err != nil {
		return nil, err
	}

	var created *Title
	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err = s.repo.Titles().CreateTx(ctx, tx, record, genreIDs)
		return err
	})
	if err != nil {
		return nil, internalError(err, "failed to create title")
	}

	return created, nil
}

func (s *CatalogService) UpdateTitle(ctx context.Context, actor *Actor, id uuid.UUID, patch TitlePatch) (*Title, error) {
	if err := Authorize(actor, Resource{Kind: ResourceTitle}, ActionUpdate); err != nil {
		return nil, err
	}

	record, err := s.repo.Titles().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	columns := []string{}
	if patch.Name != nil {
		record.Name = *patch.Name
		columns = append(columns, "name")
	}
	if patch.Year != nil {
		record.Year = *patch.Year
		columns = append(columns, "year")
	}
	if patch.Description != nil {
		record.Description = *patch.Description
		columns = append(columns, "description")
	}

	if err := ValidateTitle(record.Name, record.Year, s.now()); err != nil {
		return nil, err
	}

	if patch.Category != nil {
		if record.CategoryID, err = s.resolveCategory(ctx, *patch.Category); err != nil {
			return nil, err
		}
		columns = append(columns, "category_id")
	}

	var genreIDs []uuid.UUID
	if patch.Genre != nil {
		if genreIDs, err = s.resolveGenres(ctx, *patch.Genre); err != nil {
			return nil, err
		}
		if genreIDs == nil {
			genreIDs = []uuid.UUID{}
		}
	}

	var updated *Title
	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		updated, err = s.repo.Titles().UpdateTx(ctx, tx, record, columns, genreIDs)
		return err
	})
	if err != nil {
		return nil, internalError(err, "failed to update title")
	}

	if updated.Rating, err = s.ratings.Rating(ctx, id); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteTitle removes the title, its reviews and their comments.
func (s *CatalogService) DeleteTitle(ctx context.Context, actor *Actor, id uuid.UUID) error {
	if err := Authorize(actor, Resource{Kind: ResourceTitle}, ActionDelete); err != nil {
		return err
	}

	return s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Titles().DeleteTx(ctx, tx, id)
	})
}

func (s *CatalogService) resolveCategory(ctx context.Context, slug string) (*uuid.UUID, error) {
	if slug == "" {
		return nil, nil
	}

	record, err := s.repo.Categories().GetByIdentifier(ctx, slug)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ValidationError(map[string]string{"category": "unknown category slug " + slug})
		}
		return nil, internalError(err, "failed to resolve category")
	}

	return &record.ID, nil
}

func (s *CatalogService) resolveGenres(ctx context.Context, slugs []string) ([]uuid.UUID, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	records, _, err := s.repo.Genres().List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.slug IN (?)", bun.In(slugs))
	})
	if err != nil {
		return nil, internalError(err, "failed to resolve genres")
	}

	bySlug := make(map[string]uuid.UUID, len(records))
	for _, g := range records {
		bySlug[g.Slug] = g.ID
	}

	ids := make([]uuid.UUID, 0, len(slugs))
	for _, slug := range slugs {
		id, ok := bySlug[slug]
		if !ok {
			return nil, ValidationError(map[string]string{"genre": "unknown genre slug " + slug})
		}
		ids = append(ids, id)
	}

	return ids, nil
}
