package yamdb

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	DB() *bun.DB
	Users() Users
	Categories() repository.Repository[*Category]
	Genres() repository.Repository[*Genre]
	Titles() Titles
	Reviews() Reviews
	Comments() Comments
}

type mngr struct {
	db         *bun.DB
	users      Users
	categories repository.Repository[*Category]
	genres     repository.Repository[*Genre]
	titles     Titles
	reviews    Reviews
	comments   Comments
}

// NewRepositoryManager wires every store over the same database handle.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:         db,
		users:      NewUsersRepository(db),
		categories: NewCategoriesRepository(db),
		genres:     NewGenresRepository(db),
		titles:     NewTitlesRepository(db),
		reviews:    NewReviewsRepository(db),
		comments:   NewCommentsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository manager requires a database handle")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.categories == nil || m.genres == nil || m.titles == nil {
		return errors.New("catalog repositories should be initialized")
	}

	if m.reviews == nil || m.comments == nil {
		return errors.New("review repositories should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) DB() *bun.DB {
	return m.db
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Categories() repository.Repository[*Category] {
	return m.categories
}

func (m mngr) Genres() repository.Repository[*Genre] {
	return m.genres
}

func (m mngr) Titles() Titles {
	return m.titles
}

func (m mngr) Reviews() Reviews {
	return m.reviews
}

func (m mngr) Comments() Comments {
	return m.comments
}
