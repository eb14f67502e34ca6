package yamdb

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the identity store. Username and email are unique; the store's
// constraints are the single point of truth for concurrent sign-ups.
type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)

	CreateOrGet(ctx context.Context, record *User) (*User, bool, error)
	CreateOrGetTx(ctx context.Context, tx bun.IDB, record *User) (*User, bool, error)
	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	Update(ctx context.Context, record *User, columns ...string) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *User, columns ...string) (*User, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error

	List(ctx context.Context, search string, page Page) ([]*User, int, error)
	Delete(ctx context.Context, record *User) error
	DeleteTx(ctx context.Context, tx bun.IDB, record *User) error
}

type users struct {
	db  *bun.DB
	now func() time.Time
}

var _ Users = (*users)(nil)

// NewUsersRepository returns the bun backed identity store.
func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db, now: time.Now}
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

func (a *users) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().Model(record).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, translateStoreError(err, "id", "user", id.String())
	}
	return record, nil
}

func (a *users) FindByUsername(ctx context.Context, username string) (*User, error) {
	return a.FindByUsernameTx(ctx, a.db, username)
}

func (a *users) FindByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().Model(record).Where("?TableAlias.username = ?", username).Limit(1).Scan(ctx)
	if err != nil {
		return nil, translateStoreError(err, "username", "user", username)
	}
	return record, nil
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().Model(record).Where("?TableAlias.email = ?", email).Limit(1).Scan(ctx)
	if err != nil {
		return nil, translateStoreError(err, "email", "user", email)
	}
	return record, nil
}

func (a *users) CreateOrGet(ctx context.Context, record *User) (*User, bool, error) {
	return a.CreateOrGetTx(ctx, a.db, record)
}

// CreateOrGetTx reuses a record matching both username and email exactly,
// creates one when neither is taken and fails with a conflict when the pair
// partially collides with a distinct record. The boolean reports creation.
func (a *users) CreateOrGetTx(ctx context.Context, tx bun.IDB, record *User) (*User, bool, error) {
	byUsername, err := a.FindByUsernameTx(ctx, tx, record.Username)
	if err != nil && !IsNotFound(err) {
		return nil, false, err
	}

	if byUsername != nil {
		if byUsername.Email == record.Email {
			return byUsername, false, nil
		}
		return nil, false, ConflictError("username", "a user with that username already exists")
	}

	if _, err := a.FindByEmailTx(ctx, tx, record.Email); err == nil {
		return nil, false, ConflictError("email", "a user with that email already exists")
	} else if !IsNotFound(err) {
		return nil, false, err
	}

	created, err := a.CreateTx(ctx, tx, record)
	if err != nil {
		return nil, false, err
	}

	return created, true, nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record, a.now())
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, translateStoreError(err, uniqueUserField(err), "user", record.Username)
	}
	return record, nil
}

func (a *users) Update(ctx context.Context, record *User, columns ...string) (*User, error) {
	return a.UpdateTx(ctx, a.db, record, columns...)
}

// UpdateTx persists the given columns, or every column when none are named.
func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, record *User, columns ...string) (*User, error) {
	record.UpdatedAt = a.now()
	q := tx.NewUpdate().Model(record).WherePK()
	if len(columns) > 0 {
		q = q.Column(append(columns, "updated_at")...)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, translateStoreError(err, uniqueUserField(err), "user", record.Username)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, NotFoundError("user", record.Username)
	}

	return record, nil
}

func (a *users) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus) error {
	_, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", a.now()).
		Where("id = ?", id).
		Exec(ctx)
	return translateStoreError(err, "status", "user", id.String())
}

func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	loggedInAt := a.now()
	_, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("last_login_at = ?", loggedInAt).
		Where("id = ?", user.ID).
		Exec(ctx)
	if err != nil {
		return translateStoreError(err, "last_login_at", "user", user.Username)
	}
	user.LastLoginAt = &loggedInAt
	return nil
}

func (a *users) List(ctx context.Context, search string, page Page) ([]*User, int, error) {
	var records []*User
	q := a.db.NewSelect().Model(&records).OrderExpr("?TableAlias.username ASC")
	if search != "" {
		q = q.Where("?TableAlias.username LIKE ?", "%"+search+"%")
	}
	q = applyPage(q, page)

	count, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, internalError(err, "failed to list users")
	}
	return records, count, nil
}

func (a *users) Delete(ctx context.Context, record *User) error {
	return a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return a.DeleteTx(ctx, tx, record)
	})
}

// DeleteTx removes the user together with the reviews and comments they
// authored, and the comments left on those reviews.
func (a *users) DeleteTx(ctx context.Context, tx bun.IDB, record *User) error {
	reviewIDs := tx.NewSelect().Model((*Review)(nil)).Column("id").Where("author_id = ?", record.ID)

	if _, err := tx.NewDelete().Model((*Comment)(nil)).
		Where("author_id = ? OR review_id IN (?)", record.ID, reviewIDs).
		Exec(ctx); err != nil {
		return internalError(err, "failed to delete user comments")
	}

	if _, err := tx.NewDelete().Model((*Review)(nil)).Where("author_id = ?", record.ID).Exec(ctx); err != nil {
		return internalError(err, "failed to delete user reviews")
	}

	res, err := tx.NewDelete().Model((*User)(nil)).Where("id = ?", record.ID).Exec(ctx)
	if err != nil {
		return internalError(err, "failed to delete user")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NotFoundError("user", record.Username)
	}

	return nil
}

func prepareUserDefaults(record *User, now time.Time) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	if record.Status == "" {
		record.Status = UserStatusPending
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
}

func uniqueUserField(err error) string {
	if err == nil {
		return ""
	}
	if strings.Contains(err.Error(), "email") {
		return "email"
	}
	return "username"
}

func applyPage(q *bun.SelectQuery, page Page) *bun.SelectQuery {
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	return q
}
