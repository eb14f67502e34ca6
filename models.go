package yamdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus tracks where a user is in the registration flow.
type UserStatus string

const (
	// UserStatusPending means a confirmation code was issued but never exchanged
	UserStatusPending UserStatus = "pending"
	// UserStatusActive means at least one token exchange succeeded
	UserStatusActive UserStatus = "active"
)

// User is the user model
type User struct {
	bun.BaseModel    `bun:"table:users,alias:usr"`
	ID               uuid.UUID  `bun:"id,pk,type:uuid" json:"-"`
	Username         string     `bun:"username,notnull,unique" json:"username"`
	Email            string     `bun:"email,notnull,unique" json:"email"`
	Role             UserRole   `bun:"role,notnull" json:"role"`
	IsSuperuser      bool       `bun:"is_superuser,notnull" json:"-"`
	FirstName        string     `bun:"first_name,notnull" json:"first_name"`
	LastName         string     `bun:"last_name,notnull" json:"last_name"`
	Bio              string     `bun:"bio,notnull" json:"bio"`
	Status           UserStatus `bun:"status,notnull" json:"-"`
	ConfirmationCode string     `bun:"confirmation_code,notnull" json:"-"`
	CodeNonce        string     `bun:"code_nonce,notnull" json:"-"`
	CodeIssuedAt     *time.Time `bun:"code_issued_at,nullzero" json:"-"`
	LastLoginAt      *time.Time `bun:"last_login_at,nullzero" json:"-"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"-"`
	UpdatedAt        time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"-"`
}

// IsAdmin reports whether the user has admin clearance, either through the
// role or the superuser flag.
func (u *User) IsAdmin() bool {
	return u != nil && (u.IsSuperuser || u.Role == RoleAdmin)
}

// IsModerator reports whether the user holds the moderator role.
func (u *User) IsModerator() bool {
	return u != nil && u.Role == RoleModerator
}

// Category groups titles by kind (film, book, music...).
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"-"`
	Name          string    `bun:"name,notnull" json:"name"`
	Slug          string    `bun:"slug,notnull,unique" json:"slug"`
}

// Genre tags titles. A title may carry many genres.
type Genre struct {
	bun.BaseModel `bun:"table:genres,alias:gnr"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"-"`
	Name          string    `bun:"name,notnull" json:"name"`
	Slug          string    `bun:"slug,notnull,unique" json:"slug"`
}

// Title is a rateable work. Rating is derived on read and never stored.
type Title struct {
	bun.BaseModel `bun:"table:titles,alias:ttl"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Name          string     `bun:"name,notnull" json:"name"`
	Year          int        `bun:"year,notnull" json:"year"`
	Description   string     `bun:"description,notnull" json:"description"`
	CategoryID    *uuid.UUID `bun:"category_id,type:uuid" json:"-"`
	Category      *Category  `bun:"rel:belongs-to,join:category_id=id" json:"category"`
	Genres        []*Genre   `bun:"m2m:title_genres,join:Title=Genre" json:"genre"`
	Rating        *float64   `bun:"-" json:"rating"`
}

// TitleGenre is the join table between titles and genres.
type TitleGenre struct {
	bun.BaseModel `bun:"table:title_genres,alias:tg"`
	TitleID       uuid.UUID `bun:"title_id,pk,type:uuid"`
	Title         *Title    `bun:"rel:belongs-to,join:title_id=id"`
	GenreID       uuid.UUID `bun:"genre_id,pk,type:uuid"`
	Genre         *Genre    `bun:"rel:belongs-to,join:genre_id=id"`
}

// Review is a scored opinion on a title. One per (author, title).
type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:rvw"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	AuthorID      uuid.UUID `bun:"author_id,notnull,type:uuid,unique:reviews_author_title"`
	Author        *User     `bun:"rel:belongs-to,join:author_id=id"`
	TitleID       uuid.UUID `bun:"title_id,notnull,type:uuid,unique:reviews_author_title"`
	Title         *Title    `bun:"rel:belongs-to,join:title_id=id"`
	Text          string    `bun:"text,notnull"`
	Score         int       `bun:"score,notnull"`
	PubDate       time.Time `bun:"pub_date,nullzero,notnull,default:current_timestamp"`
}

// Comment is a reply attached to a review.
type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:cmt"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	AuthorID      uuid.UUID `bun:"author_id,notnull,type:uuid"`
	Author        *User     `bun:"rel:belongs-to,join:author_id=id"`
	ReviewID      uuid.UUID `bun:"review_id,notnull,type:uuid"`
	Review        *Review   `bun:"rel:belongs-to,join:review_id=id"`
	Text          string    `bun:"text,notnull"`
	PubDate       time.Time `bun:"pub_date,nullzero,notnull,default:current_timestamp"`
}

// AuthorUsername returns the author's username when the relation is loaded.
func (r *Review) AuthorUsername() string {
	if r == nil || r.Author == nil {
		return ""
	}
	return r.Author.Username
}

// AuthorUsername returns the author's username when the relation is loaded.
func (c *Comment) AuthorUsername() string {
	if c == nil || c.Author == nil {
		return ""
	}
	return c.Author.Username
}

// Page is a limit/offset window over a list. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}
