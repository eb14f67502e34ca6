package yamdb

import (
	"context"

	"github.com/uptrace/bun"
)

type tableSpec struct {
	model       any
	foreignKeys []string
}

func schemaTables() []tableSpec {
	return []tableSpec{
		{model: (*User)(nil)},
		{model: (*Category)(nil)},
		{model: (*Genre)(nil)},
		{
			model: (*Title)(nil),
			foreignKeys: []string{
				`("category_id") REFERENCES "categories" ("id") ON DELETE SET NULL`,
			},
		},
		{
			model: (*TitleGenre)(nil),
			foreignKeys: []string{
				`("title_id") REFERENCES "titles" ("id") ON DELETE CASCADE`,
				`("genre_id") REFERENCES "genres" ("id") ON DELETE CASCADE`,
			},
		},
		{
			model: (*Review)(nil),
			foreignKeys: []string{
				`("author_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
				`("title_id") REFERENCES "titles" ("id") ON DELETE CASCADE`,
			},
		},
		{
			model: (*Comment)(nil),
			foreignKeys: []string{
				`("author_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
				`("review_id") REFERENCES "reviews" ("id") ON DELETE CASCADE`,
			},
		},
	}
}

type indexSpec struct {
	model  any
	name   string
	column string
}

func schemaIndexes() []indexSpec {
	return []indexSpec{
		{model: (*Review)(nil), name: "reviews_title_pub_date_idx", column: "title_id, pub_date"},
		{model: (*Comment)(nil), name: "comments_review_pub_date_idx", column: "review_id, pub_date"},
		{model: (*TitleGenre)(nil), name: "title_genres_genre_idx", column: "genre_id"},
	}
}

// CreateSchema creates every table and index if missing. It is safe to run
// on every start.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	db.RegisterModel((*TitleGenre)(nil))

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, t := range schemaTables() {
			q := tx.NewCreateTable().Model(t.model).IfNotExists()
			for _, fk := range t.foreignKeys {
				q = q.ForeignKey(fk)
			}
			if _, err := q.Exec(ctx); err != nil {
				return internalError(err, "failed to create table")
			}
		}

		for _, idx := range schemaIndexes() {
			_, err := tx.NewCreateIndex().
				Model(idx.model).
				Index(idx.name).
				IfNotExists().
				ColumnExpr(idx.column).
				Exec(ctx)
			if err != nil {
				return internalError(err, "failed to create index "+idx.name)
			}
		}

		return nil
	})
}

// DropSchema removes every table, children first.
func DropSchema(ctx context.Context, db *bun.DB) error {
	tables := schemaTables()
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(tables[i].model).IfExists().Cascade().Exec(ctx); err != nil {
			return internalError(err, "failed to drop table")
		}
	}
	return nil
}
