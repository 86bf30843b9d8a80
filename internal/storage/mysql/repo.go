package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	drv "github.com/go-sql-driver/mysql"

	"review_boost/internal/domain"
)

// MySQL error number for a duplicate key on a unique index.
const errDupEntry = 1062

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valNonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// mapErr turns driver errors into domain sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var me *drv.MySQLError
	if errors.As(err, &me) && me.Number == errDupEntry {
		return fmt.Errorf("%w: %s", domain.ErrConflict, me.Message)
	}
	return err
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) InsertReview(ctx context.Context, sr domain.SubmittedReview) error {
	_, err := r.db.ExecContext(ctx, insertReviewSQL,
		sr.ReviewText,
		sr.UniqueCode,
		sr.BusinessName,
		valStr(sr.PhotoURL),
	)
	return mapErr(err)
}

func (r *Repo) InsertPreferences(ctx context.Context, p domain.DemoPreferences) error {
	_, err := r.db.ExecContext(ctx, insertPreferencesSQL,
		p.RestaurantName,
		p.GoogleMapsURL,
		valNonEmpty(p.ContactEmail),
	)
	return mapErr(err)
}

func (r *Repo) LatestPreferences(ctx context.Context) (domain.DemoPreferences, error) {
	var p domain.DemoPreferences
	var email sql.NullString
	err := r.db.QueryRowContext(ctx, latestPreferencesSQL).Scan(&p.RestaurantName, &p.GoogleMapsURL, &email)
	if err != nil {
		return domain.DemoPreferences{}, mapErr(err)
	}
	p.ContactEmail = email.String
	return p, nil
}

func (r *Repo) InsertDemoPage(ctx context.Context, p domain.DemoPage) (domain.DemoPage, error) {
	res, err := r.db.ExecContext(ctx, insertDemoPageSQL,
		p.RestaurantName,
		p.GoogleMapsURL,
		valStr(p.ContactEmail),
		p.Slug,
	)
	if err != nil {
		return domain.DemoPage{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.DemoPage{}, err
	}
	p.ID = id
	return p, nil
}

func (r *Repo) GetDemoPage(ctx context.Context, slug string) (domain.DemoPage, error) {
	var p domain.DemoPage
	var email sql.NullString
	err := r.db.QueryRowContext(ctx, getDemoPageSQL, slug).
		Scan(&p.ID, &p.RestaurantName, &p.GoogleMapsURL, &email, &p.Slug)
	if err != nil {
		return domain.DemoPage{}, mapErr(err)
	}
	if email.Valid {
		e := email.String
		p.ContactEmail = &e
	}
	return p, nil
}
