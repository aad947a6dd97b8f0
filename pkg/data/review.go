package data

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/mchmarny/revrank/pkg/score"
)

const (
	upsertReviewSQL = `INSERT INTO review (asin, reviewer_id, reviewer_name, review_text,
			summary, overall, day_diff, helpful_yes, total_vote, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (asin, reviewer_id) DO UPDATE SET
			reviewer_name = excluded.reviewer_name,
			review_text = excluded.review_text,
			summary = excluded.summary,
			overall = excluded.overall,
			day_diff = excluded.day_diff,
			helpful_yes = excluded.helpful_yes,
			total_vote = excluded.total_vote,
			seq = excluded.seq
	`

	selectReviewsSQL = `SELECT asin, reviewer_id, reviewer_name, review_text, summary,
			overall, day_diff, helpful_yes, total_vote, seq
		FROM review
		WHERE asin = COALESCE(?, asin)
		  AND total_vote >= ?
		ORDER BY seq, asin, reviewer_id
	`

	selectRatingsSQL = `SELECT overall, day_diff
		FROM review
		WHERE asin = COALESCE(?, asin)
		ORDER BY seq, asin, reviewer_id
	`

	selectProductsSQL = `SELECT asin,
			COUNT(*) AS reviews,
			COALESCE(AVG(overall), 0) AS average_stars,
			COALESCE(SUM(total_vote), 0) AS votes
		FROM review
		GROUP BY asin
		ORDER BY reviews DESC, asin
	`

	selectMaxSeqSQL = `SELECT COALESCE(MAX(seq), 0) FROM review`

	deleteReviewsSQL = `DELETE FROM review`
)

// Review is a single product review and the helpfulness votes it received.
type Review struct {
	ASIN         string  `db:"asin" json:"asin" yaml:"asin"`
	ReviewerID   string  `db:"reviewer_id" json:"reviewer_id" yaml:"reviewerID"`
	ReviewerName string  `db:"reviewer_name" json:"reviewer_name,omitempty" yaml:"reviewerName,omitempty"`
	Text         string  `db:"review_text" json:"text,omitempty" yaml:"text,omitempty"`
	Summary      string  `db:"summary" json:"summary,omitempty" yaml:"summary,omitempty"`
	Overall      float64 `db:"overall" json:"overall" yaml:"overall"`
	DayDiff      int64   `db:"day_diff" json:"day_diff" yaml:"dayDiff"`
	HelpfulYes   int64   `db:"helpful_yes" json:"helpful_yes" yaml:"helpfulYes"`
	TotalVote    int64   `db:"total_vote" json:"total_vote" yaml:"totalVote"`
	Seq          int64   `db:"seq" json:"-" yaml:"-"`
}

// Votes returns the review as a rankable record.
func (r *Review) Votes() (score.Record[*Review], error) {
	rec, err := score.FromTotals(r.HelpfulYes, r.TotalVote, r)
	if err != nil {
		return rec, fmt.Errorf("review %s/%s: %w", r.ASIN, r.ReviewerID, err)
	}
	return rec, nil
}

// Records converts reviews into rankable records, preserving order.
func Records(list []*Review) ([]score.Record[*Review], error) {
	out := make([]score.Record[*Review], 0, len(list))
	for _, r := range list {
		rec, err := r.Votes()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReviewQuery filters reviews. Empty ASIN matches all products.
type ReviewQuery struct {
	ASIN     string `json:"asin,omitempty" yaml:"asin,omitempty"`
	MinVotes int64  `json:"min_votes,omitempty" yaml:"minVotes,omitempty"`
}

// Product summarizes the reviews of one product.
type Product struct {
	ASIN         string  `db:"asin" json:"asin" yaml:"asin"`
	Reviews      int64   `db:"reviews" json:"reviews" yaml:"reviews"`
	AverageStars float64 `db:"average_stars" json:"average_stars" yaml:"averageStars"`
	Votes        int64   `db:"votes" json:"votes" yaml:"votes"`
}

// SaveReviews upserts reviews in a single transaction. Review.Seq is taken as
// the position within the batch and stored after the highest existing seq, so
// reviews keep import order across batches. Re-imported reviews move to the end.
func SaveReviews(db *sqlx.DB, list []*Review) (int, error) {
	if db == nil {
		return 0, ErrDBNotInitialized
	}
	if len(list) == 0 {
		return 0, nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("error starting review tx: %w", err)
	}

	// batch seq values are relative; append after everything already stored
	var base int64
	if err := tx.Get(&base, selectMaxSeqSQL); err != nil {
		rollbackTransaction(tx)
		return 0, fmt.Errorf("error reading review sequence: %w", err)
	}

	stmt, err := tx.Preparex(tx.Rebind(upsertReviewSQL))
	if err != nil {
		rollbackTransaction(tx)
		return 0, fmt.Errorf("error preparing review upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range list {
		if _, err := stmt.Exec(r.ASIN, r.ReviewerID, r.ReviewerName, r.Text, r.Summary,
			r.Overall, r.DayDiff, r.HelpfulYes, r.TotalVote, base+r.Seq); err != nil {
			rollbackTransaction(tx)
			return 0, fmt.Errorf("error saving review %s/%s: %w", r.ASIN, r.ReviewerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing review tx: %w", err)
	}

	slog.Debug("reviews saved", "count", len(list))
	return len(list), nil
}

// GetReviews returns reviews matching q in import order.
func GetReviews(db *sqlx.DB, q ReviewQuery) ([]*Review, error) {
	if db == nil {
		return nil, ErrDBNotInitialized
	}

	list := make([]*Review, 0)
	if err := db.Select(&list, db.Rebind(selectReviewsSQL), optional(q.ASIN), q.MinVotes); err != nil {
		return nil, fmt.Errorf("error selecting reviews: %w", err)
	}
	return list, nil
}

// GetRatings returns the star ratings and their ages for a product, or for
// all reviews when asin is empty.
func GetRatings(db *sqlx.DB, asin string) ([]score.TimedRating, error) {
	if db == nil {
		return nil, ErrDBNotInitialized
	}

	rows, err := db.Queryx(db.Rebind(selectRatingsSQL), optional(asin))
	if err != nil {
		return nil, fmt.Errorf("error selecting ratings: %w", err)
	}
	defer rows.Close()

	list := make([]score.TimedRating, 0)
	for rows.Next() {
		var r score.TimedRating
		if err := rows.Scan(&r.Stars, &r.AgeDays); err != nil {
			return nil, fmt.Errorf("error scanning rating: %w", err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}
	return list, nil
}

// GetProducts lists reviewed products, most reviewed first.
func GetProducts(db *sqlx.DB) ([]*Product, error) {
	if db == nil {
		return nil, ErrDBNotInitialized
	}

	list := make([]*Product, 0)
	if err := db.Select(&list, selectProductsSQL); err != nil {
		return nil, fmt.Errorf("error selecting products: %w", err)
	}
	return list, nil
}

// DeleteReviews removes all reviews and returns how many were deleted.
func DeleteReviews(db *sqlx.DB) (int64, error) {
	if db == nil {
		return 0, ErrDBNotInitialized
	}

	res, err := db.Exec(deleteReviewsSQL)
	if err != nil {
		return 0, fmt.Errorf("error deleting reviews: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading deleted row count: %w", err)
	}
	return n, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
