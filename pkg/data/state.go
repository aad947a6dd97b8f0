package data

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

var stateQueries = map[string]string{
	"review":  "SELECT COUNT(*) FROM review",
	"product": "SELECT COUNT(DISTINCT asin) FROM review",
	"votes":   "SELECT COALESCE(SUM(total_vote), 0) FROM review",
	"helpful": "SELECT COALESCE(SUM(helpful_yes), 0) FROM review",
}

// GetDataState returns the current row and vote counts of the database.
func GetDataState(db *sqlx.DB) (map[string]int64, error) {
	if db == nil {
		return nil, ErrDBNotInitialized
	}

	state := make(map[string]int64, len(stateQueries))
	for k, q := range stateQueries {
		var count int64
		if err := db.Get(&count, q); err != nil {
			return nil, fmt.Errorf("error getting %s count: %w", k, err)
		}
		state[k] = count
	}

	return state, nil
}
