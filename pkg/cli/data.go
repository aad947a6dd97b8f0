package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/mchmarny/revrank/pkg/config"
	"github.com/mchmarny/revrank/pkg/data"
	"github.com/mchmarny/revrank/pkg/metrics"
	"github.com/mchmarny/revrank/pkg/score"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps invalid input to 400 and everything else to 500.
func writeFailure(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, score.ErrInvalidArgument) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, msg)
}

func queryParamInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", score.ErrInvalidArgument, key, v)
	}
	if i < 0 {
		return 0, fmt.Errorf("%w: %s must be >= 0, got %d", score.ErrInvalidArgument, key, i)
	}
	return i, nil
}

func queryParamFloat(r *http.Request, key string, def float64) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", score.ErrInvalidArgument, key, v)
	}
	return f, nil
}

// confidenceParam returns def when the confidence parameter is absent. A
// present value, including 0 or empty, must lie in (0, 1).
func confidenceParam(r *http.Request, def float64) (float64, error) {
	const key = "confidence"
	if !r.URL.Query().Has(key) {
		return def, nil
	}
	v, err := queryParamFloat(r, key, 0)
	if err != nil {
		return 0, err
	}
	return resolveConfidence(true, v, def)
}

func parseReviewQuery(r *http.Request) (data.ReviewQuery, error) {
	minVotes, err := queryParamInt(r, "min_votes", 0)
	if err != nil {
		return data.ReviewQuery{}, err
	}
	return data.ReviewQuery{
		ASIN:     r.URL.Query().Get("asin"),
		MinVotes: int64(minVotes),
	}, nil
}

func healthHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			slog.Error("database ping failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
	}
}

func rankAPIHandler(db *sqlx.DB, conf *config.Config, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		confidence, err := confidenceParam(r, conf.Confidence)
		if err != nil {
			writeFailure(w, err, "invalid confidence")
			return
		}

		sc, err := scorerFor(conf, r.URL.Query().Get("strategy"), confidence)
		if err != nil {
			writeFailure(w, err, "invalid scorer")
			return
		}

		limit, err := queryParamInt(r, "limit", conf.Limit)
		if err != nil {
			writeFailure(w, err, "invalid limit")
			return
		}

		q, err := parseReviewQuery(r)
		if err != nil {
			writeFailure(w, err, "invalid query")
			return
		}

		res, err := rankReviews(db, sc, q, limit, m)
		if err != nil {
			writeFailure(w, err, "failed to rank reviews")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func compareAPIHandler(db *sqlx.DB, conf *config.Config, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		confidence, err := confidenceParam(r, conf.Confidence)
		if err != nil {
			writeFailure(w, err, "invalid confidence")
			return
		}

		limit, err := queryParamInt(r, "limit", conf.Limit)
		if err != nil {
			writeFailure(w, err, "invalid limit")
			return
		}

		q, err := parseReviewQuery(r)
		if err != nil {
			writeFailure(w, err, "invalid query")
			return
		}

		res, err := compareReviews(db, confidence, q, limit, m)
		if err != nil {
			writeFailure(w, err, "failed to compare rankings")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func scoreAPIHandler(conf *config.Config, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, err := queryParamInt(r, "up", 0)
		if err != nil {
			writeFailure(w, err, "invalid up votes")
			return
		}

		down, err := queryParamInt(r, "down", 0)
		if err != nil {
			writeFailure(w, err, "invalid down votes")
			return
		}

		confidence, err := confidenceParam(r, conf.Confidence)
		if err != nil {
			writeFailure(w, err, "invalid confidence")
			return
		}

		res, err := scorePair(int64(up), int64(down), confidence)
		if err != nil {
			writeFailure(w, err, "failed to score votes")
			return
		}
		if m != nil {
			for s := range res.Scores {
				m.IncScore(s.String())
			}
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func ratingAPIHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		weights, err := parseWeights(r.URL.Query().Get("weights"))
		if err != nil {
			writeFailure(w, err, "invalid weights")
			return
		}

		res, err := productRating(db, r.URL.Query().Get("asin"), weights)
		if err != nil {
			writeFailure(w, err, "failed to compute rating")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func productsAPIHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := data.GetProducts(db)
		if err != nil {
			writeFailure(w, err, "failed to list products")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func stateAPIHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := data.GetDataState(db)
		if err != nil {
			writeFailure(w, err, "failed to get data state")
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}
