package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mchmarny/revrank/pkg/config"
	"github.com/mchmarny/revrank/pkg/data"
	"github.com/mchmarny/revrank/pkg/metrics"
	"github.com/mchmarny/revrank/pkg/score"
	urfave "github.com/urfave/cli/v3"
)

var (
	strategyFlag = &urfave.StringFlag{
		Name:    "strategy",
		Aliases: []string{"s"},
		Usage:   fmt.Sprintf("Scoring strategy [%s] (default from config)", strategyList()),
	}

	confidenceFlag = &urfave.FloatFlag{
		Name:    "confidence",
		Aliases: []string{"c"},
		Usage:   "Confidence level for the Wilson lower bound, in (0, 1) (default from config)",
	}

	limitFlag = &urfave.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Number of ranked items to print, 0 for all (default from config)",
	}

	asinFlag = &urfave.StringFlag{
		Name:  "asin",
		Usage: "Only rank reviews of this product",
	}

	minVotesFlag = &urfave.IntFlag{
		Name:  "min-votes",
		Usage: "Only rank reviews with at least this many votes",
	}

	upFlag = &urfave.IntFlag{
		Name:     "up",
		Usage:    "Number of positive (helpful) votes",
		Required: true,
	}

	downFlag = &urfave.IntFlag{
		Name:     "down",
		Usage:    "Number of negative (unhelpful) votes",
		Required: true,
	}

	weightsFlag = &urfave.StringFlag{
		Name:  "weights",
		Usage: "Comma separated age segment weights, most recent first (default: 0.28,0.26,0.24,0.22)",
	}

	rankCmd = &urfave.Command{
		Name:    "rank",
		Aliases: []string{"r"},
		Usage:   "Rank imported reviews by helpfulness",
		UsageText: `revrank rank                                  # rank using config defaults
   revrank rank --strategy average --limit 10    # top 10 by share of helpful votes
   revrank rank --strategy wilson -c 0.99        # more conservative lower bound`,
		Action: cmdRank,
		Flags: []urfave.Flag{
			strategyFlag,
			confidenceFlag,
			limitFlag,
			asinFlag,
			minVotesFlag,
		},
	}

	compareCmd = &urfave.Command{
		Name:   "compare",
		Usage:  "Show the top reviews under every strategy",
		Action: cmdCompare,
		Flags: []urfave.Flag{
			confidenceFlag,
			limitFlag,
			asinFlag,
			minVotesFlag,
		},
	}

	scoreCmd = &urfave.Command{
		Name:   "score",
		Usage:  "Score a single up/down vote pair with every strategy",
		Action: cmdScore,
		Flags: []urfave.Flag{
			upFlag,
			downFlag,
			confidenceFlag,
		},
	}

	ratingCmd = &urfave.Command{
		Name:   "rating",
		Usage:  "Compare the average and time weighted star rating of a product",
		Action: cmdRating,
		Flags: []urfave.Flag{
			asinFlag,
			weightsFlag,
		},
	}
)

// RankResult is a ranked list of reviews.
type RankResult struct {
	Strategy   score.Strategy               `json:"strategy" yaml:"strategy"`
	Confidence float64                      `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Query      data.ReviewQuery             `json:"query" yaml:"query"`
	Total      int                          `json:"total" yaml:"total"`
	Items      []score.Ranked[*data.Review] `json:"items" yaml:"items"`
}

// CompareResult holds one ranking per strategy over the same reviews.
type CompareResult struct {
	Query   data.ReviewQuery `json:"query" yaml:"query"`
	Total   int              `json:"total" yaml:"total"`
	Results []*RankResult    `json:"results" yaml:"results"`
}

// ScoreResult is every strategy applied to one vote pair.
type ScoreResult struct {
	Positive   int64                      `json:"positive" yaml:"positive"`
	Negative   int64                      `json:"negative" yaml:"negative"`
	Confidence float64                    `json:"confidence" yaml:"confidence"`
	Scores     map[score.Strategy]float64 `json:"scores" yaml:"scores"`
}

// RatingResult compares the plain and time weighted product rating.
type RatingResult struct {
	ASIN         string    `json:"asin,omitempty" yaml:"asin,omitempty"`
	Ratings      int       `json:"ratings" yaml:"ratings"`
	Weights      []float64 `json:"weights" yaml:"weights"`
	Average      float64   `json:"average" yaml:"average"`
	TimeWeighted float64   `json:"time_weighted" yaml:"timeWeighted"`
}

func strategyList() string {
	list := score.Strategies()
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}

// scorerFor resolves the scorer from config defaults with flag overrides.
// confidence must already be resolved, see resolveConfidence.
func scorerFor(conf *config.Config, strategy string, confidence float64) (score.Scorer, error) {
	c := *conf
	if strategy != "" {
		c.Strategy = strategy
	}
	c.Confidence = confidence
	return c.Scorer()
}

// resolveConfidence returns def when no confidence was supplied. A supplied
// value must lie in (0, 1); an explicit 0 is rejected, not defaulted.
func resolveConfidence(set bool, v, def float64) (float64, error) {
	if !set {
		return def, nil
	}
	if _, err := score.ZScore(v); err != nil {
		return 0, err
	}
	return v, nil
}

func confidenceFromFlags(cmd *urfave.Command, conf *config.Config) (float64, error) {
	return resolveConfidence(cmd.IsSet(confidenceFlag.Name), cmd.Float(confidenceFlag.Name), conf.Confidence)
}

// rankReviews loads reviews matching q and ranks them with sc. Metrics are
// recorded when m is not nil.
func rankReviews(db *sqlx.DB, sc score.Scorer, q data.ReviewQuery, limit int, m *metrics.Metrics) (*RankResult, error) {
	list, err := data.GetReviews(db, q)
	if err != nil {
		return nil, fmt.Errorf("error loading reviews: %w", err)
	}
	return rankLoaded(list, sc, q, limit, m)
}

func rankLoaded(list []*data.Review, sc score.Scorer, q data.ReviewQuery, limit int, m *metrics.Metrics) (*RankResult, error) {
	start := time.Now()
	ranked, err := rankList(list, sc)
	if m != nil {
		m.ObserveRank(sc.Strategy.String(), len(list), time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("reviews ranked",
		"strategy", sc.Strategy,
		"items", len(ranked),
		"duration", time.Since(start).String())

	res := &RankResult{
		Strategy: sc.Strategy,
		Query:    q,
		Total:    len(ranked),
		Items:    score.Top(ranked, limit),
	}
	if sc.Strategy == score.StrategyWilson {
		res.Confidence = sc.Confidence
		if res.Confidence == 0 {
			res.Confidence = score.DefaultConfidence
		}
	}
	return res, nil
}

func rankList(list []*data.Review, sc score.Scorer) ([]score.Ranked[*data.Review], error) {
	records, err := data.Records(list)
	if err != nil {
		return nil, err
	}
	return score.Rank(sc, records)
}

func compareReviews(db *sqlx.DB, confidence float64, q data.ReviewQuery, limit int, m *metrics.Metrics) (*CompareResult, error) {
	list, err := data.GetReviews(db, q)
	if err != nil {
		return nil, fmt.Errorf("error loading reviews: %w", err)
	}

	res := &CompareResult{Query: q, Total: len(list)}
	for _, s := range score.Strategies() {
		sc, err := score.NewScorer(s, confidence)
		if err != nil {
			return nil, err
		}
		r, err := rankLoaded(list, sc, q, limit, m)
		if err != nil {
			return nil, err
		}
		res.Results = append(res.Results, r)
	}
	return res, nil
}

func scorePair(positive, negative int64, confidence float64) (*ScoreResult, error) {
	if confidence == 0 {
		confidence = score.DefaultConfidence
	}

	res := &ScoreResult{
		Positive:   positive,
		Negative:   negative,
		Confidence: confidence,
		Scores:     make(map[score.Strategy]float64, len(score.Strategies())),
	}
	for _, s := range score.Strategies() {
		v, err := score.Scorer{Strategy: s, Confidence: confidence}.Score(positive, negative)
		if err != nil {
			return nil, err
		}
		res.Scores[s] = v
	}
	return res, nil
}

func productRating(db *sqlx.DB, asin string, weights []float64) (*RatingResult, error) {
	ratings, err := data.GetRatings(db, asin)
	if err != nil {
		return nil, fmt.Errorf("error loading ratings: %w", err)
	}
	if len(weights) == 0 {
		weights = score.DefaultSegmentWeights
	}

	tw, err := score.TimeWeightedRating(ratings, weights)
	if err != nil {
		return nil, err
	}

	return &RatingResult{
		ASIN:         asin,
		Ratings:      len(ratings),
		Weights:      weights,
		Average:      score.AverageStars(ratings),
		TimeWeighted: tw,
	}, nil
}

func parseWeights(v string) ([]float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	weights := make([]float64, 0, len(parts))
	for _, p := range parts {
		w, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid weight %q", score.ErrInvalidArgument, p)
		}
		weights = append(weights, w)
	}
	return weights, nil
}

func queryFromFlags(cmd *urfave.Command) (data.ReviewQuery, error) {
	minVotes := cmd.Int(minVotesFlag.Name)
	if minVotes < 0 {
		return data.ReviewQuery{}, fmt.Errorf("%w: min-votes must be >= 0", score.ErrInvalidArgument)
	}
	return data.ReviewQuery{
		ASIN:     cmd.String(asinFlag.Name),
		MinVotes: int64(minVotes),
	}, nil
}

func limitFromFlags(cmd *urfave.Command, conf *config.Config) int {
	if cmd.IsSet(limitFlag.Name) {
		return cmd.Int(limitFlag.Name)
	}
	return conf.Limit
}

func cmdRank(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	confidence, err := confidenceFromFlags(cmd, cfg.Conf)
	if err != nil {
		return err
	}

	sc, err := scorerFor(cfg.Conf, cmd.String(strategyFlag.Name), confidence)
	if err != nil {
		return err
	}

	q, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}

	res, err := rankReviews(cfg.DB, sc, q, limitFromFlags(cmd, cfg.Conf), nil)
	if err != nil {
		return err
	}

	return encode(cmd, res)
}

func cmdCompare(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	confidence, err := confidenceFromFlags(cmd, cfg.Conf)
	if err != nil {
		return err
	}

	q, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}

	res, err := compareReviews(cfg.DB, confidence, q, limitFromFlags(cmd, cfg.Conf), nil)
	if err != nil {
		return err
	}

	return encode(cmd, res)
}

func cmdScore(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	confidence, err := confidenceFromFlags(cmd, cfg.Conf)
	if err != nil {
		return err
	}

	res, err := scorePair(int64(cmd.Int(upFlag.Name)), int64(cmd.Int(downFlag.Name)), confidence)
	if err != nil {
		return err
	}

	return encode(cmd, res)
}

func cmdRating(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	weights, err := parseWeights(cmd.String(weightsFlag.Name))
	if err != nil {
		return err
	}

	res, err := productRating(cfg.DB, cmd.String(asinFlag.Name), weights)
	if err != nil {
		return err
	}

	return encode(cmd, res)
}
