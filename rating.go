package yamdb

import (
	"context"

	"github.com/google/uuid"
)

// AverageScore returns the arithmetic mean of scores. The boolean is false
// when there are no scores, which callers must keep distinct from a zero
// rating.
func AverageScore(scores []int) (float64, bool) {
	if len(scores) == 0 {
		return 0, false
	}

	sum := 0
	for _, s := range scores {
		sum += s
	}

	return float64(sum) / float64(len(scores)), true
}

// RatingSource exposes the review data needed to compute ratings.
type RatingSource interface {
	ScoresForTitle(ctx context.Context, titleID uuid.UUID) ([]int, error)
	AverageScores(ctx context.Context, titleIDs []uuid.UUID) (map[uuid.UUID]float64, error)
}

// RatingAggregator computes title ratings on every read. There is no cache,
// so a rating always reflects the current review set.
type RatingAggregator struct {
	source RatingSource
}

// NewRatingAggregator returns an aggregator over the given source.
func NewRatingAggregator(source RatingSource) *RatingAggregator {
	return &RatingAggregator{source: source}
}

// Rating returns the mean score of a title, or nil when it has no reviews.
func (a *RatingAggregator) Rating(ctx context.Context, titleID uuid.UUID) (*float64, error) {
	scores, err := a.source.ScoresForTitle(ctx, titleID)
	if err != nil {
		return nil, internalError(err, "failed to load review scores")
	}

	avg, ok := AverageScore(scores)
	if !ok {
		return nil, nil
	}

	return &avg, nil
}

// Ratings computes ratings for many titles at once. Titles without reviews
// are absent from the result.
func (a *RatingAggregator) Ratings(ctx context.Context, titleIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	if len(titleIDs) == 0 {
		return map[uuid.UUID]float64{}, nil
	}

	ratings, err := a.source.AverageScores(ctx, titleIDs)
	if err != nil {
		return nil, internalError(err, "failed to aggregate review scores")
	}

	return ratings, nil
}

// Apply sets Rating on each title from the aggregated values.
func (a *RatingAggregator) Apply(ctx context.Context, titles ...*Title) error {
	ids := make([]uuid.UUID, 0, len(titles))
	for _, t := range titles {
		if t != nil {
			ids = append(ids, t.ID)
		}
	}

	ratings, err := a.Ratings(ctx, ids)
	if err != nil {
		return err
	}

	for _, t := range titles {
		if t == nil {
			continue
		}
		t.Rating = nil
		if avg, ok := ratings[t.ID]; ok {
			avg := avg
			t.Rating = &avg
		}
	}

	return nil
}
