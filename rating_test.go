package yamdb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-yamdb"
)

type mockRatingSource struct {
	mock.Mock
}

func (m *mockRatingSource) ScoresForTitle(ctx context.Context, titleID uuid.UUID) ([]int, error) {
	args := m.Called(ctx, titleID)
	scores, _ := args.Get(0).([]int)
	return scores, args.Error(1)
}

func (m *mockRatingSource) AverageScores(ctx context.Context, titleIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	args := m.Called(ctx, titleIDs)
	out, _ := args.Get(0).(map[uuid.UUID]float64)
	return out, args.Error(1)
}

func TestAverageScore(t *testing.T) {
	avg, ok := yamdb.AverageScore([]int{8, 10})
	assert.True(t, ok)
	assert.Equal(t, 9.0, avg)

	avg, ok = yamdb.AverageScore([]int{7, 8})
	assert.True(t, ok)
	assert.Equal(t, 7.5, avg)

	_, ok = yamdb.AverageScore(nil)
	assert.False(t, ok)
}

func TestRatingAggregator_Rating(t *testing.T) {
	ctx := context.Background()
	rated, unrated, broken := uuid.New(), uuid.New(), uuid.New()

	source := &mockRatingSource{}
	source.On("ScoresForTitle", ctx, rated).Return([]int{8, 10}, nil)
	source.On("ScoresForTitle", ctx, unrated).Return([]int{}, nil)
	source.On("ScoresForTitle", ctx, broken).Return(nil, errors.New("boom"))

	agg := yamdb.NewRatingAggregator(source)

	rating, err := agg.Rating(ctx, rated)
	require.NoError(t, err)
	require.NotNil(t, rating)
	assert.Equal(t, 9.0, *rating)

	rating, err = agg.Rating(ctx, unrated)
	require.NoError(t, err)
	assert.Nil(t, rating)

	_, err = agg.Rating(ctx, broken)
	assert.Error(t, err)

	source.AssertExpectations(t)
}

func TestRatingAggregator_Apply(t *testing.T) {
	ctx := context.Background()
	a := &yamdb.Title{ID: uuid.New()}
	b := &yamdb.Title{ID: uuid.New()}
	stale := 3.0
	b.Rating = &stale

	source := &mockRatingSource{}
	source.On("AverageScores", ctx, []uuid.UUID{a.ID, b.ID}).
		Return(map[uuid.UUID]float64{a.ID: 6.5}, nil)

	agg := yamdb.NewRatingAggregator(source)
	require.NoError(t, agg.Apply(ctx, a, nil, b))

	require.NotNil(t, a.Rating)
	assert.Equal(t, 6.5, *a.Rating)
	assert.Nil(t, b.Rating)

	require.NoError(t, agg.Apply(ctx))
	source.AssertNumberOfCalls(t, "AverageScores", 1)
}
