package services

import (
	"context"
	"testing"
	"time"

	"tajeats-api/apperr"
	"tajeats-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func review(restaurantID uint, rating int) ReviewInput {
	return ReviewInput{RestaurantID: restaurantID, UserName: "Ada", Rating: rating, Comment: "ok"}
}

func TestRatingFollowsReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.restaurant(t, "Luigi's", models.DeliveryModeBoth)

	rating := func() (float64, int) {
		t.Helper()
		got, err := f.catalog.GetRestaurant(ctx, r.ID)
		require.NoError(t, err)
		return got.Rating, got.ReviewCount
	}

	four, err := f.reviews.CreateReview(ctx, review(r.ID, 4))
	require.NoError(t, err)
	avg, n := rating()
	assert.InDelta(t, 4.0, avg, 1e-9)
	assert.Equal(t, 1, n)

	five, err := f.reviews.CreateReview(ctx, review(r.ID, 5))
	require.NoError(t, err)
	avg, n = rating()
	assert.InDelta(t, 4.5, avg, 1e-9)
	assert.Equal(t, 2, n)

	_, err = f.reviews.UpdateReview(ctx, four.ID, review(r.ID, 1))
	require.NoError(t, err)
	avg, n = rating()
	assert.InDelta(t, 3.0, avg, 1e-9)
	assert.Equal(t, 2, n)

	require.NoError(t, f.reviews.DeleteReview(ctx, five.ID))
	avg, n = rating()
	assert.InDelta(t, 1.0, avg, 1e-9)
	assert.Equal(t, 1, n)

	require.NoError(t, f.reviews.DeleteReview(ctx, four.ID))
	avg, n = rating()
	assert.Zero(t, avg)
	assert.Zero(t, n)
}

func TestMovingReviewRecomputesBothRestaurants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.restaurant(t, "Luigi's", models.DeliveryModeBoth)
	b := f.restaurant(t, "Sushi Bar", models.DeliveryModeBoth)

	_, err := f.reviews.CreateReview(ctx, review(a.ID, 2))
	require.NoError(t, err)
	moved, err := f.reviews.CreateReview(ctx, review(a.ID, 4))
	require.NoError(t, err)

	_, err = f.reviews.UpdateReview(ctx, moved.ID, review(b.ID, 4))
	require.NoError(t, err)

	gotA, err := f.catalog.GetRestaurant(ctx, a.ID)
	require.NoError(t, err)
	gotB, err := f.catalog.GetRestaurant(ctx, b.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, gotA.Rating, 1e-9)
	assert.Equal(t, 1, gotA.ReviewCount)
	assert.InDelta(t, 4.0, gotB.Rating, 1e-9)
	assert.Equal(t, 1, gotB.ReviewCount)
}

func TestReviewValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.restaurant(t, "Luigi's", models.DeliveryModeBoth)

	for _, rating := range []int{0, 6, -1} {
		_, err := f.reviews.CreateReview(ctx, review(r.ID, rating))
		requireKind(t, err, apperr.KindInvalidArgument)
	}

	in := review(r.ID, 3)
	in.UserName = "  "
	_, err := f.reviews.CreateReview(ctx, in)
	requireKind(t, err, apperr.KindInvalidArgument)

	_, err = f.reviews.CreateReview(ctx, review(999, 3))
	requireKind(t, err, apperr.KindNotFound)

	ok, err := f.reviews.CreateReview(ctx, review(r.ID, 3))
	require.NoError(t, err)
	_, err = f.reviews.UpdateReview(ctx, ok.ID, review(999, 3))
	requireKind(t, err, apperr.KindNotFound)

	_, err = f.reviews.GetReview(ctx, 999)
	requireKind(t, err, apperr.KindNotFound)
	requireKind(t, f.reviews.DeleteReview(ctx, 999), apperr.KindNotFound)
}

func TestListReviewsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.restaurant(t, "Luigi's", models.DeliveryModeBoth)
	b := f.restaurant(t, "Sushi Bar", models.DeliveryModeBoth)

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	in := review(a.ID, 5)
	in.Date = &older
	first, err := f.reviews.CreateReview(ctx, in)
	require.NoError(t, err)
	in.Date = &newer
	second, err := f.reviews.CreateReview(ctx, in)
	require.NoError(t, err)
	_, err = f.reviews.CreateReview(ctx, review(b.ID, 1))
	require.NoError(t, err)

	got, err := f.reviews.ListReviews(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)

	all, err := f.reviews.ListReviews(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestReviewDateDefaultsToToday(t *testing.T) {
	f := newFixture(t)
	f.reviews.now = func() time.Time { return time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC) }
	r := f.restaurant(t, "Luigi's", models.DeliveryModeBoth)

	got, err := f.reviews.CreateReview(context.Background(), review(r.ID, 4))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), got.Date)
}
