package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"tajeats-api/apperr"
	"tajeats-api/models"
	"tajeats-api/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestaurantDefaultsAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.restaurant(t, "Luigi's", "")
	assert.True(t, r.IsOpen)
	assert.Equal(t, models.DeliveryModeBoth, r.DeliveryMode)
	assert.Zero(t, r.Rating)

	_, err := f.reviews.CreateReview(ctx, review(r.ID, 5))
	require.NoError(t, err)

	closed := false
	hours := "11:00-22:00"
	got, err := f.catalog.UpdateRestaurant(ctx, r.ID, RestaurantInput{
		Name:          "Luigi's Trattoria",
		IsOpen:        &closed,
		DeliveryMode:  models.DeliveryModePickup,
		MinOrder:      decimal.RequireFromString("15"),
		OpeningFriday: &hours,
	})
	require.NoError(t, err)
	assert.Equal(t, "Luigi's Trattoria", got.Name)
	assert.False(t, got.IsOpen)
	assert.Equal(t, models.DeliveryModePickup, got.DeliveryMode)
	assert.Equal(t, "15.00", got.MinOrder.StringFixed(2))
	require.NotNil(t, got.OpeningFriday)
	assert.Equal(t, "11:00-22:00", *got.OpeningFriday)
	// the rating summary is not editable
	assert.InDelta(t, 5.0, got.Rating, 1e-9)
	assert.Equal(t, 1, got.ReviewCount)

	_, err = f.catalog.UpdateRestaurant(ctx, 999, RestaurantInput{Name: "x"})
	requireKind(t, err, apperr.KindNotFound)
	_, err = f.catalog.CreateRestaurant(ctx, RestaurantInput{Name: " "})
	requireKind(t, err, apperr.KindInvalidArgument)
	_, err = f.catalog.CreateRestaurant(ctx, RestaurantInput{Name: "x", DeliveryMode: "DRONE"})
	requireKind(t, err, apperr.KindInvalidArgument)
}

func TestCreateOwnedRestaurant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	users := []*models.User{
		{Name: "Olga", Email: "olga@example.com", Role: models.RoleRestaurantOwner, IsApproved: true},
		{Name: "Pat", Email: "pat@example.com", Role: models.RoleRestaurantOwner},
		{Name: "Cara", Email: "cara@example.com", Role: models.RoleCustomer, IsApproved: true},
	}
	for _, u := range users {
		u.PasswordHash = "unused"
		require.NoError(t, f.db.Create(u).Error)
	}
	olga, pending, customer := users[0], users[1], users[2]

	r, err := f.catalog.CreateOwnedRestaurant(ctx, olga.ID, RestaurantInput{Name: "Olga's"})
	require.NoError(t, err)
	var linked models.User
	require.NoError(t, f.db.First(&linked, olga.ID).Error)
	require.NotNil(t, linked.RestaurantID)
	assert.Equal(t, r.ID, *linked.RestaurantID)

	_, err = f.catalog.CreateOwnedRestaurant(ctx, olga.ID, RestaurantInput{Name: "Second"})
	requireKind(t, err, apperr.KindForbidden)
	_, err = f.catalog.CreateOwnedRestaurant(ctx, pending.ID, RestaurantInput{Name: "Pending"})
	requireKind(t, err, apperr.KindForbidden)
	_, err = f.catalog.CreateOwnedRestaurant(ctx, customer.ID, RestaurantInput{Name: "Cara's"})
	requireKind(t, err, apperr.KindForbidden)
	_, err = f.catalog.CreateOwnedRestaurant(ctx, 999, RestaurantInput{Name: "Ghost"})
	requireKind(t, err, apperr.KindNotFound)
	_, err = f.catalog.CreateOwnedRestaurant(ctx, pending.ID, RestaurantInput{Name: " "})
	requireKind(t, err, apperr.KindInvalidArgument)

	var count int64
	require.NoError(t, f.db.Model(&models.Restaurant{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "rejected calls leave no restaurant behind")
}

func TestListRestaurantsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.restaurant(t, "Luigi's", models.DeliveryModeBoth)
	closed := false
	sushi, err := f.catalog.CreateRestaurant(ctx, RestaurantInput{Name: "Sushi Bar", Category: "Japanese", IsOpen: &closed})
	require.NoError(t, err)
	_, err = f.reviews.CreateReview(ctx, review(sushi.ID, 5))
	require.NoError(t, err)

	names := func(rs []models.Restaurant) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.Name
		}
		return out
	}

	all, err := f.catalog.ListRestaurants(ctx, RestaurantFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Luigi's", "Sushi Bar"}, names(all))

	open := true
	got, err := f.catalog.ListRestaurants(ctx, RestaurantFilter{Open: &open})
	require.NoError(t, err)
	assert.Equal(t, []string{"Luigi's"}, names(got))

	got, err = f.catalog.ListRestaurants(ctx, RestaurantFilter{Category: "Japanese"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sushi Bar"}, names(got))

	got, err = f.catalog.ListRestaurants(ctx, RestaurantFilter{Search: "LUIG"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Luigi's"}, names(got))

	got, err = f.catalog.ListRestaurants(ctx, RestaurantFilter{MinRating: 4})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sushi Bar"}, names(got))

	got, err = f.catalog.ListRestaurants(ctx, RestaurantFilter{Category: "Thai"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDishLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.restaurant(t, "Luigi's", models.DeliveryModeBoth)
	other := f.restaurant(t, "Sushi Bar", models.DeliveryModeBoth)

	d := f.dish(t, r.ID, "Margherita", "8.50")
	assert.True(t, d.IsAvailable)
	assert.False(t, d.IsPopular)

	_, err := f.catalog.CreateDish(ctx, DishInput{RestaurantID: 999, Name: "Ghost"})
	requireKind(t, err, apperr.KindNotFound)
	_, err = f.catalog.CreateDish(ctx, DishInput{Name: "Orphan"})
	requireKind(t, err, apperr.KindInvalidArgument)
	_, err = f.catalog.CreateDish(ctx, DishInput{RestaurantID: r.ID, Name: "Cheap", Price: decimal.NewFromInt(-1)})
	requireKind(t, err, apperr.KindInvalidArgument)

	off := false
	updated, err := f.catalog.UpdateDish(ctx, d.ID, DishInput{
		Name:        "Margherita",
		Price:       decimal.RequireFromString("9.00"),
		IsAvailable: &off,
		IsPopular:   true,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsAvailable)
	assert.True(t, updated.IsPopular)
	assert.Equal(t, "9.00", updated.Price.StringFixed(2))

	_, err = f.catalog.UpdateDish(ctx, d.ID, DishInput{RestaurantID: other.ID, Name: "Margherita"})
	requireKind(t, err, apperr.KindInvalidArgument)

	f.dish(t, r.ID, "Cola", "2.00")
	popular := true
	got, err := f.catalog.ListDishes(ctx, DishFilter{RestaurantID: r.ID, Popular: &popular})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, d.ID, got[0].ID)

	available := true
	got, err = f.catalog.ListDishes(ctx, DishFilter{Available: &available})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Cola", got[0].Name)

	menu, err := f.catalog.Menu(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, menu, 2)
	_, err = f.catalog.Menu(ctx, 999)
	requireKind(t, err, apperr.KindNotFound)
}

func TestDeleteDishRemovesCartItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.restaurant(t, "Luigi's", models.DeliveryModeBoth)
	pizza := f.dish(t, r.ID, "Margherita", "8.50")
	cola := f.dish(t, r.ID, "Cola", "2.00")

	_, err := f.cart.AddItem(ctx, "s1", pizza.ID, 1)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, "s1", cola.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.catalog.DeleteDish(ctx, pizza.ID))
	items, err := f.cart.ListCart(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, cola.ID, items[0].DishID)

	_, err = f.catalog.GetDish(ctx, pizza.ID)
	requireKind(t, err, apperr.KindNotFound)
	requireKind(t, f.catalog.DeleteDish(ctx, pizza.ID), apperr.KindNotFound)
}

func TestDeleteRestaurantCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.restaurant(t, "Luigi's", models.DeliveryModeBoth)
	survivor := f.restaurant(t, "Sushi Bar", models.DeliveryModeBoth)
	pizza := f.dish(t, r.ID, "Margherita", "8.50")
	maki := f.dish(t, survivor.ID, "Maki", "6.00")

	_, err := f.catalog.SetDishImage(ctx, pizza.ID, []byte("img"))
	require.NoError(t, err)
	logo, err := f.catalog.SetRestaurantLogo(ctx, r.ID, []byte("logo"))
	require.NoError(t, err)

	_, err = f.cart.AddItem(ctx, "s1", pizza.ID, 1)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, "s1", maki.ID, 1)
	require.NoError(t, err)
	_, err = f.reviews.CreateReview(ctx, review(r.ID, 5))
	require.NoError(t, err)
	order := placeOrder(t, f, survivor, models.DeliveryTypeDelivery, OrderItemInput{DishID: maki.ID, Quantity: 1})

	rid := r.ID
	owner := models.User{Name: "Olga", Email: "olga@example.com", PasswordHash: "x", Role: models.RoleRestaurantOwner, RestaurantID: &rid, IsApproved: true}
	require.NoError(t, f.db.Create(&owner).Error)

	require.NoError(t, f.catalog.DeleteRestaurant(ctx, r.ID))

	_, err = f.catalog.GetRestaurant(ctx, r.ID)
	requireKind(t, err, apperr.KindNotFound)
	_, err = f.catalog.GetDish(ctx, pizza.ID)
	requireKind(t, err, apperr.KindNotFound)

	reviews, err := f.reviews.ListReviews(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	cart, err := f.cart.ListCart(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, maki.ID, cart[0].DishID)

	_, err = f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)

	var reloaded models.User
	require.NoError(t, f.db.First(&reloaded, owner.ID).Error)
	assert.Nil(t, reloaded.RestaurantID)

	assert.Contains(t, f.images.deleted, logo)
	assert.Len(t, f.images.stored, 0)
	requireKind(t, f.catalog.DeleteRestaurant(ctx, r.ID), apperr.KindNotFound)
}

func TestReplaceImageDeletesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.restaurant(t, "Luigi's", models.DeliveryModeBoth)

	first, err := f.catalog.SetRestaurantImage(ctx, r.ID, []byte("one"))
	require.NoError(t, err)
	assert.Contains(t, first, storage.DirRestaurants)
	second, err := f.catalog.SetRestaurantImage(ctx, r.ID, []byte("two"))
	require.NoError(t, err)

	assert.Equal(t, []string{first}, f.images.deleted)
	got, err := f.catalog.GetRestaurant(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, second, got.Image)

	_, err = f.catalog.SetDishImage(ctx, 999, []byte("x"))
	requireKind(t, err, apperr.KindNotFound)

	f.images.failed = storage.ErrUnsupportedImageType
	_, err = f.catalog.SetRestaurantLogo(ctx, r.ID, []byte("gif"))
	requireKind(t, err, apperr.KindInvalidArgument)
	assert.Contains(t, err.Error(), "invalid file type")

	f.images.failed = fmt.Errorf("%w of 5 MB", storage.ErrImageTooLarge)
	_, err = f.catalog.SetRestaurantLogo(ctx, r.ID, []byte("huge"))
	requireKind(t, err, apperr.KindInvalidArgument)

	// a failing backend is a server error, not a bad upload
	backend := errors.New("failed to upload image: dial tcp 10.0.0.1:9000: connection refused")
	f.images.failed = backend
	_, err = f.catalog.SetRestaurantImage(ctx, r.ID, []byte("three"))
	require.Error(t, err)
	assert.ErrorIs(t, err, backend)
	_, classified := apperr.As(err)
	assert.False(t, classified)

	got, err = f.catalog.GetRestaurant(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, second, got.Image)
}
