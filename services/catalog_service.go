package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tajeats-api/apperr"
	"tajeats-api/models"
	"tajeats-api/storage"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogService manages restaurants, dishes and their images
type CatalogService struct {
	db     *gorm.DB
	images storage.ImageStore
	log    *zap.Logger
}

func NewCatalogService(db *gorm.DB, images storage.ImageStore, log *zap.Logger) *CatalogService {
	return &CatalogService{db: db, images: images, log: log.Named("catalog")}
}

// RestaurantInput holds the editable restaurant fields. Rating and review
// count are owned by the review service and cannot be set here.
type RestaurantInput struct {
	Name         string              `json:"name" binding:"required"`
	Image        string              `json:"image"`
	Logo         string              `json:"logo"`
	Category     string              `json:"category"`
	DeliveryTime string              `json:"deliveryTime"`
	DeliveryFee  decimal.Decimal     `json:"deliveryFee"`
	MinOrder     decimal.Decimal     `json:"minOrder"`
	Description  string              `json:"description"`
	IsOpen       *bool               `json:"isOpen"`
	Street       string              `json:"street"`
	HouseNumber  string              `json:"houseNumber"`
	PostalCode   string              `json:"postalCode"`
	City         string              `json:"city"`
	Phone        string              `json:"phone"`
	Email        string              `json:"email"`
	Website      string              `json:"website"`
	DeliveryMode models.DeliveryMode `json:"deliveryMode" binding:"omitempty,deliverymode"`

	OpeningMonday    *string `json:"openingMonday"`
	OpeningTuesday   *string `json:"openingTuesday"`
	OpeningWednesday *string `json:"openingWednesday"`
	OpeningThursday  *string `json:"openingThursday"`
	OpeningFriday    *string `json:"openingFriday"`
	OpeningSaturday  *string `json:"openingSaturday"`
	OpeningSunday    *string `json:"openingSunday"`
}

var restaurantColumns = []string{
	"name", "image", "logo", "category", "delivery_time", "delivery_fee", "min_order",
	"description", "is_open", "street", "house_number", "postal_code", "city",
	"phone", "email", "website", "delivery_mode",
	"opening_monday", "opening_tuesday", "opening_wednesday", "opening_thursday",
	"opening_friday", "opening_saturday", "opening_sunday",
}

func (in *RestaurantInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.InvalidArgument("restaurant name is required")
	}
	if in.DeliveryMode != "" && !in.DeliveryMode.Valid() {
		return apperr.InvalidArgument("invalid delivery mode %q", in.DeliveryMode)
	}
	if in.DeliveryFee.IsNegative() || in.MinOrder.IsNegative() {
		return apperr.InvalidArgument("delivery fee and minimum order cannot be negative")
	}
	return nil
}

func (in *RestaurantInput) apply(r *models.Restaurant) {
	r.Name = strings.TrimSpace(in.Name)
	r.Image = in.Image
	r.Logo = in.Logo
	r.Category = in.Category
	r.DeliveryTime = in.DeliveryTime
	r.DeliveryFee = in.DeliveryFee
	r.MinOrder = in.MinOrder
	r.Description = in.Description
	r.IsOpen = in.IsOpen == nil || *in.IsOpen
	r.Street = in.Street
	r.HouseNumber = in.HouseNumber
	r.PostalCode = in.PostalCode
	r.City = in.City
	r.Phone = in.Phone
	r.Email = in.Email
	r.Website = in.Website
	r.DeliveryMode = in.DeliveryMode
	if r.DeliveryMode == "" {
		r.DeliveryMode = models.DeliveryModeBoth
	}
	r.OpeningMonday = in.OpeningMonday
	r.OpeningTuesday = in.OpeningTuesday
	r.OpeningWednesday = in.OpeningWednesday
	r.OpeningThursday = in.OpeningThursday
	r.OpeningFriday = in.OpeningFriday
	r.OpeningSaturday = in.OpeningSaturday
	r.OpeningSunday = in.OpeningSunday
}

// RestaurantFilter narrows ListRestaurants. Zero values match everything.
type RestaurantFilter struct {
	Category  string
	Open      *bool
	Search    string
	MinRating float64
}

func (s *CatalogService) CreateRestaurant(ctx context.Context, in RestaurantInput) (*models.Restaurant, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	r := &models.Restaurant{}
	in.apply(r)
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, fmt.Errorf("failed to create restaurant: %w", err)
	}
	s.log.Info("Restaurant created", zap.Uint("restaurant_id", r.ID))
	return r, nil
}

// CreateOwnedRestaurant creates a restaurant and links the owner to it in one
// transaction. The owner must be approved and must not manage a restaurant yet.
func (s *CatalogService) CreateOwnedRestaurant(ctx context.Context, ownerID uint, in RestaurantInput) (*models.Restaurant, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	r := &models.Restaurant{}
	in.apply(r)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.First(&owner, ownerID).Error; err != nil {
			return lookupErr(err, "user")
		}
		if owner.Role != models.RoleRestaurantOwner || !owner.IsApproved {
			return apperr.Forbidden("only approved restaurant owners can open a restaurant")
		}
		if owner.RestaurantID != nil {
			return apperr.Forbidden("you already manage a restaurant")
		}
		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("failed to create restaurant: %w", err)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", owner.ID).Update("restaurant_id", r.ID).Error; err != nil {
			return fmt.Errorf("failed to link restaurant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Restaurant created", zap.Uint("restaurant_id", r.ID), zap.Uint("owner_id", ownerID))
	return r, nil
}

func (s *CatalogService) GetRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var r models.Restaurant
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, lookupErr(err, "restaurant")
	}
	return &r, nil
}

func (s *CatalogService) ListRestaurants(ctx context.Context, f RestaurantFilter) ([]models.Restaurant, error) {
	q := s.db.WithContext(ctx).Model(&models.Restaurant{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Open != nil {
		q = q.Where("is_open = ?", *f.Open)
	}
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}
	if f.MinRating > 0 {
		q = q.Where("rating >= ?", f.MinRating)
	}

	out := []models.Restaurant{}
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	return out, nil
}

func (s *CatalogService) UpdateRestaurant(ctx context.Context, id uint, in RestaurantInput) (*models.Restaurant, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var r models.Restaurant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, id).Error; err != nil {
			return lookupErr(err, "restaurant")
		}
		in.apply(&r)
		if err := tx.Model(&r).Select(restaurantColumns).Updates(&r).Error; err != nil {
			return fmt.Errorf("failed to update restaurant: %w", err)
		}
		return tx.First(&r, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRestaurant removes the restaurant with its dishes, their cart items and
// its reviews. Orders are kept; they carry the restaurant name.
func (s *CatalogService) DeleteRestaurant(ctx context.Context, id uint) error {
	var r models.Restaurant
	var dishImages []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, id).Error; err != nil {
			return lookupErr(err, "restaurant")
		}
		if err := tx.Model(&models.Dish{}).Where("restaurant_id = ? AND image <> ''", id).
			Pluck("image", &dishImages).Error; err != nil {
			return fmt.Errorf("failed to load dish images: %w", err)
		}

		dishIDs := tx.Model(&models.Dish{}).Select("id").Where("restaurant_id = ?", id)
		if err := tx.Where("dish_id IN (?)", dishIDs).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete cart items: %w", err)
		}
		if err := tx.Where("restaurant_id = ?", id).Delete(&models.Dish{}).Error; err != nil {
			return fmt.Errorf("failed to delete dishes: %w", err)
		}
		if err := tx.Where("restaurant_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("failed to delete reviews: %w", err)
		}
		if err := tx.Model(&models.User{}).Where("restaurant_id = ?", id).
			Update("restaurant_id", nil).Error; err != nil {
			return fmt.Errorf("failed to unlink staff: %w", err)
		}
		if err := tx.Delete(&models.Restaurant{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete restaurant: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.deleteImages(ctx, append(dishImages, r.Image, r.Logo)...)
	s.log.Info("Restaurant deleted", zap.Uint("restaurant_id", id))
	return nil
}

// Menu returns the restaurant's dishes grouped by category
func (s *CatalogService) Menu(ctx context.Context, restaurantID uint) ([]models.Dish, error) {
	if _, err := s.GetRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}
	dishes := []models.Dish{}
	err := s.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID).
		Order("category ASC").Order("id ASC").Find(&dishes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load menu: %w", err)
	}
	return dishes, nil
}

// DishInput holds the editable dish fields
type DishInput struct {
	RestaurantID uint            `json:"restaurantId"`
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Category     string          `json:"category"`
	IsAvailable  *bool           `json:"isAvailable"`
	IsPopular    bool            `json:"isPopular"`
}

var dishColumns = []string{"name", "description", "price", "image", "category", "is_available", "is_popular"}

func (in *DishInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.InvalidArgument("dish name is required")
	}
	if in.Price.IsNegative() {
		return apperr.InvalidArgument("dish price cannot be negative")
	}
	return nil
}

func (in *DishInput) apply(d *models.Dish) {
	d.Name = strings.TrimSpace(in.Name)
	d.Description = in.Description
	d.Price = in.Price
	d.Image = in.Image
	d.Category = in.Category
	d.IsAvailable = in.IsAvailable == nil || *in.IsAvailable
	d.IsPopular = in.IsPopular
}

// DishFilter narrows ListDishes. Zero values match everything.
type DishFilter struct {
	RestaurantID uint
	Available    *bool
	Popular      *bool
	Category     string
}

func (s *CatalogService) CreateDish(ctx context.Context, in DishInput) (*models.Dish, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.RestaurantID == 0 {
		return nil, apperr.InvalidArgument("restaurantId is required")
	}

	d := &models.Dish{RestaurantID: in.RestaurantID}
	in.apply(d)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Restaurant{}).Where("id = ?", in.RestaurantID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to load restaurant: %w", err)
		}
		if count == 0 {
			return apperr.NotFound("restaurant")
		}
		if err := tx.Create(d).Error; err != nil {
			return fmt.Errorf("failed to create dish: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *CatalogService) GetDish(ctx context.Context, id uint) (*models.Dish, error) {
	var d models.Dish
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, lookupErr(err, "dish")
	}
	return &d, nil
}

func (s *CatalogService) ListDishes(ctx context.Context, f DishFilter) ([]models.Dish, error) {
	q := s.db.WithContext(ctx).Model(&models.Dish{})
	if f.RestaurantID != 0 {
		q = q.Where("restaurant_id = ?", f.RestaurantID)
	}
	if f.Available != nil {
		q = q.Where("is_available = ?", *f.Available)
	}
	if f.Popular != nil {
		q = q.Where("is_popular = ?", *f.Popular)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}

	out := []models.Dish{}
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}
	return out, nil
}

// UpdateDish overwrites the editable fields. The owning restaurant never changes.
func (s *CatalogService) UpdateDish(ctx context.Context, id uint, in DishInput) (*models.Dish, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var d models.Dish
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&d, id).Error; err != nil {
			return lookupErr(err, "dish")
		}
		if in.RestaurantID != 0 && in.RestaurantID != d.RestaurantID {
			return apperr.InvalidArgument("a dish cannot be moved to another restaurant")
		}
		in.apply(&d)
		if err := tx.Model(&d).Select(dishColumns).Updates(&d).Error; err != nil {
			return fmt.Errorf("failed to update dish: %w", err)
		}
		return tx.First(&d, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteDish removes the dish and every cart item that references it
func (s *CatalogService) DeleteDish(ctx context.Context, id uint) error {
	var d models.Dish
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&d, id).Error; err != nil {
			return lookupErr(err, "dish")
		}
		if err := tx.Where("dish_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete cart items: %w", err)
		}
		if err := tx.Delete(&models.Dish{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete dish: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.deleteImages(ctx, d.Image)
	return nil
}

// SetRestaurantImage replaces the restaurant's cover image
func (s *CatalogService) SetRestaurantImage(ctx context.Context, id uint, data []byte) (string, error) {
	return s.replaceImage(ctx, &models.Restaurant{}, id, "restaurant", "image", storage.DirRestaurants, data)
}

// SetRestaurantLogo replaces the restaurant's logo
func (s *CatalogService) SetRestaurantLogo(ctx context.Context, id uint, data []byte) (string, error) {
	return s.replaceImage(ctx, &models.Restaurant{}, id, "restaurant", "logo", storage.DirRestaurantLogos, data)
}

// SetDishImage replaces the dish's image
func (s *CatalogService) SetDishImage(ctx context.Context, id uint, data []byte) (string, error) {
	return s.replaceImage(ctx, &models.Dish{}, id, "dish", "image", storage.DirDishes, data)
}

func (s *CatalogService) replaceImage(ctx context.Context, model any, id uint, entity, column, dir string, data []byte) (string, error) {
	var current []string
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Pluck(column, &current).Error; err != nil {
		return "", lookupErr(err, entity)
	}
	if len(current) == 0 {
		return "", apperr.NotFound(entity)
	}
	old := current[0]

	url, err := s.images.Store(ctx, dir, data)
	if err != nil {
		if invalidImage(err) {
			return "", apperr.InvalidArgument("%s", err.Error())
		}
		return "", fmt.Errorf("failed to store %s %s: %w", entity, column, err)
	}

	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Update(column, url).Error; err != nil {
		s.deleteImages(ctx, url)
		return "", fmt.Errorf("failed to save %s %s: %w", entity, column, err)
	}
	s.deleteImages(ctx, old)
	return url, nil
}

// invalidImage reports whether the store rejected the upload itself rather than failing to write it
func invalidImage(err error) bool {
	return errors.Is(err, storage.ErrEmptyImage) ||
		errors.Is(err, storage.ErrImageTooLarge) ||
		errors.Is(err, storage.ErrUnsupportedImageType)
}

// deleteImages removes stored images. Failures are logged; the row change already happened.
func (s *CatalogService) deleteImages(ctx context.Context, urls ...string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := s.images.Delete(ctx, u); err != nil {
			s.log.Warn("Failed to delete image", zap.String("url", u), zap.Error(err))
		}
	}
}
