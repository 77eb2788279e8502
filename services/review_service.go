package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tajeats-api/apperr"
	"tajeats-api/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReviewService stores reviews and keeps each restaurant's rating summary in step
type ReviewService struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewReviewService(db *gorm.DB, log *zap.Logger) *ReviewService {
	return &ReviewService{db: db, log: log.Named("reviews"), now: time.Now}
}

type ReviewInput struct {
	RestaurantID uint       `json:"restaurantId" binding:"required"`
	UserName     string     `json:"userName" binding:"required"`
	UserAvatar   string     `json:"userAvatar"`
	Rating       int        `json:"rating" binding:"required"`
	Comment      string     `json:"comment"`
	Date         *time.Time `json:"date"`
}

func (in *ReviewInput) validate() error {
	if in.Rating < models.MinReviewRating || in.Rating > models.MaxReviewRating {
		return apperr.InvalidArgument("rating must be between %d and %d", models.MinReviewRating, models.MaxReviewRating)
	}
	if strings.TrimSpace(in.UserName) == "" {
		return apperr.InvalidArgument("userName is required")
	}
	return nil
}

func (s *ReviewService) CreateReview(ctx context.Context, in ReviewInput) (*models.Review, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	review := &models.Review{
		RestaurantID: in.RestaurantID,
		UserName:     strings.TrimSpace(in.UserName),
		UserAvatar:   in.UserAvatar,
		Rating:       in.Rating,
		Comment:      in.Comment,
		Date:         s.reviewDate(in.Date),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRestaurant(tx, in.RestaurantID); err != nil {
			return err
		}
		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}
		return recomputeRating(tx, in.RestaurantID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Review created", zap.Uint("restaurant_id", review.RestaurantID), zap.Int("rating", review.Rating))
	return review, nil
}

func (s *ReviewService) GetReview(ctx context.Context, id uint) (*models.Review, error) {
	var r models.Review
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, lookupErr(err, "review")
	}
	return &r, nil
}

// ListReviews returns reviews newest first. restaurantID 0 lists all.
func (s *ReviewService) ListReviews(ctx context.Context, restaurantID uint) ([]models.Review, error) {
	q := s.db.WithContext(ctx)
	if restaurantID != 0 {
		q = q.Where("restaurant_id = ?", restaurantID)
	}
	reviews := []models.Review{}
	if err := q.Order("date DESC").Order("id DESC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// UpdateReview replaces the review. Moving it to another restaurant recomputes both.
func (s *ReviewService) UpdateReview(ctx context.Context, id uint, in ReviewInput) (*models.Review, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var review models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&review, id).Error; err != nil {
			return lookupErr(err, "review")
		}
		previous := review.RestaurantID
		if in.RestaurantID != previous {
			if err := requireRestaurant(tx, in.RestaurantID); err != nil {
				return err
			}
		}

		review.RestaurantID = in.RestaurantID
		review.UserName = strings.TrimSpace(in.UserName)
		review.UserAvatar = in.UserAvatar
		review.Rating = in.Rating
		review.Comment = in.Comment
		if in.Date != nil {
			review.Date = in.Date.UTC()
		}
		if err := tx.Save(&review).Error; err != nil {
			return fmt.Errorf("failed to update review: %w", err)
		}

		if err := recomputeRating(tx, review.RestaurantID); err != nil {
			return err
		}
		if previous != review.RestaurantID {
			return recomputeRating(tx, previous)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.First(&review, id).Error; err != nil {
			return lookupErr(err, "review")
		}
		if err := tx.Delete(&review).Error; err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}
		return recomputeRating(tx, review.RestaurantID)
	})
}

func (s *ReviewService) reviewDate(d *time.Time) time.Time {
	if d != nil && !d.IsZero() {
		return d.UTC()
	}
	y, m, day := s.now().UTC().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func requireRestaurant(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.Restaurant{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to load restaurant: %w", err)
	}
	if count == 0 {
		return apperr.NotFound("restaurant")
	}
	return nil
}

// recomputeRating rewrites the restaurant's rating and review count from its
// reviews in a single statement, so no stale average can be written back.
func recomputeRating(tx *gorm.DB, restaurantID uint) error {
	err := tx.Model(&models.Restaurant{}).Where("id = ?", restaurantID).
		UpdateColumns(map[string]any{
			"rating":       gorm.Expr("COALESCE((SELECT AVG(rating) FROM reviews WHERE restaurant_id = ?), 0)", restaurantID),
			"review_count": gorm.Expr("(SELECT COUNT(*) FROM reviews WHERE restaurant_id = ?)", restaurantID),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to recompute rating: %w", err)
	}
	return nil
}
