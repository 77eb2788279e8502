package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tajeats-api/apperr"
	"tajeats-api/auth"
	"tajeats-api/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TokenIssuer mints a session token for an authenticated user
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

// AccountService handles registration, login and the approval workflow for
// restaurant owners and riders.
type AccountService struct {
	db     *gorm.DB
	hasher auth.PasswordHasher
	tokens TokenIssuer
	log    *zap.Logger
}

func NewAccountService(db *gorm.DB, hasher auth.PasswordHasher, tokens TokenIssuer, log *zap.Logger) *AccountService {
	return &AccountService{db: db, hasher: hasher, tokens: tokens, log: log.Named("accounts")}
}

type RegisterInput struct {
	Name     string          `json:"name" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	Phone    string          `json:"phone"`
	Role     models.UserRole `json:"role" binding:"omitempty,role"`
}

// LoginResult is returned on successful login
type LoginResult struct {
	Token string         `json:"token"`
	User  models.Profile `json:"user"`
}

// Register creates an account. Customers are approved immediately; owners and
// riders wait for an admin.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	if !in.Role.SelfRegistrable() {
		return nil, apperr.InvalidArgument("role %q cannot be chosen at registration", in.Role)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.InvalidArgument("name is required")
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, apperr.InvalidArgument("password must be at least %d characters", auth.MinPasswordLength)
	}
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, apperr.InvalidArgument("email is required")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperr.InvalidArgument("%s", err.Error())
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		Phone:        in.Phone,
		IsApproved:   !in.Role.RequiresApproval(),
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("Account registered",
		zap.Uint("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Bool("approved", user.IsApproved),
	)
	return user, nil
}

// CreateAdmin creates an approved administrator. Only reachable from the CLI.
func (s *AccountService) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	if len(password) < auth.MinPasswordLength {
		return nil, apperr.InvalidArgument("password must be at least %d characters", auth.MinPasswordLength)
	}
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(name) == "" {
		return nil, apperr.InvalidArgument("name and email are required")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsApproved:   true,
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) create(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if count > 0 {
			return apperr.AlreadyExists("email %s is already registered", user.Email)
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.AlreadyExists("email %s is already registered", user.Email)
			}
			return fmt.Errorf("failed to create account: %w", err)
		}
		return nil
	})
}

// Login checks the approval gate first, then the password.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.InvalidCredentials()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if user.Role.RequiresApproval() && !user.IsApproved {
		return nil, apperr.PendingApproval(user.Profile())
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, apperr.InvalidCredentials()
	}

	token, err := s.tokens.Issue(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &LoginResult{Token: token, User: user.Profile()}, nil
}

// Me returns the caller's profile. A deleted account counts as bad credentials.
func (s *AccountService) Me(ctx context.Context, userID uint) (*models.Profile, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.InvalidCredentials()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	p := user.Profile()
	return &p, nil
}

// Token issues a fresh token for the account, picking up a changed restaurant link
func (s *AccountService) Token(ctx context.Context, userID uint) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.InvalidCredentials()
	}
	if err != nil {
		return "", fmt.Errorf("failed to load account: %w", err)
	}
	token, err := s.tokens.Issue(&user)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// ListPending returns restaurant owners waiting for approval
func (s *AccountService) ListPending(ctx context.Context) ([]models.Profile, error) {
	return s.listUnapproved(ctx, models.RoleRestaurantOwner)
}

// ListPendingRiders returns riders waiting for approval
func (s *AccountService) ListPendingRiders(ctx context.Context) ([]models.Profile, error) {
	return s.listUnapproved(ctx, models.RoleRider)
}

func (s *AccountService) listUnapproved(ctx context.Context, role models.UserRole) ([]models.Profile, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Where("role = ? AND is_approved = ?", role, false).
		Order("created_at ASC").Order("id ASC").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending accounts: %w", err)
	}
	return profiles(users), nil
}

func (s *AccountService) Approve(ctx context.Context, userID uint) (*models.Profile, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			return lookupErr(err, "user")
		}
		if err := tx.Model(&user).Update("is_approved", true).Error; err != nil {
			return fmt.Errorf("failed to approve account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Account approved", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	p := user.Profile()
	return &p, nil
}

// Reject deletes the account
func (s *AccountService) Reject(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return lookupErr(err, "user")
		}
		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("failed to reject account: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("Account rejected", zap.Uint("user_id", userID))
	return nil
}

// RestaurantOf returns the stored restaurant link of an account, nil when unlinked
func (s *AccountService) RestaurantOf(ctx context.Context, userID uint) (*uint, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "restaurant_id").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.InvalidCredentials()
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user.RestaurantID, nil
}

// LinkRestaurant associates a staff account with a restaurant. Admins may link
// any owner or rider. An owner may link themselves to a restaurant nobody else
// owns, and may link riders to the restaurant they own. Riders cannot link
// themselves.
func (s *AccountService) LinkRestaurant(ctx context.Context, caller Actor, userID, restaurantID uint) (*models.Profile, error) {
	if !caller.IsAdmin() && caller.Role != models.RoleRestaurantOwner {
		return nil, apperr.Forbidden("only restaurant owners and admins can link accounts")
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			return lookupErr(err, "user")
		}
		if user.Role != models.RoleRestaurantOwner && user.Role != models.RoleRider {
			return apperr.Forbidden("only restaurant owners and riders can be linked to a restaurant")
		}
		if err := requireRestaurant(tx, restaurantID); err != nil {
			return err
		}
		if !caller.IsAdmin() {
			if err := authorizeLink(tx, caller, &user, restaurantID); err != nil {
				return err
			}
		}
		if user.Role == models.RoleRestaurantOwner {
			var others int64
			err := tx.Model(&models.User{}).
				Where("role = ? AND restaurant_id = ? AND id <> ?", models.RoleRestaurantOwner, restaurantID, user.ID).
				Count(&others).Error
			if err != nil {
				return fmt.Errorf("failed to check restaurant owner: %w", err)
			}
			if others > 0 {
				return apperr.Forbidden("restaurant %d already has an owner", restaurantID)
			}
		}
		if err := tx.Model(&user).Update("restaurant_id", restaurantID).Error; err != nil {
			return fmt.Errorf("failed to link restaurant: %w", err)
		}
		user.RestaurantID = &restaurantID
		return nil
	})
	if err != nil {
		return nil, err
	}
	p := user.Profile()
	return &p, nil
}

// authorizeLink checks a non-admin caller against the stored links, not token claims
func authorizeLink(tx *gorm.DB, caller Actor, user *models.User, restaurantID uint) error {
	if user.ID == caller.UserID {
		if user.Role != models.RoleRestaurantOwner {
			return apperr.Forbidden("riders are linked by the restaurant owner")
		}
		return nil
	}
	if user.Role != models.RoleRider {
		return apperr.Forbidden("you can only link riders to your restaurant")
	}
	var owner models.User
	if err := tx.Select("id", "restaurant_id").First(&owner, caller.UserID).Error; err != nil {
		return lookupErr(err, "user")
	}
	if owner.RestaurantID == nil || *owner.RestaurantID != restaurantID {
		return apperr.Forbidden("you do not own restaurant %d", restaurantID)
	}
	return nil
}

// ListRidersByRestaurant returns the approved riders working for a restaurant
func (s *AccountService) ListRidersByRestaurant(ctx context.Context, restaurantID uint) ([]models.Profile, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND restaurant_id = ? AND is_approved = ?", models.RoleRider, restaurantID, true).
		Order("id ASC").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list riders: %w", err)
	}
	return profiles(users), nil
}

func profiles(users []models.User) []models.Profile {
	out := make([]models.Profile, len(users))
	for i := range users {
		out[i] = users[i].Profile()
	}
	return out
}
