package statemachine

import (
	"testing"

	"tajeats-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    models.OrderStatus
		to      models.OrderStatus
		actor   models.UserRole
		allowed bool
	}{
		{"owner approves placed", models.StatusPlaced, models.StatusApproved, models.RoleRestaurantOwner, true},
		{"customer cancels placed", models.StatusPlaced, models.StatusCancelled, models.RoleCustomer, true},
		{"customer cannot cancel approved", models.StatusApproved, models.StatusCancelled, models.RoleCustomer, false},
		{"rider takes approved", models.StatusApproved, models.StatusOnTheWay, models.RoleRider, true},
		{"rider delivers", models.StatusOnTheWay, models.StatusDelivered, models.RoleRider, true},
		{"owner hands over pickup", models.StatusPreparing, models.StatusDelivered, models.RoleRestaurantOwner, true},
		{"rider cannot approve", models.StatusPlaced, models.StatusApproved, models.RoleRider, false},
		{"no skipping to delivered", models.StatusPlaced, models.StatusDelivered, models.RoleRestaurantOwner, false},
		{"no going backwards", models.StatusPreparing, models.StatusPlaced, models.RoleRestaurantOwner, false},
		{"admin uses table rows", models.StatusOnTheWay, models.StatusDelivered, models.RoleAdmin, true},
		{"admin cannot leave terminal", models.StatusDelivered, models.StatusPlaced, models.RoleAdmin, false},
		{"admin cannot revive cancelled", models.StatusCancelled, models.StatusApproved, models.RoleAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(tt.from, tt.to, tt.actor)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var te *TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.from, te.From)
			assert.Equal(t, tt.to, te.To)
		})
	}
}

func TestValidTransitionsFrom(t *testing.T) {
	assert.Equal(t,
		[]models.OrderStatus{models.StatusApproved, models.StatusCancelled},
		ValidTransitionsFrom(models.StatusPlaced))
	assert.Empty(t, ValidTransitionsFrom(models.StatusDelivered))
	assert.Empty(t, ValidTransitionsFrom(models.StatusCancelled))
}

func TestValidTransitionsFor(t *testing.T) {
	assert.Equal(t,
		[]models.OrderStatus{models.StatusOnTheWay},
		ValidTransitionsFor(models.StatusApproved, models.RoleRider))
	assert.Equal(t,
		[]models.OrderStatus{models.StatusPreparing, models.StatusOnTheWay, models.StatusCancelled},
		ValidTransitionsFor(models.StatusApproved, models.RoleAdmin))
}

func TestTransitionError_Message(t *testing.T) {
	err := CanTransition(models.StatusDelivered, models.StatusPlaced, models.RoleAdmin)
	assert.Contains(t, err.Error(), "none (terminal state)")
}
