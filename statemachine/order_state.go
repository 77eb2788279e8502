package statemachine

import (
	"fmt"
	"strings"

	"tajeats-api/models"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From   models.OrderStatus `json:"from"`
	To     models.OrderStatus `json:"to"`
	Actors []models.UserRole  `json:"actors"`
}

// validTransitions is the authoritative state machine definition.
// Admins may perform any transition listed here, nothing else.
var validTransitions = []Transition{
	// Restaurant accepts the order
	{From: models.StatusPlaced, To: models.StatusApproved, Actors: []models.UserRole{models.RoleRestaurantOwner}},
	{From: models.StatusPlaced, To: models.StatusCancelled, Actors: []models.UserRole{models.RoleRestaurantOwner, models.RoleCustomer}},
	{From: models.StatusApproved, To: models.StatusPreparing, Actors: []models.UserRole{models.RoleRestaurantOwner}},
	// A rider may collect an approved order straight away
	{From: models.StatusApproved, To: models.StatusOnTheWay, Actors: []models.UserRole{models.RoleRider}},
	{From: models.StatusApproved, To: models.StatusCancelled, Actors: []models.UserRole{models.RoleRestaurantOwner}},
	{From: models.StatusPreparing, To: models.StatusOnTheWay, Actors: []models.UserRole{models.RoleRestaurantOwner, models.RoleRider}},
	// Pickup orders are handed over at the counter
	{From: models.StatusPreparing, To: models.StatusDelivered, Actors: []models.UserRole{models.RoleRestaurantOwner}},
	{From: models.StatusOnTheWay, To: models.StatusDelivered, Actors: []models.UserRole{models.RoleRider}},
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor models.UserRole
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		for _, a := range t.Actors {
			m[transitionKey{t.From, t.To, a}] = true
		}
		m[transitionKey{t.From, t.To, models.RoleAdmin}] = true
	}
	return m
}()

// TransitionError describes a rejected status change
type TransitionError struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor models.UserRole
	Valid []models.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s → %s is not allowed for %s. Valid transitions from %s are: %s",
		e.From, e.To, e.Actor, e.From, describe(e.Valid))
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// ValidTransitionsFor returns the next states the given actor may move to
func ValidTransitionsFor(status models.OrderStatus, actor models.UserRole) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, to := range ValidTransitionsFrom(status) {
		if transitionMap[transitionKey{status, to, actor}] {
			nexts = append(nexts, to)
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.OrderStatus, actor models.UserRole) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return &TransitionError{From: from, To: to, Actor: actor, Valid: ValidTransitionsFrom(from)}
}

func describe(nexts []models.OrderStatus) string {
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
