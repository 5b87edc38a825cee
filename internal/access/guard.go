// Package access implements the membership and role checks that gate every
// mutating operation. The guard is side-effect free; engines call it before
// touching any state.
package access

import (
	"fmt"

	"github.com/roomly/roomly/internal/apperr"
	"github.com/roomly/roomly/internal/model"
	"github.com/roomly/roomly/internal/store"
)

type Guard struct {
	households *store.HouseholdStore
}

func NewGuard(households *store.HouseholdStore) *Guard {
	return &Guard{households: households}
}

// Authorize confirms the user holds an active membership in the household.
func (g *Guard) Authorize(userID, householdID int64) (*model.Membership, error) {
	if householdID == 0 {
		return nil, apperr.Validation("household id is required")
	}

	m, err := g.households.GetMember(householdID, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup membership: %w", err)
	}
	if m == nil || !m.Active {
		return nil, apperr.AccessDenied("user %d is not an active member of household %d", userID, householdID)
	}
	return m, nil
}

// AuthorizeAdmin confirms active membership with the admin role.
func (g *Guard) AuthorizeAdmin(userID, householdID int64) (*model.Membership, error) {
	m, err := g.Authorize(userID, householdID)
	if err != nil {
		return nil, err
	}
	if m.Role != model.RoleAdmin {
		return nil, apperr.AccessDenied("user %d is not an admin of household %d", userID, householdID)
	}
	return m, nil
}
