package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile is one authenticated person. GymID stays nil until onboarding
// (creating a gym or joining one by code) completes.
type Profile struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Email            string              `bson:"email" json:"email"`
	PasswordHash     string              `bson:"passwordHash" json:"-"`
	FirstName        string              `bson:"firstName" json:"firstName"`
	LastName         string              `bson:"lastName" json:"lastName"`
	Phone            string              `bson:"phone,omitempty" json:"phone,omitempty"`
	DateOfBirth      *time.Time          `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	EmergencyContact string              `bson:"emergencyContact,omitempty" json:"emergencyContact,omitempty"`
	EmergencyPhone   string              `bson:"emergencyPhone,omitempty" json:"emergencyPhone,omitempty"`
	Role             Role                `bson:"role" json:"role"`
	GymID            *primitive.ObjectID `bson:"gymId,omitempty" json:"gymId,omitempty"`
	BranchID         *primitive.ObjectID `bson:"branchId,omitempty" json:"branchId,omitempty"`
	MemberCode       string              `bson:"memberCode,omitempty" json:"memberCode,omitempty"`
	IsActive         bool                `bson:"isActive" json:"isActive"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}

func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p *Profile) IsMember() bool {
	return p.Role == RoleMember
}

// BelongsTo reports whether the profile is onboarded into gymID.
func (p *Profile) BelongsTo(gymID primitive.ObjectID) bool {
	return p.GymID != nil && *p.GymID == gymID
}

// Principal is the resolved identity of the caller of a request.
type Principal struct {
	ProfileID primitive.ObjectID
	GymID     *primitive.ObjectID
	BranchID  *primitive.ObjectID
	Role      Role
	Active    bool
}

// PrincipalOf builds the principal view of a profile.
func PrincipalOf(p *Profile) Principal {
	return Principal{
		ProfileID: p.ID,
		GymID:     p.GymID,
		BranchID:  p.BranchID,
		Role:      p.Role,
		Active:    p.IsActive,
	}
}

func (p Principal) Can(c Capability) bool {
	return p.Active && p.Role.Can(c)
}

// Onboarded reports whether the principal is scoped to a gym.
func (p Principal) Onboarded() bool {
	return p.GymID != nil && *p.GymID != primitive.NilObjectID
}
