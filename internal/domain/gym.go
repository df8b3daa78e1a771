package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Gym is a tenant: the unit of data isolation.
type Gym struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	GymCode    string             `bson:"gymCode" json:"gymCode"`
	Email      string             `bson:"email" json:"email"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address    string             `bson:"address,omitempty" json:"address,omitempty"`
	City       string             `bson:"city,omitempty" json:"city,omitempty"`
	State      string             `bson:"state,omitempty" json:"state,omitempty"`
	Country    string             `bson:"country,omitempty" json:"country,omitempty"`
	PostalCode string             `bson:"postalCode,omitempty" json:"postalCode,omitempty"`
	LogoURL    string             `bson:"logoUrl,omitempty" json:"logoUrl,omitempty"`
	ThemeColor string             `bson:"themeColor,omitempty" json:"themeColor,omitempty"`
	Timezone   string             `bson:"timezone" json:"timezone"`
	IsActive   bool               `bson:"isActive" json:"isActive"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Location returns the gym's configured time zone, falling back to UTC when
// the stored name cannot be loaded.
func (g *Gym) Location() *time.Location {
	if g.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ContactInfo carries the optional contact fields set at gym creation and
// on later updates. GymCode is deliberately absent: codes are immutable.
type ContactInfo struct {
	Email      string
	Phone      string
	Address    string
	City       string
	State      string
	Country    string
	PostalCode string
	LogoURL    string
	ThemeColor string
	Timezone   string
}

// Apply copies the non-empty fields of c onto g.
func (c ContactInfo) Apply(g *Gym) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&g.Email, c.Email)
	set(&g.Phone, c.Phone)
	set(&g.Address, c.Address)
	set(&g.City, c.City)
	set(&g.State, c.State)
	set(&g.Country, c.Country)
	set(&g.PostalCode, c.PostalCode)
	set(&g.LogoURL, c.LogoURL)
	set(&g.ThemeColor, c.ThemeColor)
	set(&g.Timezone, c.Timezone)
}

// Branch is a physical location of a gym.
type Branch struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GymID     primitive.ObjectID `bson:"gymId" json:"gymId"`
	Name      string             `bson:"name" json:"name"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	City      string             `bson:"city,omitempty" json:"city,omitempty"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
