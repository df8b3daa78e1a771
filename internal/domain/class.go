package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClassStatus is the lifecycle state of a scheduled class.
type ClassStatus string

const (
	ClassScheduled  ClassStatus = "scheduled"
	ClassInProgress ClassStatus = "in_progress"
	ClassCompleted  ClassStatus = "completed"
	ClassFinished   ClassStatus = "finished"
	ClassCancelled  ClassStatus = "cancelled"
)

// DefaultClassCapacity applies when a class is created without a capacity.
const DefaultClassCapacity = 20

// Class is a scheduled group session at a branch.
type Class struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	GymID           primitive.ObjectID  `bson:"gymId" json:"gymId"`
	BranchID        primitive.ObjectID  `bson:"branchId" json:"branchId"`
	TrainerID       *primitive.ObjectID `bson:"trainerId,omitempty" json:"trainerId,omitempty"`
	Name            string              `bson:"name" json:"name"`
	Description     string              `bson:"description,omitempty" json:"description,omitempty"`
	StartTime       time.Time           `bson:"startTime" json:"startTime"`
	EndTime         time.Time           `bson:"endTime" json:"endTime"`
	MaxCapacity     int64               `bson:"maxCapacity" json:"maxCapacity"`
	CurrentBookings int64               `bson:"currentBookings" json:"currentBookings"`
	Status          ClassStatus         `bson:"status" json:"status"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// StatusAt derives the effective status at now. Cancelled and completed are
// stored; the rest follow the clock.
func (c *Class) StatusAt(now time.Time) ClassStatus {
	switch {
	case c.Status == ClassCancelled || c.Status == ClassCompleted:
		return c.Status
	case now.After(c.EndTime):
		return ClassFinished
	case !now.Before(c.StartTime):
		return ClassInProgress
	default:
		return ClassScheduled
	}
}

// Bookable reports whether members may still book the class at now.
func (c *Class) Bookable(now time.Time) bool {
	return c.StatusAt(now) == ClassScheduled
}

func (c *Class) Full() bool {
	return c.CurrentBookings >= c.MaxCapacity
}

// BookingStatus of a member's place in a class.
type BookingStatus string

const (
	BookingConfirmed  BookingStatus = "confirmed"
	BookingWaitlisted BookingStatus = "waitlisted"
	BookingCancelled  BookingStatus = "cancelled"
)

// ClassBooking is a member's reservation in a class.
type ClassBooking struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GymID     primitive.ObjectID `bson:"gymId" json:"gymId"`
	ClassID   primitive.ObjectID `bson:"classId" json:"classId"`
	MemberID  primitive.ObjectID `bson:"memberId" json:"memberId"`
	Status    BookingStatus      `bson:"status" json:"status"`
	BookedAt  time.Time          `bson:"bookedAt" json:"bookedAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
