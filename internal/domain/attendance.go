package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AttendanceLog is one presence interval of a member at a branch. A nil
// CheckOutTime means the member is currently inside.
type AttendanceLog struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	GymID        primitive.ObjectID  `bson:"gymId" json:"gymId"`
	BranchID     primitive.ObjectID  `bson:"branchId" json:"branchId"`
	MemberID     primitive.ObjectID  `bson:"memberId" json:"memberId"`
	Day          string              `bson:"day" json:"day"` // tenant-local YYYY-MM-DD of check-in
	Open         bool                `bson:"open" json:"open"`
	CheckInTime  time.Time           `bson:"checkInTime" json:"checkInTime"`
	CheckOutTime *time.Time          `bson:"checkOutTime,omitempty" json:"checkOutTime,omitempty"`
	ScannedBy    *primitive.ObjectID `bson:"scannedBy,omitempty" json:"scannedBy,omitempty"`
	Notes        string              `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Duration is the time spent inside; zero while the log is open.
func (l *AttendanceLog) Duration() time.Duration {
	if l.CheckOutTime == nil {
		return 0
	}
	return l.CheckOutTime.Sub(l.CheckInTime)
}

// AttendanceEvent is the transition a scan produced.
type AttendanceEvent string

const (
	EventCheckedIn  AttendanceEvent = "checked_in"
	EventCheckedOut AttendanceEvent = "checked_out"
)

// ScanResult is what a scan reports back to the scanner.
type ScanResult struct {
	Event     AttendanceEvent `json:"event"`
	Member    *Profile        `json:"member"`
	Log       *AttendanceLog  `json:"log"`
	Timestamp time.Time       `json:"timestamp"`
	Duration  time.Duration   `json:"-"`
	Elapsed   string          `json:"duration,omitempty"`
	Message   string          `json:"message"`
}

// FormatDuration renders a duration as "1h30m" style hours and minutes.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh%dm", h, m)
}
