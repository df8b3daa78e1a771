package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType is a free-form category; these are the ones the system
// itself sends.
type NotificationType string

const (
	NotificationGeneral             NotificationType = "general"
	NotificationSubscriptionExpired NotificationType = "subscription_expired"
	NotificationClass               NotificationType = "class"
)

// Notification is a message to one member, or to the whole gym when
// RecipientID is nil.
type Notification struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	GymID       primitive.ObjectID  `bson:"gymId" json:"gymId"`
	RecipientID *primitive.ObjectID `bson:"recipientId,omitempty" json:"recipientId,omitempty"`
	SenderID    *primitive.ObjectID `bson:"senderId,omitempty" json:"senderId,omitempty"`
	Title       string              `bson:"title" json:"title"`
	Message     string              `bson:"message" json:"message"`
	Type        NotificationType    `bson:"type" json:"type"`
	IsRead      bool                `bson:"isRead" json:"isRead"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}
