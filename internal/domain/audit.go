package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit actions.
const (
	AuditTenantCreated     = "tenant_created"
	AuditTenantJoined      = "tenant_joined"
	AuditMemberCreated     = "member_created"
	AuditMemberRoleChanged = "member_role_changed"
	AuditPlanAssigned      = "plan_assigned"
	AuditMemberDeactivated = "member_deactivated"
)

// AuditEntry records a sensitive change for later review.
type AuditEntry struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Action    string              `bson:"action" json:"action"`
	GymID     *primitive.ObjectID `bson:"gymId,omitempty" json:"gymId,omitempty"`
	UserID    primitive.ObjectID  `bson:"userId" json:"userId"`
	Table     string              `bson:"table" json:"table"`
	RecordID  primitive.ObjectID  `bson:"recordId" json:"recordId"`
	NewValues map[string]any      `bson:"newValues,omitempty" json:"newValues,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}
