// Package event records invitation lifecycle events in an outbox table
// for downstream consumers.
package event

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	InvitationSentTopic     = "invitation.sent"
	InvitationAcceptedTopic = "invitation.accepted"
	InvitationDeclinedTopic = "invitation.declined"
	InvitationExpiredTopic  = "invitation.expired"
)

// InvitationEvent captures outbox events for invitation workflows.
type InvitationEvent struct {
	ID          snowflake.ID      `gorm:"primaryKey"`
	PropertyID  snowflake.ID      `gorm:"not null;index"`
	EventType   string            `gorm:"type:text;not null"`
	Payload     datatypes.JSONMap `gorm:"type:jsonb;not null"`
	Published   bool              `gorm:"not null;default:false"`
	PublishedAt *time.Time        `gorm:""`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InvitationEvent) TableName() string { return "invitation_events" }

type Recorder struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewRecorder(db *gorm.DB, genID *snowflake.Node) *Recorder {
	return &Recorder{db: db, genID: genID}
}

// Record appends one event row. Failures here must not fail the calling
// operation; callers log and move on.
func (r *Recorder) Record(ctx context.Context, propertyID snowflake.ID, eventType string, payload datatypes.JSONMap) error {
	ev := &InvitationEvent{
		ID:         r.genID.Generate(),
		PropertyID: propertyID,
		EventType:  eventType,
		Payload:    payload,
	}
	return r.db.WithContext(ctx).Create(ev).Error
}
