package model

import "time"

// Activity log action kinds
const (
	ActionLeadCreated            = "lead_created"
	ActionQualificationCompleted = "qualification_completed"
	ActionOutreachGenerated      = "outreach_generated"
	ActionStageProgression       = "stage_progression"
	ActionLeadUpdated            = "lead_updated"
	ActionLeadDeleted            = "lead_deleted"
)

// ActorSystem is the actor label for server-initiated activity entries
const ActorSystem = "system"

// ActivityLog is an append-only record of an action taken against a lead.
// Entries are never mutated; they are removed only when the owning lead is
// deleted.
type ActivityLog struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	LeadID    uint      `json:"lead_id" gorm:"index;not null"`
	Actor     string    `json:"actor" gorm:"type:varchar(100);not null"`
	Action    string    `json:"action" gorm:"type:varchar(50);not null"`
	Detail    string    `json:"detail" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}
