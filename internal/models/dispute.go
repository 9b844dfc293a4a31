package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Party kinds a dispute participant can be.
const (
	PartyPassenger = "passenger"
	PartyDriver    = "driver"
	PartyAdmin     = "admin"
)

// PartyRef is a tagged reference to a passenger, driver, or admin. Disputes
// use it instead of nullable foreign keys to three tables; resolution goes
// through a dispatch table on Kind.
type PartyRef struct {
	Kind string `json:"kind" gorm:"not null"`
	ID   uint   `json:"id" gorm:"not null"`
}

// Validate checks the kind tag.
func (p PartyRef) Validate() error {
	switch p.Kind {
	case PartyPassenger, PartyDriver, PartyAdmin:
		return nil
	default:
		return fmt.Errorf("invalid party kind %q: must be passenger, driver, or admin", p.Kind)
	}
}

// Dispute status values.
const (
	DisputeStatusOpen     = "open"
	DisputeStatusResolved = "resolved"
	DisputeStatusClosed   = "closed"
)

// Dispute is a complaint ticket between two platform parties.
type Dispute struct {
	gorm.Model
	Subject     string   `json:"subject" gorm:"not null"`
	Description string   `json:"description"`
	Status      string   `json:"status" gorm:"default:open"`
	Complainant PartyRef `json:"complainant" gorm:"embedded;embeddedPrefix:complainant_"`
	Respondent  PartyRef `json:"respondent" gorm:"embedded;embeddedPrefix:respondent_"`

	Replies []DisputeReply `json:"replies,omitempty" gorm:"foreignKey:DisputeID"`
}

// DisputeReply is a message on a dispute thread; the replier may be any
// party kind.
type DisputeReply struct {
	gorm.Model
	DisputeID uint     `json:"disputeId" gorm:"index;not null"`
	Replier   PartyRef `json:"replier" gorm:"embedded;embeddedPrefix:replier_"`
	Message   string   `json:"message" gorm:"not null"`
}
