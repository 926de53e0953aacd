package models

import (
	"time"

	"ethos/backend/internal/config"

	"github.com/lib/pq"
)

// Case is the complaint record a chat thread hangs off. The complaint
// service owns it; the chat engine only reads it.
type Case struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	Code       string `gorm:"type:text;uniqueIndex;not null" json:"code"`
	ReporterID string `gorm:"type:text;not null;index" json:"-"`
	// AssignedTo lists investigator ids. Empty means the case sits in the shared queue.
	AssignedTo pq.StringArray `gorm:"type:text[]" json:"-"`
	Status     string         `gorm:"type:text;not null;default:'new'" json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TableName matches the complaint service's table.
func (Case) TableName() string {
	return "cases"
}

// IsClosed reports whether the complaint service has finished with the case.
func (c *Case) IsClosed() bool {
	return config.ClosedCaseStatuses[c.Status]
}

// IsAssignedTo reports whether investigatorID appears in the assignment list.
func (c *Case) IsAssignedTo(investigatorID string) bool {
	for _, id := range c.AssignedTo {
		if id == investigatorID {
			return true
		}
	}
	return false
}
