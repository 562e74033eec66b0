package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type TripModel struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Destination string
	StartDate   string
	EndDate     string
	UserID      string    `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"not null;index"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type MessageModel struct {
	ID          string `gorm:"primaryKey"`
	TripID      string `gorm:"not null;index"`
	Role        string `gorm:"not null"`
	Content     string `gorm:"type:text;not null"`
	MessageType string `gorm:"not null;default:text"`
	Metadata    datatypes.JSON
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (TripModel) TableName() string    { return "trips" }
func (MessageModel) TableName() string { return "messages" }
