package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is the billing identity that service orders belong to.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Document  *string   `gorm:"column:document"`
	Phone     *string   `gorm:"column:phone"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Establishment is a physical site of a client.
type Establishment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClientID  uuid.UUID `gorm:"column:client_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	Address   *string   `gorm:"column:address"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Equipment is an asset installed at an establishment.
type Equipment struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	EstablishmentID uuid.UUID `gorm:"column:establishment_id;type:uuid;not null;index"`
	Name            string    `gorm:"column:name;not null"`
	Brand           *string   `gorm:"column:brand"`
	Model           *string   `gorm:"column:model"`
	Serial          *string   `gorm:"column:serial"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Equipment) TableName() string { return "equipments" }
