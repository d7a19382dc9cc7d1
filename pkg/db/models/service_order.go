package models

import (
	"time"

	"github.com/friotec/fieldservice-backend/pkg/enums"
	"github.com/google/uuid"
)

// ServiceOrder is one unit of field work tracked through its status lifecycle.
type ServiceOrder struct {
	ID                  uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	Code                string                     `gorm:"column:code;not null;uniqueIndex"`
	ClientID            uuid.UUID                  `gorm:"column:client_id;type:uuid;not null;index"`
	EstablishmentID     *uuid.UUID                 `gorm:"column:establishment_id;type:uuid"`
	EquipmentID         *uuid.UUID                 `gorm:"column:equipment_id;type:uuid"`
	Type                enums.ServiceOrderType     `gorm:"column:type;type:text;not null"`
	Status              enums.ServiceOrderStatus   `gorm:"column:status;type:text;not null"`
	Priority            enums.ServiceOrderPriority `gorm:"column:priority;type:text;not null"`
	Description         string                     `gorm:"column:description;not null"`
	ScheduledAt         *time.Time                 `gorm:"column:scheduled_at"`
	Warranty            bool                       `gorm:"column:warranty;not null;default:false"`
	CallBeforeArrival   bool                       `gorm:"column:call_before_arrival;not null;default:false"`
	ContactName         *string                    `gorm:"column:contact_name"`
	ContactPhone        *string                    `gorm:"column:contact_phone"`
	Store               enums.Store                `gorm:"column:store;type:text;not null"`
	Cause               *string                    `gorm:"column:cause"`
	ClientSignature     *string                    `gorm:"column:client_signature"`
	TechnicianSignature *string                    `gorm:"column:technician_signature"`
	TimerStartedAt      *time.Time                 `gorm:"column:timer_started_at"`
	CreatedBy           uuid.UUID                  `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt           time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

// TimerActive reports whether a technician is currently clocked on the order.
func (o ServiceOrder) TimerActive() bool {
	return o.TimerStartedAt != nil
}

// Activity is an append-only audit entry produced by every mutation.
type Activity struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ServiceOrderID uuid.UUID `gorm:"column:service_order_id;type:uuid;not null;index"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	UserName       string    `gorm:"column:user_name;not null"`
	Description    string    `gorm:"column:description;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Activity) TableName() string { return "service_order_activities" }

// Note is a human-authored, append-only annotation.
type Note struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ServiceOrderID uuid.UUID `gorm:"column:service_order_id;type:uuid;not null;index"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	UserName       string    `gorm:"column:user_name;not null"`
	Content        string    `gorm:"column:content;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Note) TableName() string { return "service_order_notes" }
