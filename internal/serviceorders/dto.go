package serviceorders

import (
	"time"

	"github.com/friotec/fieldservice-backend/pkg/db/models"
	"github.com/friotec/fieldservice-backend/pkg/enums"
	"github.com/friotec/fieldservice-backend/pkg/pagination"
	"github.com/google/uuid"
)

// CreateInput describes a new service order.
type CreateInput struct {
	ClientID          uuid.UUID                  `json:"client_id" validate:"required"`
	EstablishmentID   *uuid.UUID                 `json:"establishment_id,omitempty"`
	EquipmentID       *uuid.UUID                 `json:"equipment_id,omitempty"`
	Type              enums.ServiceOrderType     `json:"type" validate:"required,enum"`
	Priority          enums.ServiceOrderPriority `json:"priority,omitempty" validate:"omitempty,enum"`
	Description       string                     `json:"description" validate:"required"`
	ScheduledAt       *time.Time                 `json:"scheduled_at,omitempty"`
	Warranty          bool                       `json:"warranty"`
	CallBeforeArrival bool                       `json:"call_before_arrival"`
	ContactName       *string                    `json:"contact_name,omitempty"`
	ContactPhone      *string                    `json:"contact_phone,omitempty"`
	Store             enums.Store                `json:"store,omitempty"`
}

// UpdateFieldsInput is a partial edit. Nil fields are left untouched; an empty
// string clears an optional text field.
type UpdateFieldsInput struct {
	Description         *string                     `json:"description,omitempty"`
	Priority            *enums.ServiceOrderPriority `json:"priority,omitempty"`
	ScheduledAt         *time.Time                  `json:"scheduled_at,omitempty"`
	Warranty            *bool                       `json:"warranty,omitempty"`
	CallBeforeArrival   *bool                       `json:"call_before_arrival,omitempty"`
	ContactName         *string                     `json:"contact_name,omitempty"`
	ContactPhone        *string                     `json:"contact_phone,omitempty"`
	Cause               *string                     `json:"cause,omitempty"`
	ClientSignature     *string                     `json:"client_signature,omitempty"`
	TechnicianSignature *string                     `json:"technician_signature,omitempty"`
}

// ChangeStatusInput requests a status transition for one order.
type ChangeStatusInput struct {
	OrderID uuid.UUID
	Status  enums.ServiceOrderStatus
	Reason  string
	Origin  enums.StatusChangeOrigin
}

// BulkChangeStatusInput applies one status to many orders.
type BulkChangeStatusInput struct {
	OrderIDs []uuid.UUID
	Status   enums.ServiceOrderStatus
	Reason   string
}

// BulkItemResult is the outcome for a single order of a bulk request.
type BulkItemResult struct {
	OrderID uuid.UUID        `json:"order_id"`
	OK      bool             `json:"ok"`
	Order   *ServiceOrderDTO `json:"order,omitempty"`
	Code    string           `json:"error_code,omitempty"`
	Message string           `json:"error_message,omitempty"`
	Details any              `json:"error_details,omitempty"`
}

// BulkChangeStatusResult aggregates the per-order outcomes.
type BulkChangeStatusResult struct {
	Results   []BulkItemResult `json:"results"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// ListFilters narrows the order list.
type ListFilters struct {
	Store        string
	Statuses     []enums.ServiceOrderStatus
	Type         *enums.ServiceOrderType
	ClientID     *uuid.UUID
	UpdatedSince *time.Time
	Query        string
	Page         pagination.Params
}

// ListResult is a sorted page of orders.
type ListResult struct {
	Items []ServiceOrderDTO `json:"items"`
	Page  pagination.Page   `json:"page"`
}

// ServiceOrderDTO is the transport shape of a service order.
type ServiceOrderDTO struct {
	ID                  uuid.UUID                  `json:"id"`
	Code                string                     `json:"code"`
	ClientID            uuid.UUID                  `json:"client_id"`
	EstablishmentID     *uuid.UUID                 `json:"establishment_id,omitempty"`
	EquipmentID         *uuid.UUID                 `json:"equipment_id,omitempty"`
	Type                enums.ServiceOrderType     `json:"type"`
	Status              enums.ServiceOrderStatus   `json:"status"`
	StatusLabel         string                     `json:"status_label"`
	Priority            enums.ServiceOrderPriority `json:"priority"`
	Description         string                     `json:"description"`
	ScheduledAt         *time.Time                 `json:"scheduled_at,omitempty"`
	Warranty            bool                       `json:"warranty"`
	CallBeforeArrival   bool                       `json:"call_before_arrival"`
	ContactName         *string                    `json:"contact_name,omitempty"`
	ContactPhone        *string                    `json:"contact_phone,omitempty"`
	Store               enums.Store                `json:"store"`
	Cause               *string                    `json:"cause,omitempty"`
	ClientSignature     *string                    `json:"client_signature,omitempty"`
	TechnicianSignature *string                    `json:"technician_signature,omitempty"`
	TimerStartedAt      *time.Time                 `json:"timer_started_at,omitempty"`
	TimerActive         bool                       `json:"timer_active"`
	MissingForComplete  []string                   `json:"missing_for_completion"`
	CreatedBy           uuid.UUID                  `json:"created_by"`
	CreatedAt           time.Time                  `json:"created_at"`
	UpdatedAt           time.Time                  `json:"updated_at"`
}

// ActivityDTO is an audit entry.
type ActivityDTO struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	UserName    string    `json:"user_name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// NoteDTO is a user annotation.
type NoteDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func FromModel(o *models.ServiceOrder) *ServiceOrderDTO {
	if o == nil {
		return nil
	}
	return &ServiceOrderDTO{
		ID:                  o.ID,
		Code:                o.Code,
		ClientID:            o.ClientID,
		EstablishmentID:     o.EstablishmentID,
		EquipmentID:         o.EquipmentID,
		Type:                o.Type,
		Status:              o.Status,
		StatusLabel:         o.Status.Label(),
		Priority:            o.Priority,
		Description:         o.Description,
		ScheduledAt:         o.ScheduledAt,
		Warranty:            o.Warranty,
		CallBeforeArrival:   o.CallBeforeArrival,
		ContactName:         o.ContactName,
		ContactPhone:        o.ContactPhone,
		Store:               o.Store,
		Cause:               o.Cause,
		ClientSignature:     o.ClientSignature,
		TechnicianSignature: o.TechnicianSignature,
		TimerStartedAt:      o.TimerStartedAt,
		TimerActive:         o.TimerActive(),
		MissingForComplete:  MissingCompletionFields(*o),
		CreatedBy:           o.CreatedBy,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

func activityFromModel(a models.Activity) ActivityDTO {
	return ActivityDTO{
		ID:          a.ID,
		UserID:      a.UserID,
		UserName:    a.UserName,
		Description: a.Description,
		CreatedAt:   a.CreatedAt,
	}
}

func noteFromModel(n models.Note) NoteDTO {
	return NoteDTO{
		ID:        n.ID,
		UserID:    n.UserID,
		UserName:  n.UserName,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
	}
}
