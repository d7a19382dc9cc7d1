package customers

import (
	"github.com/google/uuid"

	"github.com/friotec/fieldservice-backend/pkg/db/models"
)

type ClientDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Document *string   `json:"document,omitempty"`
	Phone    *string   `json:"phone,omitempty"`
}

type EstablishmentDTO struct {
	ID       uuid.UUID `json:"id"`
	ClientID uuid.UUID `json:"client_id"`
	Name     string    `json:"name"`
	Address  *string   `json:"address,omitempty"`
}

type EquipmentDTO struct {
	ID              uuid.UUID `json:"id"`
	EstablishmentID uuid.UUID `json:"establishment_id"`
	Name            string    `json:"name"`
	Brand           *string   `json:"brand,omitempty"`
	Model           *string   `json:"model,omitempty"`
	Serial          *string   `json:"serial,omitempty"`
}

func ClientsFromModels(rows []models.Client) []ClientDTO {
	out := make([]ClientDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, ClientDTO{ID: c.ID, Name: c.Name, Document: c.Document, Phone: c.Phone})
	}
	return out
}

func EstablishmentsFromModels(rows []models.Establishment) []EstablishmentDTO {
	out := make([]EstablishmentDTO, 0, len(rows))
	for _, e := range rows {
		out = append(out, EstablishmentDTO{ID: e.ID, ClientID: e.ClientID, Name: e.Name, Address: e.Address})
	}
	return out
}

func EquipmentFromModels(rows []models.Equipment) []EquipmentDTO {
	out := make([]EquipmentDTO, 0, len(rows))
	for _, e := range rows {
		out = append(out, EquipmentDTO{
			ID:              e.ID,
			EstablishmentID: e.EstablishmentID,
			Name:            e.Name,
			Brand:           e.Brand,
			Model:           e.Model,
			Serial:          e.Serial,
		})
	}
	return out
}
