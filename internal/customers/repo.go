package customers

import (
	"context"
	"strings"

	"github.com/friotec/fieldservice-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultListLimit = 50

// Repository is the read-only lookup surface over clients and their sites.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	FindEstablishment(ctx context.Context, id uuid.UUID) (*models.Establishment, error)
	FindEquipment(ctx context.Context, id uuid.UUID) (*models.Equipment, error)
	ListClients(ctx context.Context, query string, limit int) ([]models.Client, error)
	ListEstablishments(ctx context.Context, clientID uuid.UUID) ([]models.Establishment, error)
	ListEquipment(ctx context.Context, establishmentID uuid.UUID) ([]models.Equipment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).First(&client, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *repository) FindEstablishment(ctx context.Context, id uuid.UUID) (*models.Establishment, error) {
	var est models.Establishment
	if err := r.db.WithContext(ctx).First(&est, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &est, nil
}

func (r *repository) FindEquipment(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	var eq models.Equipment
	if err := r.db.WithContext(ctx).First(&eq, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &eq, nil
}

// ListClients returns clients ordered by name, optionally filtered by a
// case-insensitive name or document fragment.
func (r *repository) ListClients(ctx context.Context, query string, limit int) ([]models.Client, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	q := r.db.WithContext(ctx).Model(&models.Client{})
	if term := strings.ToLower(strings.TrimSpace(query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(document, '')) LIKE ?", like, like)
	}
	var rows []models.Client
	err := q.Order("name ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *repository) ListEstablishments(ctx context.Context, clientID uuid.UUID) ([]models.Establishment, error) {
	var rows []models.Establishment
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListEquipment(ctx context.Context, establishmentID uuid.UUID) ([]models.Equipment, error) {
	var rows []models.Equipment
	err := r.db.WithContext(ctx).
		Where("establishment_id = ?", establishmentID).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}
