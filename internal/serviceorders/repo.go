package serviceorders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/friotec/fieldservice-backend/pkg/db/models"
	"github.com/friotec/fieldservice-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists service orders and their audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindServiceOrder(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error)
	CreateServiceOrder(ctx context.Context, order *models.ServiceOrder) error
	UpdateServiceOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CountServiceOrders(ctx context.Context) (int64, error)
	HighestCode(ctx context.Context) (string, error)
	ListServiceOrders(ctx context.Context, filter RepoFilter) ([]models.ServiceOrder, int64, error)
	AppendActivity(ctx context.Context, activity *models.Activity) error
	AppendNote(ctx context.Context, note *models.Note) error
	ListActivities(ctx context.Context, orderID uuid.UUID) ([]models.Activity, error)
	ListNotes(ctx context.Context, orderID uuid.UUID) ([]models.Note, error)
}

// RepoFilter is the storage-level form of ListFilters.
type RepoFilter struct {
	Store        enums.Store
	Statuses     []enums.ServiceOrderStatus
	Type         *enums.ServiceOrderType
	ClientID     *uuid.UUID
	UpdatedSince *time.Time
	Query        string
	// Limit and Offset select a window of the sorted listing; zero Limit
	// returns every match.
	Limit  int
	Offset int
}

// listingOrder is the SQL rendition of SortForListing.
var listingOrder = func() string {
	var b strings.Builder
	b.WriteString("CASE WHEN timer_started_at IS NULL THEN 1 ELSE 0 END, CASE status")
	for _, status := range enums.ServiceOrderStatuses() {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", status, status.Weight())
	}
	b.WriteString(" ELSE 99 END, created_at DESC, id")
	return b.String()
}()

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (f RepoFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Store != "" && f.Store != enums.StoreAll {
		q = q.Where("store = ?", f.Store)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}
	if f.UpdatedSince != nil {
		q = q.Where("updated_at >= ?", *f.UpdatedSince)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		q = q.Where(`LOWER(code) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, like, like)
	}
	return q
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a service order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindServiceOrder(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error) {
	var order models.ServiceOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CreateServiceOrder(ctx context.Context, order *models.ServiceOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) UpdateServiceOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.ServiceOrder{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CountServiceOrders(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ServiceOrder{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// HighestCode returns the numerically largest code, or "" when no orders exist.
// Longer codes sort first so OS-100000 wins over OS-99999.
func (r *repository) HighestCode(ctx context.Context) (string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&models.ServiceOrder{}).
		Order("LENGTH(code) DESC").
		Order("code DESC").
		Limit(1).
		Pluck("code", &codes).Error
	if err != nil || len(codes) == 0 {
		return "", err
	}
	return codes[0], nil
}

// ListServiceOrders returns one page of matches in listing order and the
// total number of matches.
func (r *repository) ListServiceOrders(ctx context.Context, filter RepoFilter) ([]models.ServiceOrder, int64, error) {
	scoped := func() *gorm.DB {
		return filter.apply(r.db.WithContext(ctx).Model(&models.ServiceOrder{}))
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(filter.Offset) >= total {
		return []models.ServiceOrder{}, total, nil
	}

	q := scoped().Order(listingOrder)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	var orders []models.ServiceOrder
	if err := q.Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *repository) AppendActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *repository) AppendNote(ctx context.Context, note *models.Note) error {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *repository) ListActivities(ctx context.Context, orderID uuid.UUID) ([]models.Activity, error) {
	var rows []models.Activity
	err := r.db.WithContext(ctx).
		Where("service_order_id = ?", orderID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListNotes(ctx context.Context, orderID uuid.UUID) ([]models.Note, error) {
	var rows []models.Note
	err := r.db.WithContext(ctx).
		Where("service_order_id = ?", orderID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
