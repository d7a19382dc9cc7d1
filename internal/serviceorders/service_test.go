package serviceorders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/friotec/fieldservice-backend/internal/customers"
	"github.com/friotec/fieldservice-backend/pkg/db"
	"github.com/friotec/fieldservice-backend/pkg/db/models"
	"github.com/friotec/fieldservice-backend/pkg/enums"
	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
	"github.com/friotec/fieldservice-backend/pkg/logger"
	"github.com/friotec/fieldservice-backend/pkg/migrate"
	"github.com/friotec/fieldservice-backend/pkg/outbox"
	"github.com/friotec/fieldservice-backend/pkg/pagination"
)

type testEnv struct {
	conn    *gorm.DB
	repo    Repository
	svc     Service
	client  models.Client
	session SessionContext
	clock   *stepClock
}

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

type envOption func(*ServiceParams)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:serviceorders_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migrate.AutoMigrateModels(conn))

	logg := logger.New(logger.Options{ServiceName: "serviceorders-test", Output: io.Discard})
	clock := &stepClock{now: time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)}
	repo := NewRepository(conn)
	params := ServiceParams{
		Repo:      repo,
		Customers: customers.NewRepository(conn),
		TxRunner:  db.NewFromGorm(conn),
		Outbox:    outbox.NewService(outbox.NewRepository(conn), logg),
		Minter:    CountCodeMinter{},
		Logger:    logg,
		Now:       clock.Now,
	}
	for _, opt := range opts {
		opt(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)

	client := models.Client{Name: "Supermercado Boa Vista"}
	require.NoError(t, conn.Create(&client).Error)

	return &testEnv{
		conn:   conn,
		repo:   repo,
		svc:    svc,
		client: client,
		clock:  clock,
		session: SessionContext{
			UserID:      uuid.New(),
			DisplayName: "J. SILVA",
			Role:        enums.UserRoleBackOffice,
			Store:       enums.StoreMain,
		},
	}
}

func (e *testEnv) seedOrder(t *testing.T, code string, mutate func(*models.ServiceOrder)) *models.ServiceOrder {
	t.Helper()
	order := &models.ServiceOrder{
		ID:          uuid.New(),
		Code:        code,
		ClientID:    e.client.ID,
		Type:        enums.ServiceOrderTypeMaintenance,
		Status:      enums.ServiceOrderStatusNotStarted,
		Priority:    enums.ServiceOrderPriorityMedium,
		Description: "cold room not cooling",
		Store:       enums.StoreMain,
		CreatedBy:   e.session.UserID,
	}
	if mutate != nil {
		mutate(order)
	}
	require.NoError(t, e.conn.Create(order).Error)
	return order
}

func (e *testEnv) reload(t *testing.T, id uuid.UUID) *models.ServiceOrder {
	t.Helper()
	order, err := e.repo.FindServiceOrder(context.Background(), id)
	require.NoError(t, err)
	return order
}

func (e *testEnv) activities(t *testing.T, id uuid.UUID) []models.Activity {
	t.Helper()
	rows, err := e.repo.ListActivities(context.Background(), id)
	require.NoError(t, err)
	return rows
}

func (e *testEnv) notes(t *testing.T, id uuid.UUID) []models.Note {
	t.Helper()
	rows, err := e.repo.ListNotes(context.Background(), id)
	require.NoError(t, err)
	return rows
}

func (e *testEnv) outboxEvents(t *testing.T, id uuid.UUID) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, e.conn.Where("aggregate_id = ?", id).Order("created_at ASC").Find(&rows).Error)
	return rows
}

func TestChangeStatusToAwaitingPartsRecordsOneActivity(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(t, "OS-00010", nil)

	dto, err := env.svc.ChangeStatus(context.Background(), env.session, ChangeStatusInput{
		OrderID: order.ID,
		Status:  enums.ServiceOrderStatusAwaitingParts,
		Origin:  enums.StatusChangeOriginList,
	})
	require.NoError(t, err)
	require.Equal(t, enums.ServiceOrderStatusAwaitingParts, dto.Status)
	require.Equal(t, "AWAITING PARTS", dto.StatusLabel)

	require.Equal(t, enums.ServiceOrderStatusAwaitingParts, env.reload(t, order.ID).Status)
	acts := env.activities(t, order.ID)
	require.Len(t, acts, 1)
	require.Equal(t, "CHANGED ORDER STATUS TO AWAITING PARTS (LIST VIEW)", acts[0].Description)
	require.Equal(t, "J. SILVA", acts[0].UserName)
	require.Equal(t, env.session.UserID, acts[0].UserID)
	require.Empty(t, env.notes(t, order.ID))

	events := env.outboxEvents(t, order.ID)
	require.Len(t, events, 1)
	require.Equal(t, enums.EventServiceOrderStatusChanged, events[0].EventType)
}

func TestChangeStatusDefaultsOriginToDetail(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(t, "OS-00001", nil)

	_, err := env.svc.ChangeStatus(context.Background(), env.session, ChangeStatusInput{
		OrderID: order.ID,
		Status:  enums.ServiceOrderStatusStarted,
	})
	require.NoError(t, err)
	acts := env.activities(t, order.ID)
	require.Len(t, acts, 1)
	require.Equal(t, "CHANGED ORDER STATUS TO STARTED (DETAIL VIEW)", acts[0].Description)
}

func TestCompletionBlockedWhenFieldsMissing(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(t, "OS-00002", func(o *models.ServiceOrder) {
		o.Status = enums.ServiceOrderStatusStarted
		o.Cause = strPtr("condenser fan seized")
		o.ClientSignature = strPtr("   ")
	})

	_, err := env.svc.ChangeStatus(context.Background(), env.session, ChangeStatusInput{
		OrderID: order.ID,
		Status:  enums.ServiceOrderStatusCompleted,
	})
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCompletionBlocked))
	require.Equal(t, []string{FieldClientSignature, FieldTechnicianSignature}, MissingFieldsFrom(err))

	require.Equal(t, enums.ServiceOrderStatusStarted, env.reload(t, order.ID).Status)
	require.Empty(t, env.activities(t, order.ID))
	require.Empty(t, env.outboxEvents(t, order.ID))
}

func TestCompletionSucceedsWithAllFields(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(t, "OS-00003", func(o *models.ServiceOrder) {
		o.Status = enums.ServiceOrderStatusPartsReceived
		o.Cause = strPtr("worn compressor")
		o.ClientSignature = strPtr("data:image/png;base64,AAA")
		o.TechnicianSignature = strPtr("data:image/png;base64,BBB")
	})

	dto, err := env.svc.ChangeStatus(context.Background(), env.session, ChangeStatusInput{
		OrderID: order.ID,
		Status:  enums.ServiceOrderStatusCompleted,
	})
	require.NoError(t, err)
	require.Equal(t, enums.ServiceOrderStatusCompleted, dto.Status)
	require.Empty(t, dto.MissingForComplete)

	acts := env.activities(t, order.ID)
	require.Len(t, acts, 1)
	require.Equal(t, "COMPLETED THE SERVICE ORDER (DETAIL VIEW)", acts[0].Description)
	events := env.outboxEvents(t, order.ID)
	require.Len(t, events, 1)
	require.Equal(t, enums.EventServiceOrderCompleted, events[0].EventType)
}

func TestCancellationRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(t, "OS-00004", nil)

	for _, reason := range []string{"", "   \t"} {
		_, err := env.svc.ChangeStatus(context.Background(), env.session, ChangeStatusInput{
			OrderID: order.ID,
			Status:  enums.ServiceOrderStatusCancelled,
			Reason:  reason,
		})
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeReasonRequired))
	}
	require.Equal(t, enums.ServiceOrderStatusNotStarted, env.reload(t, order.ID).Status)
	require.Empty(t, env.activities(t, order.ID))
	require.Empty(t, env.notes(t, order.ID))
}

type recordingRepo struct {
	Repository
	calls        *[]string
	failActivity error
}

func (r recordingRepo) WithTx(tx *gorm.DB) Repository {
	return recordingRepo{Repository: r.Repository.WithTx(tx), calls: r.calls, failActivity: r.failActivity}
}

func (r recordingRepo) UpdateServiceOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	*r.calls = append(*r.calls, "update")
	return r.Repository.UpdateServiceOrder(ctx, id, updates)
}

func (r recordingRepo) AppendNote(ctx context.Context, note *models.Note) error {
	*r.calls = append(*r.calls, "note")
	return r.Repository.AppendNote(ctx, note)
}

func (r recordingRepo) AppendActivity(ctx context.Context, activity *models.Activity) error {
	*r.calls = append(*r.calls, "activity")
	if r.failActivity != nil {
		return r.failActivity
	}
	return r.Repository.AppendActivity(ctx, activity)
}

func withRecordingRepo(calls *[]string, failActivity error) envOption {
	return func(p *ServiceParams) {
		p.Repo = recordingRepo{Repository: p.Repo, calls: calls, failActivity: failActivity}
	}
}

func TestCancellationWritesStatusNoteActivityInOrder(t *testing.T) {
	var calls []string
	env := newTestEnv(t, withRecordingRepo(&calls, nil))
	order := env.seedOrder(t, "OS-00005", nil)

	_, err := env.svc.ChangeStatus(context.Background(), env.session, ChangeStatusInput{
		OrderID: order.ID,
		Status:  enums.ServiceOrderStatusCancelled,
		Reason:  "CLIENT WITHDREW",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"update", "note", "activity"}, calls)

	require.Equal(t, enums.ServiceOrderStatusCancelled, env.reload(t, order.ID).Status)
	notes := env.notes(t, order.ID)
	require.Len(t, notes, 1)
	require.Contains(t, notes[0].Content, "J. SILVA")
	require.Contains(t, notes[0].Content, "CLIENT WITHDREW")

	acts := env.activities(t, order.ID)
	require.Len(t, acts, 1)
	require.Equal(t, "CANCELLED THE SERVICE ORDER (DETAIL VIEW). REASON: CLIENT WITHDREW", acts[0].Description)

	events := env.outboxEvents(t, order.ID)
	require.Len(t, events, 1)
	require.Equal(t, enums.EventServiceOrderCancelled, events[0].EventType)
}

func TestChangeStatusRollsBackWhenActivityFails(t *testing.T) {
	var calls []string
	env := newTestEnv(t, withRecordingRepo(&calls, errors.New("disk full")))
	order := env.seedOrder(t, "OS-00006", nil)

	_, err := env.svc.ChangeStatus(context.Background(), env.session, ChangeStatusInput{
		OrderID: order.ID,
		Status:  enums.ServiceOrderStatusCancelled,
		Reason:  "duplicate request",
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	require.Equal(t, enums.ServiceOrderStatusNotStarted, env.reload(t, order.ID).Status)
	require.Empty(t, env.notes(t, order.ID))
	require.Empty(t, env.outboxEvents(t, order.ID))
}

func TestChangeStatusToSameStatusIsNoop(t *testing.T) {
	var calls []string
	env := newTestEnv(t, withRecordingRepo(&calls, nil))
	order := env.seedOrder(t, "OS-00007", func(o *models.ServiceOrder) {
		o.Status = enums.ServiceOrderStatusQuoteSent
	})

	dto, err := env.svc.ChangeStatus(context.Background(), env.session, ChangeStatusInput{
		OrderID: order.ID,
		Status:  enums.ServiceOrderStatusQuoteSent,
	})
	require.NoError(t, err)
	require.Equal(t, enums.ServiceOrderStatusQuoteSent, dto.Status)
	require.Empty(t, calls)
	require.Empty(t, env.activities(t, order.ID))
}

func TestChangeStatusAllowsReopeningTerminalOrders(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(t, "OS-00008", func(o *models.ServiceOrder) {
		o.Status = enums.ServiceOrderStatusCancelled
	})

	dto, err := env.svc.ChangeStatus(context.Background(), env.session, ChangeStatusInput{
		OrderID: order.ID,
		Status:  enums.ServiceOrderStatusStarted,
	})
	require.NoError(t, err)
	require.Equal(t, enums.ServiceOrderStatusStarted, dto.Status)
}

func TestChangeStatusHidesOtherStoreFromTechnicians(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(t, "OS-00009", nil)
	tech := env.session
	tech.Role = enums.UserRoleTechnician
	tech.Store = enums.StoreBranch

	_, err := env.svc.ChangeStatus(context.Background(), tech, ChangeStatusInput{
		OrderID: order.ID,
		Status:  enums.ServiceOrderStatusStarted,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = env.svc.Get(context.Background(), tech, order.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestChangeStatusRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(t, "OS-00011", nil)
	ctx := context.Background()

	_, err := env.svc.ChangeStatus(ctx, SessionContext{}, ChangeStatusInput{OrderID: order.ID, Status: enums.ServiceOrderStatusStarted})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = env.svc.ChangeStatus(ctx, env.session, ChangeStatusInput{OrderID: order.ID, Status: "archived"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = env.svc.ChangeStatus(ctx, env.session, ChangeStatusInput{OrderID: uuid.New(), Status: enums.ServiceOrderStatusStarted})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateMintsNextSequentialCode(t *testing.T) {
	env := newTestEnv(t)
	for i := 1; i <= 41; i++ {
		env.seedOrder(t, FormatCode(int64(i)), nil)
	}

	dto, err := env.svc.Create(context.Background(), env.session, CreateInput{
		ClientID:    env.client.ID,
		Type:        enums.ServiceOrderTypeBreakdown,
		Description: "  freezer alarm  ",
	})
	require.NoError(t, err)
	require.Equal(t, "OS-00042", dto.Code)
	require.Equal(t, enums.ServiceOrderStatusNotStarted, dto.Status)
	require.Equal(t, enums.ServiceOrderPriorityMedium, dto.Priority)
	require.Equal(t, enums.StoreMain, dto.Store)
	require.Equal(t, "freezer alarm", dto.Description)

	acts := env.activities(t, dto.ID)
	require.Len(t, acts, 1)
	require.Equal(t, "CREATED SERVICE ORDER OS-00042", acts[0].Description)
	events := env.outboxEvents(t, dto.ID)
	require.Len(t, events, 1)
	require.Equal(t, enums.EventServiceOrderCreated, events[0].EventType)
}

type fixedMinter struct{ code string }

func (m fixedMinter) Mint(context.Context, orderCounter) (string, error) { return m.code, nil }
func (m fixedMinter) Strategy() string                                   { return "fixed" }

func TestCreateSurfacesCodeCollisionAsConflict(t *testing.T) {
	env := newTestEnv(t, func(p *ServiceParams) { p.Minter = fixedMinter{code: "OS-00001"} })
	env.seedOrder(t, "OS-00001", nil)

	_, err := env.svc.Create(context.Background(), env.session, CreateInput{
		ClientID:    env.client.ID,
		Type:        enums.ServiceOrderTypeInspection,
		Description: "annual inspection",
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestCreateValidatesReferencesAndStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, env.session, CreateInput{
		ClientID:    uuid.New(),
		Type:        enums.ServiceOrderTypeBreakdown,
		Description: "unknown client",
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	tech := env.session
	tech.Role = enums.UserRoleTechnician
	_, err = env.svc.Create(ctx, tech, CreateInput{
		ClientID:    env.client.ID,
		Type:        enums.ServiceOrderTypeBreakdown,
		Description: "wrong branch",
		Store:       enums.StoreBranch,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = env.svc.Create(ctx, env.session, CreateInput{
		ClientID:    env.client.ID,
		Type:        enums.ServiceOrderTypeBreakdown,
		Description: "aggregate store",
		Store:       enums.StoreAll,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = env.svc.Create(ctx, env.session, CreateInput{
		ClientID: env.client.ID,
		Type:     enums.ServiceOrderTypeBreakdown,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListAppliesSortFiltersAndPaging(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	timer := base
	env.seedOrder(t, "OS-00001", func(o *models.ServiceOrder) {
		o.Status = enums.ServiceOrderStatusCancelled
		o.CreatedAt = base.Add(3 * time.Hour)
	})
	env.seedOrder(t, "OS-00002", func(o *models.ServiceOrder) {
		o.CreatedAt = base
	})
	env.seedOrder(t, "OS-00003", func(o *models.ServiceOrder) {
		o.Status = enums.ServiceOrderStatusStarted
		o.TimerStartedAt = &timer
		o.CreatedAt = base.Add(time.Hour)
	})
	env.seedOrder(t, "OS-00004", func(o *models.ServiceOrder) {
		o.CreatedAt = base.Add(2 * time.Hour)
	})
	env.seedOrder(t, "OS-00005", func(o *models.ServiceOrder) {
		o.Store = enums.StoreBranch
		o.CreatedAt = base.Add(4 * time.Hour)
	})
	ctx := context.Background()

	res, err := env.svc.List(ctx, env.session, ListFilters{})
	require.NoError(t, err)
	require.Equal(t, []string{"OS-00003", "OS-00004", "OS-00002", "OS-00001"}, codes(res.Items))
	require.Equal(t, 4, res.Page.Total)
	require.False(t, res.Page.HasMore)

	res, err = env.svc.List(ctx, env.session, ListFilters{Store: "all", Page: pagination.Params{Limit: 2, Offset: 1}})
	require.NoError(t, err)
	require.Equal(t, []string{"OS-00005", "OS-00004"}, codes(res.Items))
	require.Equal(t, 5, res.Page.Total)
	require.True(t, res.Page.HasMore)

	res, err = env.svc.List(ctx, env.session, ListFilters{
		Statuses: []enums.ServiceOrderStatus{enums.ServiceOrderStatusNotStarted},
		Query:    "os-0000",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"OS-00004", "OS-00002"}, codes(res.Items))

	tech := env.session
	tech.Role = enums.UserRoleTechnician
	_, err = env.svc.List(ctx, tech, ListFilters{Store: "all"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func codes(items []ServiceOrderDTO) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Code)
	}
	return out
}

func TestBulkChangeStatusReportsPerOrderResults(t *testing.T) {
	env := newTestEnv(t)
	ready := env.seedOrder(t, "OS-00001", func(o *models.ServiceOrder) {
		o.Cause = strPtr("blocked drain")
		o.ClientSignature = strPtr("sig-a")
		o.TechnicianSignature = strPtr("sig-b")
	})
	incomplete := env.seedOrder(t, "OS-00002", nil)
	missing := uuid.New()

	res, err := env.svc.BulkChangeStatus(context.Background(), env.session, BulkChangeStatusInput{
		OrderIDs: []uuid.UUID{ready.ID, incomplete.ID, ready.ID, missing},
		Status:   enums.ServiceOrderStatusCompleted,
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 3)
	require.Equal(t, 1, res.Succeeded)
	require.Equal(t, 2, res.Failed)

	require.True(t, res.Results[0].OK)
	require.Equal(t, string(pkgerrors.CodeCompletionBlocked), res.Results[1].Code)
	require.Equal(t, CompletionBlockedDetails{MissingFields: []string{FieldRootCause, FieldClientSignature, FieldTechnicianSignature}}, res.Results[1].Details)
	require.Equal(t, string(pkgerrors.CodeNotFound), res.Results[2].Code)

	acts := env.activities(t, ready.ID)
	require.Len(t, acts, 1)
	require.Equal(t, "COMPLETED THE SERVICE ORDER (BULK ACTION)", acts[0].Description)
}

func TestBulkCancellationChecksReasonUpfront(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(t, "OS-00001", nil)

	_, err := env.svc.BulkChangeStatus(context.Background(), env.session, BulkChangeStatusInput{
		OrderIDs: []uuid.UUID{order.ID},
		Status:   enums.ServiceOrderStatusCancelled,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeReasonRequired))
	require.Empty(t, env.activities(t, order.ID))
}

func TestUpdateFieldsRecordsChangedFieldsOnly(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(t, "OS-00001", func(o *models.ServiceOrder) {
		o.ContactName = strPtr("Marta")
	})
	ctx := context.Background()

	dto, err := env.svc.UpdateFields(ctx, env.session, order.ID, UpdateFieldsInput{
		Description: strPtr("cold room not cooling"),
		Cause:       strPtr(" iced evaporator "),
		ContactName: strPtr(""),
		Warranty:    boolPtr(true),
	})
	require.NoError(t, err)
	require.Equal(t, "iced evaporator", *dto.Cause)
	require.Nil(t, dto.ContactName)
	require.True(t, dto.Warranty)
	require.Equal(t, []string{FieldClientSignature, FieldTechnicianSignature}, dto.MissingForComplete)

	acts := env.activities(t, order.ID)
	require.Len(t, acts, 1)
	require.Equal(t, "UPDATED SERVICE ORDER FIELDS: WARRANTY, CONTACT NAME, ROOT CAUSE", acts[0].Description)

	_, err = env.svc.UpdateFields(ctx, env.session, order.ID, UpdateFieldsInput{Cause: strPtr("iced evaporator")})
	require.NoError(t, err)
	require.Len(t, env.activities(t, order.ID), 1)

	_, err = env.svc.UpdateFields(ctx, env.session, order.ID, UpdateFieldsInput{Description: strPtr("  ")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateFieldsKeepsCompletedOrderComplete(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(t, "OS-00011", func(o *models.ServiceOrder) {
		o.Status = enums.ServiceOrderStatusPartsReceived
		o.Cause = strPtr("worn compressor")
		o.ClientSignature = strPtr("sig-client")
		o.TechnicianSignature = strPtr("sig-tech")
	})
	ctx := context.Background()

	_, err := env.svc.ChangeStatus(ctx, env.session, ChangeStatusInput{
		OrderID: order.ID,
		Status:  enums.ServiceOrderStatusCompleted,
	})
	require.NoError(t, err)

	_, err = env.svc.UpdateFields(ctx, env.session, order.ID, UpdateFieldsInput{
		Cause:               strPtr(""),
		ClientSignature:     strPtr(" "),
		TechnicianSignature: strPtr(""),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCompletionBlocked))
	require.Equal(t, []string{FieldRootCause, FieldClientSignature, FieldTechnicianSignature}, MissingFieldsFrom(err))

	_, err = env.svc.UpdateFields(ctx, env.session, order.ID, UpdateFieldsInput{TechnicianSignature: strPtr("")})
	require.Equal(t, []string{FieldTechnicianSignature}, MissingFieldsFrom(err))

	stored := env.reload(t, order.ID)
	require.Equal(t, enums.ServiceOrderStatusCompleted, stored.Status)
	require.Empty(t, MissingCompletionFields(*stored))
	require.Len(t, env.activities(t, order.ID), 1)

	dto, err := env.svc.UpdateFields(ctx, env.session, order.ID, UpdateFieldsInput{
		Cause:    strPtr("worn compressor bearing"),
		Warranty: boolPtr(true),
	})
	require.NoError(t, err)
	require.Equal(t, "worn compressor bearing", *dto.Cause)
	require.Len(t, env.activities(t, order.ID), 2)
}

func boolPtr(v bool) *bool { return &v }

func TestEveryOpenStatusPairTransitionsWithOneActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	var open []enums.ServiceOrderStatus
	for _, status := range enums.ServiceOrderStatuses() {
		if !status.IsTerminal() {
			open = append(open, status)
		}
	}
	require.Len(t, open, 6)

	n := 0
	for _, from := range open {
		for _, to := range open {
			if from == to {
				continue
			}
			n++
			order := env.seedOrder(t, FormatCode(int64(n)), func(o *models.ServiceOrder) {
				o.Status = from
			})
			dto, err := env.svc.ChangeStatus(ctx, env.session, ChangeStatusInput{OrderID: order.ID, Status: to})
			require.NoError(t, err, "%s -> %s", from, to)
			require.Equal(t, to, dto.Status)
			require.Equal(t, to, env.reload(t, order.ID).Status)

			acts := env.activities(t, order.ID)
			require.Len(t, acts, 1, "%s -> %s", from, to)
			require.Equal(t, fmt.Sprintf("CHANGED ORDER STATUS TO %s (DETAIL VIEW)", to.Label()), acts[0].Description)
			require.Empty(t, env.notes(t, order.ID))
		}
	}
	require.Equal(t, 30, n)
}

func TestCompletingAwaitingPartsOrderWithoutCause(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(t, "OS-00010", func(o *models.ServiceOrder) {
		o.Status = enums.ServiceOrderStatusAwaitingParts
		o.Cause = strPtr("")
	})

	_, err := env.svc.ChangeStatus(context.Background(), env.session, ChangeStatusInput{
		OrderID: order.ID,
		Status:  enums.ServiceOrderStatusCompleted,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCompletionBlocked))
	require.Equal(t, []string{"root cause", "client signature", "technician signature"}, MissingFieldsFrom(err))

	require.Equal(t, enums.ServiceOrderStatusAwaitingParts, env.reload(t, order.ID).Status)
	require.Empty(t, env.activities(t, order.ID))
	require.Empty(t, env.outboxEvents(t, order.ID))
}

type brokenTx struct{ err error }

func (b brokenTx) WithTx(context.Context, func(tx *gorm.DB) error) error { return b.err }

func TestTransactionFailuresSurfaceAsDependencyErrors(t *testing.T) {
	commitErr := errors.New("commit: connection reset by peer")
	env := newTestEnv(t, func(p *ServiceParams) { p.TxRunner = brokenTx{err: commitErr} })
	order := env.seedOrder(t, "OS-00001", nil)
	ctx := context.Background()

	calls := map[string]func() error{
		"create": func() error {
			_, err := env.svc.Create(ctx, env.session, CreateInput{
				ClientID:    env.client.ID,
				Type:        enums.ServiceOrderTypeBreakdown,
				Description: "freezer alarm",
			})
			return err
		},
		"update": func() error {
			_, err := env.svc.UpdateFields(ctx, env.session, order.ID, UpdateFieldsInput{Warranty: boolPtr(true)})
			return err
		},
		"status": func() error {
			_, err := env.svc.ChangeStatus(ctx, env.session, ChangeStatusInput{OrderID: order.ID, Status: enums.ServiceOrderStatusStarted})
			return err
		},
		"timer": func() error {
			_, err := env.svc.StartTimer(ctx, env.session, order.ID)
			return err
		},
		"note": func() error {
			_, err := env.svc.AddNote(ctx, env.session, order.ID, "called the client")
			return err
		},
	}
	for name, call := range calls {
		err := call()
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency), "%s: %v", name, err)
		require.ErrorIs(t, err, commitErr, name)
	}
}

func TestTimerStartAndStop(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(t, "OS-00001", nil)
	ctx := context.Background()

	dto, err := env.svc.StartTimer(ctx, env.session, order.ID)
	require.NoError(t, err)
	require.True(t, dto.TimerActive)

	_, err = env.svc.StartTimer(ctx, env.session, order.ID)
	require.NoError(t, err)

	dto, err = env.svc.StopTimer(ctx, env.session, order.ID)
	require.NoError(t, err)
	require.False(t, dto.TimerActive)
	require.Nil(t, env.reload(t, order.ID).TimerStartedAt)

	acts := env.activities(t, order.ID)
	require.Len(t, acts, 2)
	require.Equal(t, "STOPPED THE SERVICE TIMER", acts[0].Description)
	require.Equal(t, "STARTED THE SERVICE TIMER", acts[1].Description)
}

func TestAddNoteAndListNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(t, "OS-00001", nil)
	ctx := context.Background()

	_, err := env.svc.AddNote(ctx, env.session, order.ID, "  ")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	first, err := env.svc.AddNote(ctx, env.session, order.ID, "client asked for morning visit")
	require.NoError(t, err)
	require.Equal(t, "J. SILVA", first.UserName)
	_, err = env.svc.AddNote(ctx, env.session, order.ID, "parts ordered")
	require.NoError(t, err)

	notes, err := env.svc.ListNotes(ctx, env.session, order.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, "parts ordered", notes[0].Content)

	acts, err := env.svc.ListActivities(ctx, env.session, order.ID)
	require.NoError(t, err)
	require.Len(t, acts, 2)
	for _, act := range acts {
		require.True(t, strings.HasPrefix(act.Description, "ADDED A NOTE"))
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
