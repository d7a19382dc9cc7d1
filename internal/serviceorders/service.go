package serviceorders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/friotec/fieldservice-backend/internal/customers"
	dbpkg "github.com/friotec/fieldservice-backend/pkg/db"
	"github.com/friotec/fieldservice-backend/pkg/db/models"
	"github.com/friotec/fieldservice-backend/pkg/enums"
	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
	"github.com/friotec/fieldservice-backend/pkg/logger"
	"github.com/friotec/fieldservice-backend/pkg/outbox"
	"github.com/friotec/fieldservice-backend/pkg/outbox/payloads"
	"github.com/friotec/fieldservice-backend/pkg/pagination"
	"github.com/friotec/fieldservice-backend/pkg/visibility"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type workflowMetrics interface {
	IncTransition(from, to, origin string)
	IncBlocked(to, reason string)
	IncCodeMinted(strategy string)
}

// Service drives the service order lifecycle.
type Service interface {
	Create(ctx context.Context, session SessionContext, input CreateInput) (*ServiceOrderDTO, error)
	Get(ctx context.Context, session SessionContext, id uuid.UUID) (*ServiceOrderDTO, error)
	List(ctx context.Context, session SessionContext, filters ListFilters) (*ListResult, error)
	UpdateFields(ctx context.Context, session SessionContext, id uuid.UUID, input UpdateFieldsInput) (*ServiceOrderDTO, error)
	ChangeStatus(ctx context.Context, session SessionContext, input ChangeStatusInput) (*ServiceOrderDTO, error)
	BulkChangeStatus(ctx context.Context, session SessionContext, input BulkChangeStatusInput) (*BulkChangeStatusResult, error)
	StartTimer(ctx context.Context, session SessionContext, id uuid.UUID) (*ServiceOrderDTO, error)
	StopTimer(ctx context.Context, session SessionContext, id uuid.UUID) (*ServiceOrderDTO, error)
	AddNote(ctx context.Context, session SessionContext, id uuid.UUID, content string) (*NoteDTO, error)
	ListActivities(ctx context.Context, session SessionContext, id uuid.UUID) ([]ActivityDTO, error)
	ListNotes(ctx context.Context, session SessionContext, id uuid.UUID) ([]NoteDTO, error)
}

// ServiceParams wires the service order workflow.
type ServiceParams struct {
	Repo         Repository
	Customers    customers.Repository
	TxRunner     txRunner
	Outbox       outboxPublisher
	Minter       CodeMinter
	Metrics      workflowMetrics
	Logger       *logger.Logger
	ListMaxLimit int
	Now          func() time.Time
}

type service struct {
	repo         Repository
	customers    customers.Repository
	tx           txRunner
	outbox       outboxPublisher
	minter       CodeMinter
	metrics      workflowMetrics
	logg         *logger.Logger
	listMaxLimit int
	now          func() time.Time
}

// NewService builds the workflow service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("service orders repository required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Minter == nil {
		return nil, fmt.Errorf("code minter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:         params.Repo,
		customers:    params.Customers,
		tx:           params.TxRunner,
		outbox:       params.Outbox,
		minter:       params.Minter,
		metrics:      metrics,
		logg:         params.Logger,
		listMaxLimit: params.ListMaxLimit,
		now:          now,
	}, nil
}

func (s *service) Create(ctx context.Context, session SessionContext, input CreateInput) (*ServiceOrderDTO, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client_id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid service order type")
	}
	priority := input.Priority
	if priority == "" {
		priority = enums.ServiceOrderPriorityMedium
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid service order priority")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	store, err := visibility.ResolveWriteStore(session.viewer(), input.Store)
	if err != nil {
		return nil, err
	}

	var created *models.ServiceOrder
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		refs := customers.References{
			ClientID:        input.ClientID,
			EstablishmentID: input.EstablishmentID,
			EquipmentID:     input.EquipmentID,
		}
		if err := customers.ValidateReferences(ctx, s.customers.WithTx(tx), refs); err != nil {
			return err
		}

		code, err := s.minter.Mint(ctx, repo)
		if err != nil {
			return persistenceError(err, "mint service order code")
		}

		now := s.now().UTC()
		order := &models.ServiceOrder{
			ID:                uuid.New(),
			Code:              code,
			ClientID:          input.ClientID,
			EstablishmentID:   input.EstablishmentID,
			EquipmentID:       input.EquipmentID,
			Type:              input.Type,
			Status:            enums.ServiceOrderStatusNotStarted,
			Priority:          priority,
			Description:       description,
			ScheduledAt:       input.ScheduledAt,
			Warranty:          input.Warranty,
			CallBeforeArrival: input.CallBeforeArrival,
			ContactName:       normalizeOptional(input.ContactName),
			ContactPhone:      normalizeOptional(input.ContactPhone),
			Store:             store,
			CreatedBy:         session.UserID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := repo.CreateServiceOrder(ctx, order); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "service order code already taken").
					WithDetails(map[string]string{"code": code})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create service order")
		}

		desc := ActivityDescription(ActivityCreated, ActivityInput{Code: code})
		if err := s.appendActivity(ctx, repo, session, order.ID, desc, now); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventServiceOrderCreated,
			AggregateType: enums.AggregateServiceOrder,
			AggregateID:   order.ID,
			Actor:         buildActor(session),
			OccurredAt:    now,
			Data: payloads.ServiceOrderCreatedEvent{
				ServiceOrderID: order.ID,
				Code:           order.Code,
				ClientID:       order.ClientID,
				Type:           order.Type,
				Priority:       order.Priority,
				Status:         order.Status,
				Store:          order.Store,
				ScheduledAt:    order.ScheduledAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return persistenceError(err, "emit service order created")
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, persistenceError(err, "create service order")
	}

	s.metrics.IncCodeMinted(s.minter.Strategy())
	logCtx := s.logg.WithFields(s.logg.WithServiceOrderID(ctx, created.ID.String()), map[string]any{
		"code":  created.Code,
		"store": string(created.Store),
	})
	s.logg.Info(logCtx, "service order created")
	return FromModel(created), nil
}

func (s *service) Get(ctx context.Context, session SessionContext, id uuid.UUID) (*ServiceOrderDTO, error) {
	order, err := s.loadVisible(ctx, s.repo, session, id)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) List(ctx context.Context, session SessionContext, filters ListFilters) (*ListResult, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	store, err := visibility.ResolveListStore(session.viewer(), filters.Store)
	if err != nil {
		return nil, err
	}
	for _, status := range filters.Statuses {
		if !status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", status))
		}
	}
	if filters.Type != nil && !filters.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid service order type")
	}

	params := filters.Page.Normalize(s.maxLimit())
	orders, total, err := s.repo.ListServiceOrders(ctx, RepoFilter{
		Store:        store,
		Statuses:     filters.Statuses,
		Type:         filters.Type,
		ClientID:     filters.ClientID,
		UpdatedSince: filters.UpdatedSince,
		Query:        filters.Query,
		Limit:        params.Limit,
		Offset:       params.Offset,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list service orders")
	}

	items := make([]ServiceOrderDTO, 0, len(orders))
	for i := range orders {
		items = append(items, *FromModel(&orders[i]))
	}
	return &ListResult{
		Items: items,
		Page:  params.PageFor(int(total)),
	}, nil
}

func (s *service) UpdateFields(ctx context.Context, session SessionContext, id uuid.UUID, input UpdateFieldsInput) (*ServiceOrderDTO, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description cannot be empty")
	}
	if input.Priority != nil && !input.Priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid service order priority")
	}

	var updated *models.ServiceOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadVisible(ctx, repo, session, id)
		if err != nil {
			return err
		}

		updates, labels := diffFields(order, input)
		if len(updates) == 0 {
			updated = order
			return nil
		}
		if order.Status == enums.ServiceOrderStatusCompleted {
			if missing := MissingCompletionFields(withPendingUpdates(*order, updates)); len(missing) > 0 {
				return completionBlocked(missing)
			}
		}
		now := s.now().UTC()
		updates["updated_at"] = now
		if err := repo.UpdateServiceOrder(ctx, order.ID, updates); err != nil {
			return lookupError(err, "update service order fields")
		}
		desc := ActivityDescription(ActivityFieldsUpdated, ActivityInput{Fields: labels})
		if err := s.appendActivity(ctx, repo, session, order.ID, desc, now); err != nil {
			return err
		}
		updated, err = repo.FindServiceOrder(ctx, order.ID)
		return lookupError(err, "reload service order")
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeCompletionBlocked) {
			s.metrics.IncBlocked(enums.ServiceOrderStatusCompleted.String(), "completion_fields")
		}
		return nil, persistenceError(err, "update service order fields")
	}
	return FromModel(updated), nil
}

func (s *service) ChangeStatus(ctx context.Context, session SessionContext, input ChangeStatusInput) (*ServiceOrderDTO, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid service order status")
	}
	origin := input.Origin
	if origin == "" {
		origin = enums.StatusChangeOriginDetail
	}
	if !origin.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status change origin")
	}
	reason := strings.TrimSpace(input.Reason)
	if input.Status == enums.ServiceOrderStatusCancelled && reason == "" {
		s.metrics.IncBlocked(input.Status.String(), "missing_reason")
		return nil, reasonRequired()
	}

	var (
		result  *models.ServiceOrder
		from    enums.ServiceOrderStatus
		changed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadVisible(ctx, repo, session, input.OrderID)
		if err != nil {
			return err
		}
		from = order.Status
		if order.Status == input.Status {
			result = order
			return nil
		}
		if !CanTransition(order.Status, input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]string{"from": order.Status.String(), "to": input.Status.String()})
		}
		if input.Status == enums.ServiceOrderStatusCompleted {
			if missing := MissingCompletionFields(*order); len(missing) > 0 {
				return completionBlocked(missing)
			}
		}

		now := s.now().UTC()
		updates := map[string]any{
			"status":     input.Status,
			"updated_at": now,
		}
		if err := repo.UpdateServiceOrder(ctx, order.ID, updates); err != nil {
			return lookupError(err, "update service order status")
		}
		order.Status = input.Status
		order.UpdatedAt = now

		if input.Status == enums.ServiceOrderStatusCancelled {
			note := &models.Note{
				ServiceOrderID: order.ID,
				UserID:         session.UserID,
				UserName:       session.actorName(),
				Content:        CancellationNote(session.actorName(), reason),
				CreatedAt:      now,
			}
			if err := repo.AppendNote(ctx, note); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append cancellation note")
			}
		}

		desc := ActivityDescription(activityForTransition(input.Status), ActivityInput{
			Status: input.Status,
			Origin: origin,
			Reason: reason,
		})
		if err := s.appendActivity(ctx, repo, session, order.ID, desc, now); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, transitionEvent(session, order, from, origin, reason, now)); err != nil {
			return persistenceError(err, "emit status change")
		}
		result = order
		changed = true
		return nil
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeCompletionBlocked) {
			s.metrics.IncBlocked(input.Status.String(), "completion_fields")
		}
		return nil, persistenceError(err, "change service order status")
	}

	if changed {
		s.metrics.IncTransition(from.String(), input.Status.String(), origin.String())
		logCtx := s.logg.WithFields(s.logg.WithServiceOrderID(ctx, result.ID.String()), map[string]any{
			"from":   from.String(),
			"to":     input.Status.String(),
			"origin": origin.String(),
		})
		s.logg.Info(logCtx, "service order status changed")
	}
	return FromModel(result), nil
}

func (s *service) BulkChangeStatus(ctx context.Context, session SessionContext, input BulkChangeStatusInput) (*BulkChangeStatusResult, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	ids := dedupeIDs(input.OrderIDs)
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_ids required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid service order status")
	}
	if input.Status == enums.ServiceOrderStatusCancelled && strings.TrimSpace(input.Reason) == "" {
		s.metrics.IncBlocked(input.Status.String(), "missing_reason")
		return nil, reasonRequired()
	}

	out := &BulkChangeStatusResult{Results: make([]BulkItemResult, 0, len(ids))}
	var errs error
	for _, id := range ids {
		order, err := s.ChangeStatus(ctx, session, ChangeStatusInput{
			OrderID: id,
			Status:  input.Status,
			Reason:  input.Reason,
			Origin:  enums.StatusChangeOriginBulk,
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", id, err))
			typed := pkgerrors.As(err)
			meta := pkgerrors.MetadataFor(typed.Code())
			item := BulkItemResult{OrderID: id, Code: string(typed.Code()), Message: meta.PublicMessage}
			if meta.ExposeMessage && typed.Message() != "" {
				item.Message = typed.Message()
			}
			if meta.DetailsAllowed {
				item.Details = typed.Details()
			}
			out.Results = append(out.Results, item)
			out.Failed++
			continue
		}
		out.Results = append(out.Results, BulkItemResult{OrderID: id, OK: true, Order: order})
		out.Succeeded++
	}

	if errs != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"status":    input.Status.String(),
			"failed":    out.Failed,
			"succeeded": out.Succeeded,
		})
		s.logg.Warn(logCtx, fmt.Sprintf("bulk status change partially failed: %v", errs))
	}
	return out, nil
}

func (s *service) StartTimer(ctx context.Context, session SessionContext, id uuid.UUID) (*ServiceOrderDTO, error) {
	return s.toggleTimer(ctx, session, id, true)
}

func (s *service) StopTimer(ctx context.Context, session SessionContext, id uuid.UUID) (*ServiceOrderDTO, error) {
	return s.toggleTimer(ctx, session, id, false)
}

func (s *service) toggleTimer(ctx context.Context, session SessionContext, id uuid.UUID, start bool) (*ServiceOrderDTO, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	var result *models.ServiceOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadVisible(ctx, repo, session, id)
		if err != nil {
			return err
		}
		if order.TimerActive() == start {
			result = order
			return nil
		}

		now := s.now().UTC()
		kind := ActivityTimerStopped
		var startedAt *time.Time
		updates := map[string]any{
			"timer_started_at": nil,
			"updated_at":       now,
		}
		if start {
			kind = ActivityTimerStarted
			startedAt = &now
			updates["timer_started_at"] = now
		}
		if err := repo.UpdateServiceOrder(ctx, order.ID, updates); err != nil {
			return lookupError(err, "update service order timer")
		}
		if err := s.appendActivity(ctx, repo, session, order.ID, ActivityDescription(kind, ActivityInput{}), now); err != nil {
			return err
		}
		order.TimerStartedAt = startedAt
		order.UpdatedAt = now
		result = order
		return nil
	})
	if err != nil {
		return nil, persistenceError(err, "toggle service order timer")
	}
	return FromModel(result), nil
}

func (s *service) AddNote(ctx context.Context, session SessionContext, id uuid.UUID, content string) (*NoteDTO, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note content is required")
	}

	var note *models.Note
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadVisible(ctx, repo, session, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		note = &models.Note{
			ServiceOrderID: order.ID,
			UserID:         session.UserID,
			UserName:       session.actorName(),
			Content:        content,
			CreatedAt:      now,
		}
		if err := repo.AppendNote(ctx, note); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append note")
		}
		return s.appendActivity(ctx, repo, session, order.ID, ActivityDescription(ActivityNoteAdded, ActivityInput{}), now)
	})
	if err != nil {
		return nil, persistenceError(err, "add note")
	}
	dto := noteFromModel(*note)
	return &dto, nil
}

func (s *service) ListActivities(ctx context.Context, session SessionContext, id uuid.UUID) ([]ActivityDTO, error) {
	order, err := s.loadVisible(ctx, s.repo, session, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListActivities(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activities")
	}
	out := make([]ActivityDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, activityFromModel(row))
	}
	return out, nil
}

func (s *service) ListNotes(ctx context.Context, session SessionContext, id uuid.UUID) ([]NoteDTO, error) {
	order, err := s.loadVisible(ctx, s.repo, session, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListNotes(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notes")
	}
	out := make([]NoteDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, noteFromModel(row))
	}
	return out, nil
}

func (s *service) loadVisible(ctx context.Context, repo Repository, session SessionContext, id uuid.UUID) (*models.ServiceOrder, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindServiceOrder(ctx, id)
	if err != nil {
		return nil, lookupError(err, "load service order")
	}
	if err := visibility.EnsureOrderVisible(session.viewer(), order.Store); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) appendActivity(ctx context.Context, repo Repository, session SessionContext, orderID uuid.UUID, description string, at time.Time) error {
	activity := &models.Activity{
		ServiceOrderID: orderID,
		UserID:         session.UserID,
		UserName:       session.actorName(),
		Description:    description,
		CreatedAt:      at,
	}
	if err := repo.AppendActivity(ctx, activity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append activity")
	}
	return nil
}

func (s *service) maxLimit() int {
	if s.listMaxLimit > 0 {
		return s.listMaxLimit
	}
	return pagination.MaxLimit
}

func transitionEvent(session SessionContext, order *models.ServiceOrder, from enums.ServiceOrderStatus, origin enums.StatusChangeOrigin, reason string, at time.Time) outbox.DomainEvent {
	event := outbox.DomainEvent{
		AggregateType: enums.AggregateServiceOrder,
		AggregateID:   order.ID,
		Actor:         buildActor(session),
		OccurredAt:    at,
	}
	switch order.Status {
	case enums.ServiceOrderStatusCompleted:
		event.EventType = enums.EventServiceOrderCompleted
		event.Data = payloads.ServiceOrderCompletedEvent{
			ServiceOrderID: order.ID,
			Code:           order.Code,
			From:           from,
			Origin:         origin,
			Store:          order.Store,
			CompletedAt:    at,
		}
	case enums.ServiceOrderStatusCancelled:
		event.EventType = enums.EventServiceOrderCancelled
		event.Data = payloads.ServiceOrderCancelledEvent{
			ServiceOrderID: order.ID,
			Code:           order.Code,
			From:           from,
			Origin:         origin,
			Store:          order.Store,
			Reason:         reason,
			CancelledAt:    at,
		}
	default:
		event.EventType = enums.EventServiceOrderStatusChanged
		event.Data = payloads.ServiceOrderStatusChangedEvent{
			ServiceOrderID: order.ID,
			Code:           order.Code,
			From:           from,
			To:             order.Status,
			Origin:         origin,
			Store:          order.Store,
		}
	}
	return event
}

func buildActor(session SessionContext) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: session.UserID,
		Name:   session.actorName(),
		Role:   session.Role.String(),
		Store:  session.Store.String(),
	}
}

// diffFields returns the column updates and the audit labels for the fields
// that actually change.
func diffFields(order *models.ServiceOrder, input UpdateFieldsInput) (map[string]any, []string) {
	updates := map[string]any{}
	var labels []string

	if input.Description != nil {
		if v := strings.TrimSpace(*input.Description); v != order.Description {
			updates["description"] = v
			labels = append(labels, "description")
		}
	}
	if input.Priority != nil && *input.Priority != order.Priority {
		updates["priority"] = *input.Priority
		labels = append(labels, "priority")
	}
	if input.ScheduledAt != nil && (order.ScheduledAt == nil || !input.ScheduledAt.Equal(*order.ScheduledAt)) {
		updates["scheduled_at"] = *input.ScheduledAt
		labels = append(labels, "scheduled at")
	}
	if input.Warranty != nil && *input.Warranty != order.Warranty {
		updates["warranty"] = *input.Warranty
		labels = append(labels, "warranty")
	}
	if input.CallBeforeArrival != nil && *input.CallBeforeArrival != order.CallBeforeArrival {
		updates["call_before_arrival"] = *input.CallBeforeArrival
		labels = append(labels, "call before arrival")
	}

	optional := []struct {
		column string
		label  string
		next   *string
		curr   *string
	}{
		{"contact_name", "contact name", input.ContactName, order.ContactName},
		{"contact_phone", "contact phone", input.ContactPhone, order.ContactPhone},
		{"cause", FieldRootCause, input.Cause, order.Cause},
		{"client_signature", FieldClientSignature, input.ClientSignature, order.ClientSignature},
		{"technician_signature", FieldTechnicianSignature, input.TechnicianSignature, order.TechnicianSignature},
	}
	for _, field := range optional {
		if field.next == nil {
			continue
		}
		next := normalizeOptional(field.next)
		if sameOptional(next, field.curr) {
			continue
		}
		if next == nil {
			updates[field.column] = nil
		} else {
			updates[field.column] = *next
		}
		labels = append(labels, field.label)
	}
	return updates, labels
}

// withPendingUpdates applies the completion-gated columns of updates to order.
func withPendingUpdates(order models.ServiceOrder, updates map[string]any) models.ServiceOrder {
	for column, field := range map[string]**string{
		"cause":                &order.Cause,
		"client_signature":     &order.ClientSignature,
		"technician_signature": &order.TechnicianSignature,
	} {
		value, ok := updates[column]
		if !ok {
			continue
		}
		if text, isText := value.(string); isText {
			*field = &text
		} else {
			*field = nil
		}
	}
	return order
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sameOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && (b == nil || strings.TrimSpace(*b) == "")
	}
	return *a == *b
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

type noopMetrics struct{}

func (noopMetrics) IncTransition(string, string, string) {}
func (noopMetrics) IncBlocked(string, string)            {}
func (noopMetrics) IncCodeMinted(string)                 {}
