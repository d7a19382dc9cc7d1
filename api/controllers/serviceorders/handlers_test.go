package serviceorders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	internal "github.com/friotec/fieldservice-backend/internal/serviceorders"
	"github.com/friotec/fieldservice-backend/pkg/enums"
	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
)

type stubService struct {
	list         func(internal.ListFilters) (*internal.ListResult, error)
	changeStatus func(internal.ChangeStatusInput) (*internal.ServiceOrderDTO, error)
	bulk         func(internal.BulkChangeStatusInput) (*internal.BulkChangeStatusResult, error)
	create       func(internal.CreateInput) (*internal.ServiceOrderDTO, error)
	get          func(uuid.UUID) (*internal.ServiceOrderDTO, error)
	lastSession  internal.SessionContext
}

func (s *stubService) Create(ctx context.Context, session internal.SessionContext, input internal.CreateInput) (*internal.ServiceOrderDTO, error) {
	s.lastSession = session
	return s.create(input)
}

func (s *stubService) Get(ctx context.Context, session internal.SessionContext, id uuid.UUID) (*internal.ServiceOrderDTO, error) {
	s.lastSession = session
	return s.get(id)
}

func (s *stubService) List(ctx context.Context, session internal.SessionContext, filters internal.ListFilters) (*internal.ListResult, error) {
	s.lastSession = session
	return s.list(filters)
}

func (s *stubService) UpdateFields(ctx context.Context, session internal.SessionContext, id uuid.UUID, input internal.UpdateFieldsInput) (*internal.ServiceOrderDTO, error) {
	panic("not implemented")
}

func (s *stubService) ChangeStatus(ctx context.Context, session internal.SessionContext, input internal.ChangeStatusInput) (*internal.ServiceOrderDTO, error) {
	s.lastSession = session
	return s.changeStatus(input)
}

func (s *stubService) BulkChangeStatus(ctx context.Context, session internal.SessionContext, input internal.BulkChangeStatusInput) (*internal.BulkChangeStatusResult, error) {
	s.lastSession = session
	return s.bulk(input)
}

func (s *stubService) StartTimer(ctx context.Context, session internal.SessionContext, id uuid.UUID) (*internal.ServiceOrderDTO, error) {
	return &internal.ServiceOrderDTO{ID: id, TimerActive: true}, nil
}

func (s *stubService) StopTimer(ctx context.Context, session internal.SessionContext, id uuid.UUID) (*internal.ServiceOrderDTO, error) {
	return &internal.ServiceOrderDTO{ID: id}, nil
}

func (s *stubService) AddNote(ctx context.Context, session internal.SessionContext, id uuid.UUID, content string) (*internal.NoteDTO, error) {
	return &internal.NoteDTO{UserName: session.DisplayName, Content: content}, nil
}

func (s *stubService) ListActivities(ctx context.Context, session internal.SessionContext, id uuid.UUID) ([]internal.ActivityDTO, error) {
	return []internal.ActivityDTO{}, nil
}

func (s *stubService) ListNotes(ctx context.Context, session internal.SessionContext, id uuid.UUID) ([]internal.NoteDTO, error) {
	return []internal.NoteDTO{}, nil
}

var testSession = internal.SessionContext{
	UserID:      uuid.New(),
	DisplayName: "J. SILVA",
	Role:        enums.UserRoleBackOffice,
	Store:       enums.StoreMain,
}

func newRequest(method, target, body string, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = internal.WithSession(ctx, testSession)
	return req.WithContext(ctx)
}

type errorEnvelope struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var payload errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestChangeStatusPassesInput(t *testing.T) {
	orderID := uuid.New()
	var captured internal.ChangeStatusInput
	svc := &stubService{changeStatus: func(in internal.ChangeStatusInput) (*internal.ServiceOrderDTO, error) {
		captured = in
		return &internal.ServiceOrderDTO{ID: in.OrderID, Status: in.Status}, nil
	}}

	req := newRequest(http.MethodPost, "/", `{"status":"awaiting_parts","origin":"list"}`, map[string]string{"orderId": orderID.String()})
	rec := httptest.NewRecorder()
	ChangeStatus(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, orderID, captured.OrderID)
	require.Equal(t, enums.ServiceOrderStatusAwaitingParts, captured.Status)
	require.Equal(t, enums.StatusChangeOriginList, captured.Origin)
	require.Equal(t, testSession, svc.lastSession)
}

func TestChangeStatusCompletionBlockedIncludesMissingFields(t *testing.T) {
	svc := &stubService{changeStatus: func(in internal.ChangeStatusInput) (*internal.ServiceOrderDTO, error) {
		return nil, pkgerrors.New(pkgerrors.CodeCompletionBlocked, "service order cannot be completed").
			WithDetails(internal.CompletionBlockedDetails{MissingFields: []string{internal.FieldRootCause, internal.FieldClientSignature}})
	}}

	req := newRequest(http.MethodPost, "/", `{"status":"completed"}`, map[string]string{"orderId": uuid.NewString()})
	rec := httptest.NewRecorder()
	ChangeStatus(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	payload := decodeError(t, rec)
	require.Equal(t, string(pkgerrors.CodeCompletionBlocked), payload.Error.Code)

	var details internal.CompletionBlockedDetails
	require.NoError(t, json.Unmarshal(payload.Error.Details, &details))
	require.Equal(t, []string{internal.FieldRootCause, internal.FieldClientSignature}, details.MissingFields)
}

func TestChangeStatusReasonRequired(t *testing.T) {
	svc := &stubService{changeStatus: func(in internal.ChangeStatusInput) (*internal.ServiceOrderDTO, error) {
		return nil, pkgerrors.New(pkgerrors.CodeReasonRequired, "cancellation reason is required")
	}}

	req := newRequest(http.MethodPost, "/", `{"status":"cancelled","reason":"   "}`, map[string]string{"orderId": uuid.NewString()})
	rec := httptest.NewRecorder()
	ChangeStatus(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, string(pkgerrors.CodeReasonRequired), decodeError(t, rec).Error.Code)
}

func TestChangeStatusRejectsBadInput(t *testing.T) {
	svc := &stubService{changeStatus: func(in internal.ChangeStatusInput) (*internal.ServiceOrderDTO, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}

	cases := map[string]struct {
		id   string
		body string
	}{
		"bad id":      {id: "nope", body: `{"status":"completed"}`},
		"bad status":  {id: uuid.NewString(), body: `{"status":"teleported"}`},
		"bad origin":  {id: uuid.NewString(), body: `{"status":"completed","origin":"email"}`},
		"no status":   {id: uuid.NewString(), body: `{}`},
		"extra field": {id: uuid.NewString(), body: `{"status":"completed","foo":1}`},
	}
	for name, tc := range cases {
		req := newRequest(http.MethodPost, "/", tc.body, map[string]string{"orderId": tc.id})
		rec := httptest.NewRecorder()
		ChangeStatus(svc, nil).ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestHandlersRequireSession(t *testing.T) {
	svc := &stubService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/service-orders", nil)
	rec := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListParsesFilters(t *testing.T) {
	clientID := uuid.New()
	var captured internal.ListFilters
	svc := &stubService{list: func(f internal.ListFilters) (*internal.ListResult, error) {
		captured = f
		return &internal.ListResult{Items: []internal.ServiceOrderDTO{}}, nil
	}}

	target := "/api/v1/service-orders?status=started,AWAITING%20PARTS&type=breakdown&client_id=" + clientID.String() +
		"&store=all&q=%20compressor%20&limit=10&offset=20&updated_since=2026-01-02T03:04:05Z"
	req := newRequest(http.MethodGet, target, "", nil)
	rec := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []enums.ServiceOrderStatus{enums.ServiceOrderStatusStarted, enums.ServiceOrderStatusAwaitingParts}, captured.Statuses)
	require.NotNil(t, captured.Type)
	require.Equal(t, enums.ServiceOrderTypeBreakdown, *captured.Type)
	require.Equal(t, clientID, *captured.ClientID)
	require.Equal(t, "all", captured.Store)
	require.Equal(t, "compressor", captured.Query)
	require.Equal(t, 10, captured.Page.Limit)
	require.Equal(t, 20, captured.Page.Offset)
	require.NotNil(t, captured.UpdatedSince)
}

func TestBulkChangeStatusReturnsPerOrderResults(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	svc := &stubService{bulk: func(in internal.BulkChangeStatusInput) (*internal.BulkChangeStatusResult, error) {
		require.Equal(t, []uuid.UUID{first, second}, in.OrderIDs)
		require.Equal(t, enums.ServiceOrderStatusCompleted, in.Status)
		return &internal.BulkChangeStatusResult{
			Results: []internal.BulkItemResult{
				{OrderID: first, OK: true},
				{OrderID: second, OK: false, Code: string(pkgerrors.CodeCompletionBlocked)},
			},
			Succeeded: 1,
			Failed:    1,
		}, nil
	}}

	body := `{"order_ids":["` + first.String() + `","` + second.String() + `"],"status":"completed"}`
	req := newRequest(http.MethodPost, "/", body, nil)
	rec := httptest.NewRecorder()
	BulkChangeStatus(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Data internal.BulkChangeStatusResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, 1, payload.Data.Succeeded)
	require.Equal(t, 1, payload.Data.Failed)
	require.False(t, payload.Data.Results[1].OK)
}

func TestBulkChangeStatusRequiresIDs(t *testing.T) {
	req := newRequest(http.MethodPost, "/", `{"order_ids":[],"status":"completed"}`, nil)
	rec := httptest.NewRecorder()
	BulkChangeStatus(&stubService{}, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReturns201(t *testing.T) {
	clientID := uuid.New()
	svc := &stubService{create: func(in internal.CreateInput) (*internal.ServiceOrderDTO, error) {
		require.Equal(t, clientID, in.ClientID)
		require.Equal(t, enums.ServiceOrderTypeBreakdown, in.Type)
		return &internal.ServiceOrderDTO{Code: "OS-00042", Status: enums.ServiceOrderStatusNotStarted}, nil
	}}

	body := `{"client_id":"` + clientID.String() + `","type":"breakdown","description":"compressor noise"}`
	req := newRequest(http.MethodPost, "/", body, nil)
	rec := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"OS-00042"`)
}

func TestDetailNotFound(t *testing.T) {
	svc := &stubService{get: func(id uuid.UUID) (*internal.ServiceOrderDTO, error) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service order not found")
	}}
	req := newRequest(http.MethodGet, "/", "", map[string]string{"orderId": uuid.NewString()})
	rec := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddNoteAndTimer(t *testing.T) {
	orderID := uuid.New()
	svc := &stubService{}

	req := newRequest(http.MethodPost, "/", `{"content":"client called back"}`, map[string]string{"orderId": orderID.String()})
	rec := httptest.NewRecorder()
	AddNote(svc, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"user_name":"J. SILVA"`)

	req = newRequest(http.MethodPost, "/", "", map[string]string{"orderId": orderID.String()})
	rec = httptest.NewRecorder()
	StartTimer(svc, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"timer_active":true`)
}
