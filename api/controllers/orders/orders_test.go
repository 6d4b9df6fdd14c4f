package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/harvestlink-backend/api/controllers/dto"
	"github.com/angelmondragon/harvestlink-backend/api/middleware"
	internalorders "github.com/angelmondragon/harvestlink-backend/internal/orders"
	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/harvestlink-backend/pkg/errors"
	"github.com/angelmondragon/harvestlink-backend/pkg/logger"
)

type stubOrders struct {
	internalorders.Service
	create       func(buyerID uuid.UUID, input internalorders.CreateInput) (*models.Order, error)
	listBuyer    func(buyerID uuid.UUID, params internalorders.ListParams) (*internalorders.ListResult, error)
	updateStatus func(sellerID, orderID uuid.UUID, status enums.OrderStatus, reason *string) (*models.Order, error)
	details      func(requesterID, orderID uuid.UUID, role enums.ActorRole) (*models.Order, error)
}

func (s *stubOrders) Create(_ context.Context, buyerID uuid.UUID, input internalorders.CreateInput) (*models.Order, error) {
	return s.create(buyerID, input)
}

func (s *stubOrders) ListForBuyer(_ context.Context, buyerID uuid.UUID, params internalorders.ListParams) (*internalorders.ListResult, error) {
	return s.listBuyer(buyerID, params)
}

func (s *stubOrders) UpdateStatus(_ context.Context, sellerID, orderID uuid.UUID, status enums.OrderStatus, reason *string) (*models.Order, error) {
	return s.updateStatus(sellerID, orderID, status, reason)
}

func (s *stubOrders) GetDetails(_ context.Context, requesterID, orderID uuid.UUID, role enums.ActorRole) (*models.Order, error) {
	return s.details(requesterID, orderID, role)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func actorRequest(method, target, body string, userID uuid.UUID, role enums.ActorRole) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := middleware.WithUserID(req.Context(), userID.String())
	return req.WithContext(middleware.WithRole(ctx, role))
}

func withOrderID(req *http.Request, id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func sampleOrder(buyerID, sellerID uuid.UUID, status enums.OrderStatus) *models.Order {
	return &models.Order{
		ID:              uuid.New(),
		BuyerID:         buyerID,
		SellerID:        sellerID,
		ProductID:       uuid.New(),
		Quantity:        3,
		UnitPrice:       decimal.RequireFromString("4"),
		TotalPrice:      decimal.RequireFromString("12"),
		Status:          status,
		DeliveryAddress: "Tamale central market",
		PaymentMethod:   enums.PaymentMethodVodafone,
		IsActive:        true,
	}
}

func TestCreateReturns201(t *testing.T) {
	buyerID := uuid.New()
	productID := uuid.New()
	svc := &stubOrders{create: func(bid uuid.UUID, input internalorders.CreateInput) (*models.Order, error) {
		if bid != buyerID || input.ProductID != productID || input.Quantity != 3 {
			t.Fatalf("unexpected input %+v", input)
		}
		return sampleOrder(buyerID, uuid.New(), enums.OrderStatusPending), nil
	}}

	body := `{"product_id":"` + productID.String() + `","quantity":3,"delivery_address":"Tamale central market","payment_method":"vodafone"}`
	resp := httptest.NewRecorder()
	Create(svc, testLogger())(resp, actorRequest(http.MethodPost, "/api/v1/orders", body, buyerID, enums.ActorRoleBuyer))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data dto.OrderResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.TotalPrice != "12.00" || envelope.Data.PaymentMethod != "vodafone" {
		t.Fatalf("unexpected order %+v", envelope.Data)
	}
}

func TestCreateMapsSelfTrade(t *testing.T) {
	svc := &stubOrders{create: func(uuid.UUID, internalorders.CreateInput) (*models.Order, error) {
		return nil, pkgerrors.New(pkgerrors.CodeSelfTrade, "cannot order your own product")
	}}
	body := `{"product_id":"` + uuid.NewString() + `","quantity":1,"delivery_address":"x","payment_method":"mtn"}`
	resp := httptest.NewRecorder()
	Create(svc, testLogger())(resp, actorRequest(http.MethodPost, "/api/v1/orders", body, uuid.New(), enums.ActorRoleFarmer))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), string(pkgerrors.CodeSelfTrade)) {
		t.Fatalf("missing code in %s", resp.Body.String())
	}
}

func TestListBuyingParsesQuery(t *testing.T) {
	buyerID := uuid.New()
	svc := &stubOrders{listBuyer: func(bid uuid.UUID, params internalorders.ListParams) (*internalorders.ListResult, error) {
		if bid != buyerID || params.Limit != 5 || params.Status != enums.OrderStatusShipped || params.Cursor != "c1" {
			t.Fatalf("unexpected params %+v", params)
		}
		return &internalorders.ListResult{
			Orders:     []models.Order{*sampleOrder(buyerID, uuid.New(), enums.OrderStatusShipped)},
			NextCursor: "c2",
		}, nil
	}}

	resp := httptest.NewRecorder()
	ListBuying(svc, testLogger())(resp, actorRequest(http.MethodGet, "/api/v1/orders/buying?limit=5&status=SHIPPED&cursor=c1", "", buyerID, enums.ActorRoleBuyer))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data dto.OrderListResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Orders) != 1 || envelope.Data.NextCursor != "c2" {
		t.Fatalf("unexpected list %+v", envelope.Data)
	}
}

func TestListBuyingRejectsUnknownStatus(t *testing.T) {
	resp := httptest.NewRecorder()
	ListBuying(&stubOrders{}, testLogger())(resp, actorRequest(http.MethodGet, "/api/v1/orders/buying?status=lost", "", uuid.New(), enums.ActorRoleBuyer))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpdateStatusForwardsReason(t *testing.T) {
	sellerID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrders{updateStatus: func(sid, oid uuid.UUID, status enums.OrderStatus, reason *string) (*models.Order, error) {
		if sid != sellerID || oid != orderID || status != enums.OrderStatusRejected {
			t.Fatalf("unexpected args %s %s %s", sid, oid, status)
		}
		if reason == nil || *reason != "out of season" {
			t.Fatalf("unexpected reason %v", reason)
		}
		order := sampleOrder(uuid.New(), sellerID, enums.OrderStatusRejected)
		order.RejectionReason = reason
		order.IsActive = false
		return order, nil
	}}

	body := `{"status":"rejected","rejection_reason":"out of season"}`
	req := withOrderID(actorRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status", body, sellerID, enums.ActorRoleFarmer), orderID.String())
	resp := httptest.NewRecorder()
	UpdateStatus(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUpdateStatusMapsInvalidTransition(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrders{updateStatus: func(uuid.UUID, uuid.UUID, enums.OrderStatus, *string) (*models.Order, error) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "order status transition not allowed")
	}}
	req := withOrderID(actorRequest(http.MethodPatch, "/", `{"status":"delivered"}`, uuid.New(), enums.ActorRoleFarmer), orderID.String())
	resp := httptest.NewRecorder()
	UpdateStatus(svc, testLogger())(resp, req)
	if !strings.Contains(resp.Body.String(), string(pkgerrors.CodeInvalidTransition)) {
		t.Fatalf("missing code in %s", resp.Body.String())
	}
}

func TestDetailPassesRole(t *testing.T) {
	adminID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrders{details: func(rid, oid uuid.UUID, role enums.ActorRole) (*models.Order, error) {
		if rid != adminID || oid != orderID || role != enums.ActorRoleAdmin {
			t.Fatalf("unexpected args %s %s %s", rid, oid, role)
		}
		return sampleOrder(uuid.New(), uuid.New(), enums.OrderStatusPending), nil
	}}
	req := withOrderID(actorRequest(http.MethodGet, "/", "", adminID, enums.ActorRoleAdmin), orderID.String())
	resp := httptest.NewRecorder()
	Detail(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestHandlersWithoutService(t *testing.T) {
	resp := httptest.NewRecorder()
	ListSelling(nil, testLogger())(resp, actorRequest(http.MethodGet, "/", "", uuid.New(), enums.ActorRoleFarmer))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
