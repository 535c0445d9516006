package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appsync "github.com/storefront/syncengine/internal/application/sync"
	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
	"github.com/storefront/syncengine/internal/infrastructure/scheduler"
	"github.com/storefront/syncengine/internal/interfaces/http/dto"
)

// OrderHandler handles order intake and export endpoints
type OrderHandler struct {
	BaseHandler
	orders    catalog.OrderRepository
	publisher shared.EventPublisher
	enqueuer  scheduler.Enqueuer
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders catalog.OrderRepository, publisher shared.EventPublisher, enqueuer scheduler.Enqueuer) *OrderHandler {
	return &OrderHandler{orders: orders, publisher: publisher, enqueuer: enqueuer}
}

// RegisterRoutes registers the order endpoints
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/orders")
	group.POST("", h.CreateOrder)
	group.GET("/:id", h.GetOrder)
	group.POST("/:id/export", h.ExportOrder)
}

// CreateOrderRequest is the request body for creating an order
type CreateOrderRequest struct {
	Type     string            `json:"type" binding:"omitempty,oneof=reservation quote anonymous"`
	Items    map[string]string `json:"items" binding:"required,min=1"`
	UserID   string            `json:"user_id" binding:"omitempty,uuid"`
	Client   string            `json:"client" binding:"max=200"`
	Address  string            `json:"address" binding:"max=255"`
	Phone    string            `json:"phone" binding:"max=50"`
	Email    string            `json:"email" binding:"omitempty,email"`
	Comment  string            `json:"comment"`
	Shipping string            `json:"shipping" binding:"omitempty,datetime=2006-01-02"`
}

// OrderResponse is the API view of an order
type OrderResponse struct {
	ID         string            `json:"id"`
	ExternalID string            `json:"external_id,omitempty"`
	Type       string            `json:"type"`
	Items      map[string]string `json:"items"`
	Client     string            `json:"client,omitempty"`
	Address    string            `json:"address,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Email      string            `json:"email,omitempty"`
	Comment    string            `json:"comment,omitempty"`
	Shipping   string            `json:"shipping,omitempty"`
	Exported   bool              `json:"exported"`
	CreatedAt  time.Time         `json:"created_at"`
}

func newOrderResponse(order *catalog.Order) OrderResponse {
	items := make(map[string]string)
	for id, quantity := range order.ItemMap() {
		items[id.String()] = quantity.String()
	}

	resp := OrderResponse{
		ID:        order.ID.String(),
		Type:      string(order.Type),
		Items:     items,
		Client:    order.Client,
		Address:   order.Address,
		Phone:     order.Phone,
		Email:     order.Email,
		Comment:   order.Comment,
		Exported:  order.IsExported(),
		CreatedAt: order.CreatedAt,
	}
	if order.ExternalID != nil {
		resp.ExternalID = *order.ExternalID
	}
	if !order.Shipping.IsZero() {
		resp.Shipping = order.Shipping.Format("2006-01-02")
	}
	return resp
}

// CreateOrder accepts a storefront order and queues its export through the
// published domain events
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	items, err := parseOrderItems(req.Items)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	orderType := catalog.OrderTypeAnonymous
	if req.Type != "" {
		orderType = catalog.OrderType(req.Type)
	}

	order, err := catalog.NewOrder(orderType, items)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	order.Client = req.Client
	order.Address = req.Address
	order.Phone = req.Phone
	order.Email = req.Email
	order.Comment = req.Comment
	if req.UserID != "" {
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			h.BadRequest(c, "Invalid user id")
			return
		}
		order.UserID = &userID
	}
	if req.Shipping != "" {
		shipping, err := time.Parse("2006-01-02", req.Shipping)
		if err != nil {
			h.BadRequest(c, "Invalid shipping date")
			return
		}
		order.Shipping = shipping
	}

	if err := h.orders.Create(c.Request.Context(), order); err != nil {
		h.HandleError(c, err)
		return
	}

	events := order.GetDomainEvents()
	if len(events) > 0 {
		if err := h.publisher.Publish(c.Request.Context(), events...); err != nil {
			// The order is saved; export can still be triggered manually
			h.Created(c, newOrderResponse(order))
			return
		}
		order.ClearDomainEvents()
	}

	h.Created(c, newOrderResponse(order))
}

// GetOrder returns one order by id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid order id")
		return
	}

	order, err := h.orders.FindByID(c.Request.Context(), uuid.MustParse(req.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newOrderResponse(order))
}

// ExportOrderRequest is the request body for a manual export
type ExportOrderRequest struct {
	DocNumber string `json:"doc_number" binding:"max=64"`
}

// ExportOrder queues an export job for one order. A doc_number routes a
// reservation through the document-bound ERP endpoint.
func (h *OrderHandler) ExportOrder(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid order id")
		return
	}

	var body ExportOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			h.BadRequest(c, "Invalid request: "+err.Error())
			return
		}
	}

	order, err := h.orders.FindByID(c.Request.Context(), uuid.MustParse(req.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if order.IsExported() {
		h.Conflict(c, dto.ErrCodeAlreadyExported, "Order has already been exported")
		return
	}

	params := map[string]string{
		appsync.ParamOrderID: order.ID.String(),
	}
	if body.DocNumber != "" {
		params[appsync.ParamDocNumber] = body.DocNumber
	}

	job, err := h.enqueuer.Enqueue(scheduler.JobTypeOrderExport, params)
	if err != nil {
		switch err {
		case scheduler.ErrJobQueueFull:
			h.TooManyRequests(c, "Job queue is full, try again later")
		default:
			h.InternalError(c, "Failed to queue export job")
		}
		return
	}
	h.Accepted(c, newJobResponse(job))
}

func parseOrderItems(raw map[string]string) (map[uuid.UUID]decimal.Decimal, error) {
	items := make(map[uuid.UUID]decimal.Decimal, len(raw))
	for idRaw, quantityRaw := range raw {
		id, err := uuid.Parse(idRaw)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_ITEMS", "Item keys must be product ids")
		}
		quantity, err := decimal.NewFromString(quantityRaw)
		if err != nil || quantity.IsNegative() || quantity.IsZero() {
			return nil, shared.NewDomainError("INVALID_ITEMS", "Item quantities must be positive numbers")
		}
		items[id] = quantity
	}
	return items, nil
}
