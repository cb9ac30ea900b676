package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"orders/internal/domain"
)

// Сообщения внешнего контракта. Тела запросов используют португальские
// имена полей исторического API; ответы на чтение отдают внутренние имена.
const (
	msgInvalidPayload = "Dados inválidos"
	msgNotFound       = "Pedido não encontrado"
	msgConflict       = "Pedido já existe"
	msgInternalError  = "Erro interno do servidor"
	msgCreated        = "Pedido criado com sucesso"
	msgUpdated        = "Pedido atualizado com sucesso"
)

type orderItemPayload struct {
	// IDItem принимает и число, и строку с числом, как внешний контракт.
	IDItem         any   `json:"idItem"`
	QuantidadeItem int64 `json:"quantidadeItem"`
	ValorItem      int64 `json:"valorItem"`
}

type orderPayload struct {
	NumeroPedido string             `json:"numeroPedido"`
	ValorTotal   int64              `json:"valorTotal"`
	DataCriacao  string             `json:"dataCriacao"`
	Items        []orderItemPayload `json:"items"`
}

type orderItemResponse struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
	Price     int64 `json:"price"`
}

type orderResponse struct {
	OrderID      string              `json:"orderId"`
	Value        int64               `json:"value"`
	CreationDate string              `json:"creationDate"`
	Items        []orderItemResponse `json:"items"`
}

type errorResponse struct {
	Error    string   `json:"error"`
	Detalhes []string `json:"detalhes,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
	OrderID string `json:"orderId,omitempty"`
}

// toDomain отображает полезную нагрузку на агрегат и проверяет его инварианты.
// Дата нормализуется в UTC RFC3339 до записи в хранилище.
func (p orderPayload) toDomain() (domain.Order, []error) {
	order := domain.Order{
		ID:           p.NumeroPedido,
		Value:        p.ValorTotal,
		CreationDate: p.DataCriacao,
	}

	if parsed, err := time.Parse(time.RFC3339, p.DataCriacao); err == nil {
		order.CreationDate = parsed.UTC().Format(time.RFC3339)
	}

	order.Items = make([]domain.OrderItem, 0, len(p.Items))
	for _, item := range p.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: coerceProductID(item.IDItem),
			Quantity:  item.QuantidadeItem,
			Price:     item.ValorItem,
		})
	}

	return order, order.ValidateInvariants()
}

// coerceProductID разбирает идентификатор товара из числа или строки.
// Некорректное значение превращается в 0 и отсеивается инвариантами.
func coerceProductID(v any) int64 {
	switch id := v.(type) {
	case float64:
		return int64(id)
	case string:
		parsed, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	return orderResponse{
		OrderID:      order.ID,
		Value:        order.Value,
		CreationDate: order.CreationDate,
		Items:        items,
	}
}

func errorStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}

// CreateOrder обрабатывает POST /order.
func (s *Server) CreateOrder(c echo.Context) error {
	var payload orderPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:    msgInvalidPayload,
			Detalhes: []string{"malformed request body"},
		})
	}

	order, errs := payload.toDomain()
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:    msgInvalidPayload,
			Detalhes: errorStrings(errs),
		})
	}

	start := time.Now()
	err := s.repo.Create(order)
	s.metrics.ObserveOperation("create", time.Since(start), err)

	if err != nil {
		if domain.IsAlreadyExists(err) {
			return c.JSON(http.StatusConflict, errorResponse{Error: msgConflict})
		}
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to create order")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgInternalError})
	}

	return c.JSON(http.StatusCreated, messageResponse{Message: msgCreated, OrderID: order.ID})
}

// GetOrder обрабатывает GET /order/:orderId.
func (s *Server) GetOrder(c echo.Context) error {
	orderID := c.Param("orderId")

	start := time.Now()
	order, err := s.repo.Get(orderID)
	s.metrics.ObserveOperation("get", time.Since(start), err)

	if err != nil {
		if domain.IsNotFound(err) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: msgNotFound})
		}
		s.logger.WithError(err).WithField("order_id", orderID).Error("failed to get order")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgInternalError})
	}

	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// ListOrders обрабатывает GET /order/list.
func (s *Server) ListOrders(c echo.Context) error {
	start := time.Now()
	orders, err := s.repo.List()
	s.metrics.ObserveOperation("list", time.Since(start), err)

	if err != nil {
		s.logger.WithError(err).Error("failed to list orders")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgInternalError})
	}

	responses := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, toOrderResponse(order))
	}

	return c.JSON(http.StatusOK, responses)
}

// UpdateOrder обрабатывает PUT /order/:orderId.
// Идентификатор берётся из пути и перекрывает тело: ID заказа неизменяем.
func (s *Server) UpdateOrder(c echo.Context) error {
	var payload orderPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:    msgInvalidPayload,
			Detalhes: []string{"malformed request body"},
		})
	}
	payload.NumeroPedido = c.Param("orderId")

	order, errs := payload.toDomain()
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:    msgInvalidPayload,
			Detalhes: errorStrings(errs),
		})
	}

	// Существование проверяет адаптер: сам Update отсутствие заказа
	// ошибкой не считает.
	if _, err := s.repo.Get(order.ID); err != nil {
		if domain.IsNotFound(err) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: msgNotFound})
		}
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to check order before update")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgInternalError})
	}

	start := time.Now()
	err := s.repo.Update(order)
	s.metrics.ObserveOperation("update", time.Since(start), err)

	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to update order")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgInternalError})
	}

	return c.JSON(http.StatusOK, messageResponse{Message: msgUpdated})
}

// DeleteOrder обрабатывает DELETE /order/:orderId.
func (s *Server) DeleteOrder(c echo.Context) error {
	orderID := c.Param("orderId")

	start := time.Now()
	affected, err := s.repo.Delete(orderID)
	s.metrics.ObserveOperation("delete", time.Since(start), err)

	if err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Error("failed to delete order")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgInternalError})
	}
	if affected == 0 {
		return c.JSON(http.StatusNotFound, errorResponse{Error: msgNotFound})
	}

	return c.NoContent(http.StatusNoContent)
}
