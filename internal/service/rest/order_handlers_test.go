package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orders/internal/domain"
	"orders/internal/storage/memory"
)

func newTestServer(repo domain.OrderRepository) *Server {
	return NewServer(":0", repo, nil, nil, nil)
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echoHeaderContentType, "application/json")
	}

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

const echoHeaderContentType = "Content-Type"

const validOrderBody = `{
	"numeroPedido": "order-1",
	"valorTotal": 1500,
	"dataCriacao": "2024-03-10T12:00:00Z",
	"items": [
		{"idItem": "42", "quantidadeItem": 2, "valorItem": 750}
	]
}`

func TestCreateOrder(t *testing.T) {
	srv := newTestServer(memory.NewOrderRepository())

	w := doRequest(t, srv, http.MethodPost, "/order", validOrderBody)
	require.Equal(t, http.StatusCreated, w.Code)

	var created messageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Pedido criado com sucesso", created.Message)
	assert.Equal(t, "order-1", created.OrderID)

	// Повторное создание того же заказа конфликтует.
	w = doRequest(t, srv, http.MethodPost, "/order", validOrderBody)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateOrderValidation(t *testing.T) {
	srv := newTestServer(memory.NewOrderRepository())

	body := `{
		"numeroPedido": "",
		"valorTotal": -5,
		"dataCriacao": "not-a-date",
		"items": []
	}`

	w := doRequest(t, srv, http.MethodPost, "/order", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Dados inválidos", resp.Error)
	assert.Len(t, resp.Detalhes, 4)
}

func TestCreateOrderMalformedBody(t *testing.T) {
	srv := newTestServer(memory.NewOrderRepository())

	w := doRequest(t, srv, http.MethodPost, "/order", `{"numeroPedido": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderCoercesStringProductID(t *testing.T) {
	repo := memory.NewOrderRepository()
	srv := newTestServer(repo)

	w := doRequest(t, srv, http.MethodPost, "/order", validOrderBody)
	require.Equal(t, http.StatusCreated, w.Code)

	order, err := repo.Get("order-1")
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(42), order.Items[0].ProductID)
}

func TestCreateOrderNormalizesDateToUTC(t *testing.T) {
	repo := memory.NewOrderRepository()
	srv := newTestServer(repo)

	body := `{
		"numeroPedido": "order-tz",
		"valorTotal": 100,
		"dataCriacao": "2024-03-10T15:00:00+03:00",
		"items": [{"idItem": 1, "quantidadeItem": 1, "valorItem": 100}]
	}`

	w := doRequest(t, srv, http.MethodPost, "/order", body)
	require.Equal(t, http.StatusCreated, w.Code)

	order, err := repo.Get("order-tz")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10T12:00:00Z", order.CreationDate)
}

func TestGetOrder(t *testing.T) {
	srv := newTestServer(memory.NewOrderRepository())

	w := doRequest(t, srv, http.MethodPost, "/order", validOrderBody)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/order/order-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp orderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "order-1", resp.OrderID)
	assert.Equal(t, int64(1500), resp.Value)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(2), resp.Items[0].Quantity)
}

func TestGetOrderNotFound(t *testing.T) {
	srv := newTestServer(memory.NewOrderRepository())

	w := doRequest(t, srv, http.MethodGet, "/order/missing", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Pedido não encontrado", resp.Error)
}

func TestListOrders(t *testing.T) {
	srv := newTestServer(memory.NewOrderRepository())

	// Пустой список отдаётся как [], а не null.
	w := doRequest(t, srv, http.MethodGet, "/order/list", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	w = doRequest(t, srv, http.MethodPost, "/order", validOrderBody)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/order/list", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp []orderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "order-1", resp[0].OrderID)
}

func TestUpdateOrder(t *testing.T) {
	repo := memory.NewOrderRepository()
	srv := newTestServer(repo)

	w := doRequest(t, srv, http.MethodPost, "/order", validOrderBody)
	require.Equal(t, http.StatusCreated, w.Code)

	body := `{
		"numeroPedido": "ignored-by-route",
		"valorTotal": 900,
		"dataCriacao": "2024-04-01T00:00:00Z",
		"items": [{"idItem": 7, "quantidadeItem": 3, "valorItem": 300}]
	}`

	w = doRequest(t, srv, http.MethodPut, "/order/order-1", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp messageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Pedido atualizado com sucesso", resp.Message)

	order, err := repo.Get("order-1")
	require.NoError(t, err)
	assert.Equal(t, int64(900), order.Value)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(7), order.Items[0].ProductID)
}

func TestUpdateOrderNotFound(t *testing.T) {
	srv := newTestServer(memory.NewOrderRepository())

	w := doRequest(t, srv, http.MethodPut, "/order/missing", validOrderBody)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteOrder(t *testing.T) {
	srv := newTestServer(memory.NewOrderRepository())

	w := doRequest(t, srv, http.MethodPost, "/order", validOrderBody)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, srv, http.MethodDelete, "/order/order-1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/order/order-1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteOrderNotFound(t *testing.T) {
	srv := newTestServer(memory.NewOrderRepository())

	w := doRequest(t, srv, http.MethodDelete, "/order/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// failingRepo имитирует сбой хранилища для проверки 500-х ответов.
type failingRepo struct{}

func (failingRepo) Create(domain.Order) error { return errors.New("storage down") }
func (failingRepo) Get(string) (domain.Order, error) {
	return domain.Order{}, errors.New("storage down")
}
func (failingRepo) List() ([]domain.Order, error) { return nil, errors.New("storage down") }
func (failingRepo) Update(domain.Order) error     { return errors.New("storage down") }
func (failingRepo) Delete(string) (int64, error)  { return 0, errors.New("storage down") }

func TestStorageFailuresReturn500(t *testing.T) {
	srv := newTestServer(failingRepo{})

	cases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/order", validOrderBody},
		{http.MethodGet, "/order/order-1", ""},
		{http.MethodGet, "/order/list", ""},
		{http.MethodPut, "/order/order-1", validOrderBody},
		{http.MethodDelete, "/order/order-1", ""},
	}

	for _, tc := range cases {
		w := doRequest(t, srv, tc.method, tc.path, tc.body)
		require.Equal(t, http.StatusInternalServerError, w.Code, "%s %s", tc.method, tc.path)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Erro interno do servidor", resp.Error)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(memory.NewOrderRepository())

	// Без заголовка сервер генерирует request id сам.
	w := doRequest(t, srv, http.MethodGet, "/order/list", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	// Присланный клиентом request id возвращается без изменений.
	req := httptest.NewRequest(http.MethodGet, "/order/list", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
}
