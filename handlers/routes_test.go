package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/handlers"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/middlewares"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/testsupport"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/workflow"
	"google.golang.org/grpc/codes"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testsupport.NewTestDB(t)
	testsupport.SeedSite(t, db, "loc-a", "unit-a")

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	engine := workflow.NewEngine(db, logger, workflow.EngineOptions{Timezone: "Asia/Jakarta"})

	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	handlers.RegisterRoutes(r, engine, logger)
	return r
}

func do(r *gin.Engine, method string, path string, actor string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(middlewares.HeaderActorUserId, actor)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const receiveBody = `{
	"operation_id": "op-1",
	"location_id": "loc-a",
	"unit_id": "unit-a",
	"timestamp": "2026-03-10T10:00:00+07:00",
	"fisher_id": "fisher-1",
	"item_id": "tuna",
	"grade": "A",
	"quantity_kg": "500",
	"price_per_kg_idr": "15000"
}`

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)
	w := do(r, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOperationsRequireActor(t *testing.T) {
	r := newTestRouter(t)
	w := do(r, http.MethodPost, "/v1/operations/receive", "", receiveBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReceiveThenReplay(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/v1/operations/receive", "user-1", receiveBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var first workflow.OperationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, "receive-unit-a-op-1", first.LedgerEntryId)
	assert.False(t, first.Replayed)

	w = do(r, http.MethodPost, "/v1/operations/receive", "user-2", receiveBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var second workflow.OperationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.True(t, second.Replayed)
	assert.Equal(t, first.LotId, second.LotId)

	w = do(r, http.MethodGet, "/v1/ledger-entries/receive-unit-a-op-1", "user-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var entry models.LedgerEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, "user-1", entry.ActorUserId)
	require.Len(t, entry.Lines, 2)

	w = do(r, http.MethodGet, "/v1/lots/"+first.LotId+"/trace", "user-1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/v1/lots?unit_id=unit-a&available=true", "user-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var lots []models.InventoryLot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lots))
	assert.Len(t, lots, 1)

	w = do(r, http.MethodGet, "/v1/accounts/FISHER_LIABILITY/balance?partner_id=fisher-1", "user-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"account":"FISHER_LIABILITY","balance_idr":"-7500000"}`, w.Body.String())
}

func TestErrorResponses(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed body", http.MethodPost, "/v1/operations/receive", `{"quantity_kg":`, http.StatusBadRequest, "InvalidArgument"},
		{"failed validation", http.MethodPost, "/v1/operations/funding",
			`{"operation_id":"f-1","location_id":"loc-a","unit_id":"unit-a","timestamp":"2026-03-10T10:00:00Z","amount_idr":"0","source_account":"BANK"}`,
			http.StatusBadRequest, "InvalidArgument"},
		{"unknown unit", http.MethodPost, "/v1/operations/funding",
			`{"operation_id":"f-2","location_id":"loc-a","unit_id":"unit-z","timestamp":"2026-03-10T10:00:00Z","amount_idr":"10","source_account":"BANK"}`,
			http.StatusNotFound, "NotFound"},
		{"missing lot", http.MethodGet, "/v1/lots/nope", "", http.StatusNotFound, "NotFound"},
		{"missing invoice", http.MethodGet, "/v1/invoices/nope", "", http.StatusNotFound, "NotFound"},
		{"bad period", http.MethodPost, "/v1/periods/2026-13/close", "", http.StatusBadRequest, "InvalidArgument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, "user-1", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["error"])
		})
	}
}

func TestClosePeriodLocksPostings(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/v1/periods/2026-03/close", "admin-1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/v1/operations/receive", "user-1", receiveBody)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	w = do(r, http.MethodGet, "/v1/periods", "user-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var periods []models.Period
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &periods))
	require.Len(t, periods, 1)
	assert.Equal(t, models.PeriodStatusClosed, periods[0].Status)

	w = do(r, http.MethodGet, "/v1/periods/2026-03", "user-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := map[codes.Code]int{
		codes.OK:                 http.StatusOK,
		codes.Unauthenticated:    http.StatusUnauthorized,
		codes.InvalidArgument:    http.StatusBadRequest,
		codes.NotFound:           http.StatusNotFound,
		codes.FailedPrecondition: http.StatusPreconditionFailed,
		codes.Aborted:            http.StatusConflict,
		codes.DeadlineExceeded:   http.StatusGatewayTimeout,
		codes.Canceled:           499,
		codes.Internal:           http.StatusInternalServerError,
		codes.Unknown:            http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, handlers.HTTPStatus(code), code.String())
	}
}
