package integration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	httpHandler "paymentgw/internal/adapter/http/handler"
	redisStorage "paymentgw/internal/adapter/storage/redis"
	"paymentgw/internal/core/domain"
	"paymentgw/internal/core/ports"
	"paymentgw/internal/service"
	"paymentgw/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack on an in-memory payment repo,
// miniredis, the real codec, and a temp-file audit sink. It exercises the
// HTTP layer, middleware, handlers, and services end-to-end.

type testApp struct {
	server    *httptest.Server
	redis     *miniredis.Miniredis
	repo      *inMemoryPaymentRepo
	audit     *service.FileAuditSink
	auditPath string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	invoiceCache := redisStorage.NewInvoiceCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	log := logger.New("error", false)
	codec := service.NewEncodingFieldCodec()

	auditPath := filepath.Join(t.TempDir(), "audit.log")
	auditSink := service.NewFileAuditSink(auditPath, service.AuditSinkOptions{}, log)
	auditSink.Start()

	repo := newInMemoryPaymentRepo()
	paymentSvc := service.NewPaymentService(repo, invoiceCache, codec, auditSink, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		PaymentSvc:     paymentSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
		Logger:         log,
	})

	return &testApp{
		server:    httptest.NewServer(router),
		redis:     mr,
		repo:      repo,
		audit:     auditSink,
		auditPath: auditPath,
	}
}

func (a *testApp) close() {
	a.server.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = a.audit.Stop(ctx)
	a.redis.Close()
}

func paymentBody(invoice string) []byte {
	body, _ := json.Marshal(map[string]any{
		"invoice":  invoice,
		"amount":   "123",
		"currency": "USD",
		"cardholder": map[string]string{
			"name":  "First Last",
			"email": "email@domain.com",
		},
		"card": map[string]string{
			"pan":    "4532011283777270",
			"expiry": "0630",
			"cvv":    "123",
		},
	})
	return body
}

func (a *testApp) postPayment(t *testing.T, body []byte) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(a.server.URL+"/api/v1/payments", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_ProcessThenDuplicate(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, body := app.postPayment(t, paymentBody("12345"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["approved"])

	// Same invoice again is rejected, original stays untouched.
	resp, body = app.postPayment(t, paymentBody("12345"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "PAY_001", body["error_code"])
	assert.Equal(t, 1, app.repo.count())
}

func TestIntegration_LookupReturnsMaskedFields(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, _ := app.postPayment(t, paymentBody("55555"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	getResp, err := http.Get(app.server.URL + "/api/v1/payments/55555")
	require.NoError(t, err)
	defer getResp.Body.Close()

	assert.Equal(t, http.StatusOK, getResp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&body))
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "55555", data["invoice"])

	card := data["card"].(map[string]interface{})
	assert.Equal(t, "************7270", card["pan"])
	assert.Equal(t, "****", card["expiry"])

	cardholder := data["cardholder"].(map[string]interface{})
	assert.Equal(t, "**********", cardholder["name"])
	assert.Equal(t, "email@domain.com", cardholder["email"])

	// CVV is never echoed anywhere in the response.
	raw, _ := json.Marshal(body)
	assert.NotContains(t, string(raw), "cvv")

	// Stored record holds tokens, not plaintext.
	stored, err := app.repo.GetByInvoice(context.Background(), "55555")
	require.NoError(t, err)
	assert.NotEqual(t, "4532011283777270", stored.Card.PAN)
	assert.NotEqual(t, "First Last", stored.Cardholder.Name)
}

func TestIntegration_LookupUnknownInvoice(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/api/v1/payments/99999")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "PAY_003", body["error_code"])
}

func TestIntegration_ValidationRejected(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	body, _ := json.Marshal(map[string]any{
		"invoice":  "777",
		"amount":   "50",
		"currency": "USD",
		"cardholder": map[string]string{
			"name":  "First Last",
			"email": "email@domain.com",
		},
		"card": map[string]string{
			"pan":    "1234567890123456", // fails Luhn
			"expiry": "0630",
			"cvv":    "123",
		},
	})
	resp, decoded := app.postPayment(t, body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "PAY_002", decoded["error_code"])
	assert.Equal(t, 0, app.repo.count())
}

func TestIntegration_AuditTrailWritten(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	for i := 0; i < 3; i++ {
		resp, _ := app.postPayment(t, paymentBody(fmt.Sprintf("AUD-%d", i)))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	// Drain the pipeline before reading the file.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, app.audit.Stop(ctx))

	f, err := os.Open(app.auditPath)
	require.NoError(t, err)
	defer f.Close()

	var records []domain.AuditRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec domain.AuditRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 3)

	for _, rec := range records {
		assert.Equal(t, "************7270", rec.Card.PAN)
		assert.Equal(t, "****", rec.Card.Expiry)
		assert.Equal(t, "**********", rec.Cardholder.Name)
		assert.Equal(t, "email@domain.com", rec.Cardholder.Email)
	}
}
