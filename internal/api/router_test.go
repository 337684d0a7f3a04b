package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskScope/internal/apperr"
	"riskScope/internal/blob"
	"riskScope/internal/enrich"
	"riskScope/internal/ingest"
	"riskScope/internal/model"
	"riskScope/internal/service"
	"riskScope/internal/storage/memory"
)

const travelRuleDoc = `<TravelRuleReport>
  <VASP id="VASP-ZA-009"/>
  <Customers>
    <Customer>
      <CustomerID>cust-77</CustomerID>
      <SAIDNumber>9202025009088</SAIDNumber>
      <FirstName>Lerato</FirstName>
      <LastName>Mokoena</LastName>
      <Wallets><Wallet><Address>0x77</Address><Declared>true</Declared></Wallet></Wallets>
    </Customer>
  </Customers>
</TravelRuleReport>`

func newTestRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.UpsertCustomers(ctx, []model.Customer{{ID: "cust-1", SAID: "8001015009087", FirstName: "Ayanda", LastName: "Nkosi"}}))
	require.NoError(t, store.UpsertWallets(ctx, []model.Wallet{{ID: "w1", Address: "0xabc", CustomerID: "cust-1", Declared: true, RiskScore: 40}}))

	blobs := blob.NewFileStore(t.TempDir())
	orch := enrich.NewOrchestrator(nil, nil, store, nil, enrich.Config{}, nil)
	svc := service.New(store, orch, nil, blobs, nil)
	uploader := ingest.NewUploader(blobs, ingest.NewLoader(store, nil))
	return NewRouter(&Config{Service: svc, Uploader: uploader}), store
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t)
	rec, body := do(t, r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

type downStore struct {
	*memory.Store
}

func (downStore) Ping(ctx context.Context) error {
	return apperr.Transient("ping", errors.New("connection refused"))
}

func TestHealthzStoreDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := downStore{memory.NewStore()}
	svc := service.New(store, enrich.NewOrchestrator(nil, nil, store, nil, enrich.Config{}, nil), nil, blob.NewFileStore(t.TempDir()), nil)
	r := NewRouter(&Config{Service: svc})

	rec, body := do(t, r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", body["status"])
}

func TestSearch(t *testing.T) {
	r, _ := newTestRouter(t)

	rec, body := do(t, r, http.MethodPost, "/v1/search", `{"wallet_address":"0xABC"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cust-1", body["customer_id"])
	assert.EqualValues(t, 40, body["portfolio_risk_score"])
	assert.Equal(t, "unavailable", body["market_integration"])

	rec, _ = do(t, r, http.MethodPost, "/v1/search", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, r, http.MethodPost, "/v1/search", `{"query":"0xdead"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, r, http.MethodPost, "/v1/search", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrich(t *testing.T) {
	r, store := newTestRouter(t)

	rec, body := do(t, r, http.MethodPost, "/v1/enrich", `{"wallet_address":"0xabc","wallet_balances":{"ETH":"1.5"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 40, body["combined_risk_score"])
	assert.Equal(t, "skipped", body["chain_status"])

	w, err := store.WalletByAddress(context.Background(), "0xabc")
	require.NoError(t, err)
	require.NotNil(t, w.LastEnriched)

	rec, _ = do(t, r, http.MethodPost, "/v1/enrich", `{"wallet_address":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCustomersAndDashboard(t *testing.T) {
	r, _ := newTestRouter(t)

	rec, body := do(t, r, http.MethodGet, "/v1/customers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	rec, body = do(t, r, http.MethodGet, "/v1/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["live_prices"])
	kpis := body["kpi_metrics"].(map[string]any)
	assert.EqualValues(t, 1, kpis["total_wallets"])
	assert.Contains(t, kpis, "high_risk_wallets")
	assert.EqualValues(t, 0, kpis["high_risk_wallets"])
}

func TestReportAndGraph(t *testing.T) {
	r, _ := newTestRouter(t)

	rec, body := do(t, r, http.MethodPost, "/v1/reports", `{"customer_id":"cust-1","investigator_name":"Analyst"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "success", body["status"])
	assert.Contains(t, body["report_url"], "reports/cust-1_")

	rec, _ = do(t, r, http.MethodPost, "/v1/reports", `{"customer_id":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = do(t, r, http.MethodPost, "/v1/graph", `{"wallet_address":"0xabc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["nodes"], 1)
	assert.Len(t, body["edges"], 0)
}

func TestUpload(t *testing.T) {
	r, store := newTestRouter(t)

	payload := fmt.Sprintf(`{"file":%q,"filename":"batch"}`, base64.StdEncoding.EncodeToString([]byte(travelRuleDoc)))
	rec, body := do(t, r, http.MethodPost, "/v1/uploads", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "batch.xml", body["filename"])

	w, err := store.WalletByAddress(context.Background(), "0x77")
	require.NoError(t, err)
	assert.Equal(t, "cust-77", w.CustomerID)

	rec, _ = do(t, r, http.MethodPost, "/v1/uploads", `{"file":"","filename":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(apperr.Validation("x")))
	assert.Equal(t, http.StatusNotFound, StatusOf(apperr.NotFound("wallet", "0x1")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(apperr.Transient("db", context.DeadlineExceeded)))
}
