package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/salescommission/internal/authorization"
	commissiondomain "github.com/smallbiznis/salescommission/internal/commission/domain"
	"github.com/smallbiznis/salescommission/internal/commission/export"
	"github.com/smallbiznis/salescommission/internal/observability"
	productdomain "github.com/smallbiznis/salescommission/internal/product/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type authzStub struct {
	denied map[string]bool
}

func (a authzStub) Authorize(_ context.Context, actor, object, action string) error {
	if actor == "" {
		return authorization.ErrInvalidActor
	}
	if a.denied[action] {
		return authorization.ErrForbidden
	}
	return nil
}

type commissionSvcMock struct {
	mock.Mock
}

func (m *commissionSvcMock) RunCommissionSync(ctx context.Context) commissiondomain.SyncResult {
	return m.Called().Get(0).(commissiondomain.SyncResult)
}

func (m *commissionSvcMock) GetCommissionReport(ctx context.Context, req commissiondomain.ReportRequest) ([]commissiondomain.ReportRow, error) {
	args := m.Called(req)
	rows, _ := args.Get(0).([]commissiondomain.ReportRow)
	return rows, args.Error(1)
}

func (m *commissionSvcMock) BuildReport(ctx context.Context, req commissiondomain.ReportRequest) (*commissiondomain.Report, error) {
	args := m.Called(req)
	rep, _ := args.Get(0).(*commissiondomain.Report)
	return rep, args.Error(1)
}

func (m *commissionSvcMock) ListRecords(ctx context.Context, req commissiondomain.ListRequest) (*commissiondomain.ListResponse, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*commissiondomain.ListResponse)
	return resp, args.Error(1)
}

func (m *commissionSvcMock) ListSyncRuns(ctx context.Context, limit int) ([]commissiondomain.SyncRunResponse, error) {
	args := m.Called(limit)
	runs, _ := args.Get(0).([]commissiondomain.SyncRunResponse)
	return runs, args.Error(1)
}

func (m *commissionSvcMock) Diagnostics(ctx context.Context, req commissiondomain.DiagnosticsRequest) (*commissiondomain.Diagnostics, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*commissiondomain.Diagnostics)
	return resp, args.Error(1)
}

type exportSvcMock struct {
	mock.Mock
}

func (m *exportSvcMock) XLSX(ctx context.Context, req commissiondomain.ReportRequest) (*export.File, error) {
	args := m.Called(req)
	file, _ := args.Get(0).(*export.File)
	return file, args.Error(1)
}

func (m *exportSvcMock) PDF(ctx context.Context, req commissiondomain.ReportRequest) (*export.File, error) {
	args := m.Called(req)
	file, _ := args.Get(0).(*export.File)
	return file, args.Error(1)
}

type productSvcMock struct {
	mock.Mock
}

func (m *productSvcMock) Create(ctx context.Context, req productdomain.CreateRequest) (*productdomain.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*productdomain.Response)
	return resp, args.Error(1)
}

func (m *productSvcMock) List(ctx context.Context, req productdomain.ListRequest) ([]productdomain.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).([]productdomain.Response)
	return resp, args.Error(1)
}

func (m *productSvcMock) Get(ctx context.Context, id string) (*productdomain.Response, error) {
	args := m.Called(id)
	resp, _ := args.Get(0).(*productdomain.Response)
	return resp, args.Error(1)
}

func (m *productSvcMock) SetCommissionRate(ctx context.Context, req productdomain.SetCommissionRateRequest) (*productdomain.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*productdomain.Response)
	return resp, args.Error(1)
}

type testServer struct {
	engine     *gin.Engine
	commission *commissionSvcMock
	export     *exportSvcMock
	product    *productSvcMock
}

func newTestServer(t *testing.T, denied ...string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	deniedSet := map[string]bool{}
	for _, action := range denied {
		deniedSet[action] = true
	}

	ts := &testServer{
		engine:     NewEngine(observability.Config{}, nil),
		commission: &commissionSvcMock{},
		export:     &exportSvcMock{},
		product:    &productSvcMock{},
	}
	NewServer(ServerParams{
		Gin:           ts.engine,
		AuthzSvc:      authzStub{denied: deniedSet},
		CommissionSvc: ts.commission,
		ExportSvc:     ts.export,
		ProductSvc:    ts.product,
	})
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set(HeaderActor, "user:1")
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthIsPublic(t *testing.T) {
	ts := newTestServer(t)
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresActor(t *testing.T) {
	ts := newTestServer(t)
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/commission/report", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Type)
}

func TestForbiddenAction(t *testing.T) {
	ts := newTestServer(t, authorization.ActionCommissionSyncRun)
	rec := ts.do(http.MethodPost, "/api/commission/sync", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	ts.commission.AssertNotCalled(t, "RunCommissionSync")
}

func TestRunCommissionSync(t *testing.T) {
	ts := newTestServer(t)
	ts.commission.On("RunCommissionSync").Return(commissiondomain.SyncResult{
		Success: true, Detail: "3 commission lines", Created: 3, Total: 3,
	}).Once()

	rec := ts.do(http.MethodPost, "/api/commission/sync", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data commissiondomain.SyncResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Success)
	assert.Equal(t, int64(3), body.Data.Total)
}

func TestRunCommissionSyncFailureReturns500WithResult(t *testing.T) {
	ts := newTestServer(t)
	ts.commission.On("RunCommissionSync").Return(commissiondomain.SyncResult{
		Success: false, Detail: "sync already running",
	}).Once()

	rec := ts.do(http.MethodPost, "/api/commission/sync", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "sync already running")
}

func TestGetCommissionReportParsesQuery(t *testing.T) {
	ts := newTestServer(t)
	want := commissiondomain.ReportRequest{
		DateFrom:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DateTo:         time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		StatusFilter:   commissiondomain.StatusAll,
		SalespersonIDs: []int64{7, 8},
	}
	ts.commission.On("GetCommissionReport", want).Return([]commissiondomain.ReportRow{{
		SalespersonID:   7,
		SalespersonName: "John",
		TotalSales:      decimal.NewFromInt(4500),
		TotalCommission: decimal.NewFromInt(450),
	}}, nil).Once()

	rec := ts.do(http.MethodGet, "/api/commission/report?date_from=2024-01-01&date_to=2024-01-31&status=all&salesperson_id=7,8", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"salesperson_name":"John"`)
	ts.commission.AssertExpectations(t)
}

func TestReportErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		err    error
		status int
		kind   string
	}{
		{"inverted range", "?date_from=2024-02-01&date_to=2024-01-01", commissiondomain.ErrInvalidDateRange, http.StatusBadRequest, "validation_error"},
		{"no data", "", commissiondomain.ErrNoData, http.StatusNotFound, "no_data"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.commission.On("GetCommissionReport", mock.Anything).Return(nil, tc.err).Once()

			rec := ts.do(http.MethodGet, "/api/commission/report"+tc.query, "")
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.kind, decodeError(t, rec).Type)
		})
	}
}

func TestReportRejectsUnknownStatus(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/api/commission/report?status=overdue", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_status_filter", payload.Errors[0].Code)
}

func TestExportXLSXDownload(t *testing.T) {
	ts := newTestServer(t)
	ts.export.On("XLSX", mock.Anything).Return(&export.File{
		Name:        "commission-report-2024-01-01-2024-01-31.xlsx",
		ContentType: export.ContentTypeXLSX,
		Body:        []byte("xlsx-bytes"),
		ArchiveKey:  "commission-reports/2024/commission-report-2024-01-01-2024-01-31.xlsx",
	}, nil).Once()

	rec := ts.do(http.MethodGet, "/api/commission/report/xlsx?date_from=2024-01-01&date_to=2024-01-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "commission-report-2024-01-01-2024-01-31.xlsx")
	assert.Equal(t, "commission-reports/2024/commission-report-2024-01-01-2024-01-31.xlsx", rec.Header().Get(HeaderArchiveKey))
	assert.Equal(t, "xlsx-bytes", rec.Body.String())
}

func TestExportPDFUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.export.On("PDF", mock.Anything).Return(nil, commissiondomain.ErrExportUnavailable).Once()

	rec := ts.do(http.MethodGet, "/api/commission/report/pdf", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "export_unavailable", decodeError(t, rec).Type)
}

func TestListCommissionLines(t *testing.T) {
	ts := newTestServer(t)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts.commission.On("ListRecords", commissiondomain.ListRequest{
		SalespersonID: 5,
		DateFrom:      &from,
		PageSize:      2,
		PageToken:     "abc",
	}).Return(&commissiondomain.ListResponse{HasMore: true, NextPageToken: "next"}, nil).Once()

	rec := ts.do(http.MethodGet, "/api/commission/lines?salesperson_id=5&date_from=2024-01-01&page_size=2&page_token=abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"next_page_token":"next"`)
}

func TestListSyncRunsRejectsBadLimit(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/api/commission/sync-runs?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.commission.On("ListSyncRuns", 5).Return([]commissiondomain.SyncRunResponse{{RunID: "r1"}}, nil).Once()
	rec = ts.do(http.MethodGet, "/api/commission/sync-runs?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"r1"`)
}

func TestSetProductCommissionRate(t *testing.T) {
	ts := newTestServer(t)
	ts.product.On("SetCommissionRate", productdomain.SetCommissionRateRequest{ProductID: "42", CommissionRate: "12.5"}).
		Return(&productdomain.Response{ID: "42", CommissionRate: "12.50"}, nil).Once()

	rec := ts.do(http.MethodPut, "/api/products/42/commission-rate", `{"commission_rate": 12.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"commission_rate":"12.50"`)
}

func TestSetProductCommissionRateNamesRejectedValue(t *testing.T) {
	ts := newTestServer(t)
	ts.product.On("SetCommissionRate", productdomain.SetCommissionRateRequest{ProductID: "42", CommissionRate: "150"}).
		Return(nil, productdomain.InvalidCommissionRateError("150")).Once()

	rec := ts.do(http.MethodPut, "/api/products/42/commission-rate", `{"commission_rate": "150"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_commission_rate", payload.Errors[0].Code)
	assert.Contains(t, payload.Errors[0].Message, `"150"`)
}

func TestSetProductCommissionRateRequiresValue(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodPut, "/api/products/42/commission-rate", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.product.AssertNotCalled(t, "SetCommissionRate", mock.Anything)
}

func TestGetUnknownProduct(t *testing.T) {
	ts := newTestServer(t)
	ts.product.On("Get", "99").Return(nil, productdomain.ErrNotFound).Once()

	rec := ts.do(http.MethodGet, "/api/products/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestParseActorHeader(t *testing.T) {
	id, ok := parseActorHeader("user:42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id.Int64())

	id, ok = parseActorHeader(" 7 ")
	assert.True(t, ok)
	assert.Equal(t, int64(7), id.Int64())

	for _, bad := range []string{"", "user:", "user:abc", "-1"} {
		_, ok := parseActorHeader(bad)
		assert.False(t, ok, bad)
	}
}
