package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humanda/askfin/internal/app"
	"github.com/humanda/askfin/internal/common"
	"github.com/humanda/askfin/internal/models"
)

type stubAnalysis struct {
	lastIntent *models.Intent
	lastPage   int
	result     *models.AnalysisResult
}

func (s *stubAnalysis) Analyze(ctx context.Context, intent *models.Intent, page int) *models.AnalysisResult {
	s.lastIntent = intent
	s.lastPage = page
	if s.result != nil {
		return s.result
	}
	return &models.AnalysisResult{Status: models.StatusOK, Subject: "market"}
}

func newTestServer(stub *stubAnalysis) *Server {
	a := &app.App{
		Config:   common.NewDefaultConfig(),
		Logger:   common.NewSilentLogger(),
		Analysis: stub,
	}
	return NewServer(a)
}

func TestHandleAnalyze(t *testing.T) {
	stub := &stubAnalysis{}
	srv := newTestServer(stub)

	body := `{"intent": {"kind": "stock_analysis", "period": "지난 3년간", "target": "반도체 관련주", "action": "오른"}, "page": 2}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.AnalysisResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, models.StatusOK, result.Status)

	require.NotNil(t, stub.lastIntent)
	assert.Equal(t, models.KindStockAnalysis, stub.lastIntent.Kind)
	assert.Equal(t, []string{"반도체 관련주"}, []string(stub.lastIntent.Target))
	assert.Equal(t, 2, stub.lastPage)
}

func TestHandleAnalyzeTargetList(t *testing.T) {
	stub := &stubAnalysis{}
	srv := newTestServer(stub)

	body := `{"intent": {"kind": "comparison_analysis", "target": ["반도체", "2차전지"]}}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, stub.lastIntent.Target, 2)
}

func TestHandleAnalyzeErrorEnvelopeIsHTTP200(t *testing.T) {
	stub := &stubAnalysis{result: &models.AnalysisResult{
		Status:  models.StatusError,
		Message: "데이터를 가져오지 못해 분석할 수 없습니다.",
	}}
	srv := newTestServer(stub)

	body := `{"intent": {"kind": "stock_analysis"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.AnalysisResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, models.StatusError, result.Status)
	assert.NotEmpty(t, result.Message)
}

func TestHandleAnalyzeMissingKind(t *testing.T) {
	srv := newTestServer(&stubAnalysis{})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"intent": {}}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAnalyzeInvalidJSON(t *testing.T) {
	srv := newTestServer(&stubAnalysis{})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAnalyzeMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&stubAnalysis{})

	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(&stubAnalysis{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHandleVersion(t *testing.T) {
	srv := newTestServer(&stubAnalysis{})

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var info map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Contains(t, info, "version")
}
