package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"veritas/domain/core"
	"veritas/domain/evaluation"
	"veritas/domain/model"
	"veritas/internal"
	apperrors "veritas/internal/errors"
	"veritas/ports"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const runID = core.RunID("01926b8e-7ad2-7c3e-9a4b-3f1c2d5e6f70")

type mockResultRepository struct {
	mock.Mock
}

func (m *mockResultRepository) SaveRun(ctx context.Context, run *ports.RunRecord) error {
	return m.Called(ctx, run).Error(0)
}

func (m *mockResultRepository) GetRun(ctx context.Context, id core.RunID) (*ports.RunRecord, error) {
	args := m.Called(ctx, id)
	run, _ := args.Get(0).(*ports.RunRecord)
	return run, args.Error(1)
}

func (m *mockResultRepository) ListRuns(ctx context.Context, limit, offset int) ([]ports.RunSummary, error) {
	args := m.Called(ctx, limit, offset)
	runs, _ := args.Get(0).([]ports.RunSummary)
	return runs, args.Error(1)
}

func (m *mockResultRepository) ListRows(ctx context.Context, id core.RunID) ([]evaluation.ResultRow, error) {
	args := m.Called(ctx, id)
	rows, _ := args.Get(0).([]evaluation.ResultRow)
	return rows, args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, repo ports.ResultRepository, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(repo, internal.NewNopLogger())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func sampleRun() *ports.RunRecord {
	return &ports.RunRecord{
		ID:     runID,
		Family: model.KindLogistic,
		Table: &evaluation.ResultTable{
			Family: model.KindLogistic,
			Rounds: 1,
			Rows: []evaluation.ResultRow{
				{Family: model.KindLogistic, Hybrid: true, Round: 1, Accuracy: 0.7, N: 50},
				{Family: model.KindLogistic, Hybrid: false, Round: 1, Accuracy: 0.6, N: 50},
			},
		},
	}
}

func TestHealthz(t *testing.T) {
	w := serve(t, new(mockResultRepository), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListRuns(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		limit    int
		offset   int
		wantCode int
	}{
		{name: "defaults", query: "", limit: 50, offset: 0, wantCode: http.StatusOK},
		{name: "paged", query: "?limit=5&offset=10", limit: 5, offset: 10, wantCode: http.StatusOK},
		{name: "bad limit", query: "?limit=abc", wantCode: http.StatusBadRequest},
		{name: "negative offset", query: "?offset=-1", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockResultRepository)
			if tt.wantCode == http.StatusOK {
				repo.On("ListRuns", mock.Anything, tt.limit, tt.offset).
					Return([]ports.RunSummary{{ID: runID, Family: model.KindLogistic, ConfiguredRounds: 10, EffectiveN: 10}}, nil)
			}

			w := serve(t, repo, "/api/runs"+tt.query)
			assert.Equal(t, tt.wantCode, w.Code)
			repo.AssertExpectations(t)

			if tt.wantCode == http.StatusOK {
				var body struct {
					Runs []ports.RunSummary `json:"runs"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				require.Len(t, body.Runs, 1)
				assert.Equal(t, runID, body.Runs[0].ID)
			}
		})
	}
}

func TestListRuns_EmptyIsArray(t *testing.T) {
	repo := new(mockResultRepository)
	repo.On("ListRuns", mock.Anything, 50, 0).Return(nil, nil)

	w := serve(t, repo, "/api/runs")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"runs":[]`)
}

func TestGetRun(t *testing.T) {
	repo := new(mockResultRepository)
	repo.On("GetRun", mock.Anything, runID).Return(sampleRun(), nil)

	w := serve(t, repo, "/api/runs/"+runID.String())
	require.Equal(t, http.StatusOK, w.Code)

	var got ports.RunRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, runID, got.ID)
	assert.Len(t, got.Table.Rows, 2)
}

func TestGetRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		err      error
		wantCode int
		wantBody string
	}{
		{name: "invalid id", id: "not-a-uuid", wantCode: http.StatusBadRequest, wantBody: apperrors.CodeInvalidInput},
		{name: "not found", id: runID.String(), err: fmt.Errorf("%w: %s", core.ErrRunNotFound, runID), wantCode: http.StatusNotFound, wantBody: apperrors.CodeNotFound},
		{name: "database", id: runID.String(), err: apperrors.DatabaseError("failed to get run", errors.New("boom")), wantCode: http.StatusInternalServerError, wantBody: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockResultRepository)
			if tt.err != nil {
				repo.On("GetRun", mock.Anything, core.RunID(tt.id)).Return(nil, tt.err)
			}

			w := serve(t, repo, "/api/runs/"+tt.id)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotContains(t, w.Body.String(), "boom")
			repo.AssertExpectations(t)
		})
	}
}

func TestListRows(t *testing.T) {
	repo := new(mockResultRepository)
	repo.On("ListRows", mock.Anything, runID).Return(sampleRun().Table.Rows, nil)

	w := serve(t, repo, "/api/runs/"+runID.String()+"/rows")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Rows []evaluation.ResultRow `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Rows, 2)
	repo.AssertNotCalled(t, "GetRun", mock.Anything, mock.Anything)
}

func TestListRows_MissingRun(t *testing.T) {
	repo := new(mockResultRepository)
	repo.On("ListRows", mock.Anything, runID).Return(nil, nil)
	repo.On("GetRun", mock.Anything, runID).Return(nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID))

	w := serve(t, repo, "/api/runs/"+runID.String()+"/rows")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetReport(t *testing.T) {
	repo := new(mockResultRepository)
	repo.On("GetRun", mock.Anything, runID).Return(sampleRun(), nil)

	w := serve(t, repo, "/api/runs/"+runID.String()+"/report")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<title>Evaluation report: logistic_regression</title>")
	assert.Contains(t, w.Body.String(), runID.String())
}
