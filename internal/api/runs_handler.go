package api

import (
	"net/http"
	"strconv"

	"veritas/domain/core"
	"veritas/internal"
	"veritas/internal/errors"
	"veritas/internal/report"
	"veritas/ports"

	"github.com/gin-gonic/gin"
)

// RunsHandler serves persisted evaluation runs
type RunsHandler struct {
	repo   ports.ResultRepository
	logger *internal.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(repo ports.ResultRepository, logger *internal.Logger) *RunsHandler {
	return &RunsHandler{repo: repo, logger: logger}
}

// ListRuns returns run summaries, newest first
func (h *RunsHandler) ListRuns(c *gin.Context) {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		h.fail(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		h.fail(c, err)
		return
	}

	runs, err := h.repo.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	if runs == nil {
		runs = []ports.RunSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "limit": limit, "offset": offset})
}

// GetRun returns one run with its rows and comparison report
func (h *RunsHandler) GetRun(c *gin.Context) {
	id, ok := h.runID(c)
	if !ok {
		return
	}
	run, err := h.repo.GetRun(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// ListRows returns the result rows of one run
func (h *RunsHandler) ListRows(c *gin.Context) {
	id, ok := h.runID(c)
	if !ok {
		return
	}
	rows, err := h.repo.ListRows(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(rows) == 0 {
		// a run without rows is indistinguishable from a missing one here
		if _, err := h.repo.GetRun(c.Request.Context(), id); err != nil {
			h.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"run_id": id, "rows": rows})
}

// GetReport renders the run as an HTML report
func (h *RunsHandler) GetReport(c *gin.Context) {
	id, ok := h.runID(c)
	if !ok {
		return
	}
	run, err := h.repo.GetRun(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	header := report.Header{
		Title:       "Evaluation report: " + string(run.Family),
		RunID:       run.ID,
		Fingerprint: run.Fingerprint,
		BaseSeed:    run.BaseSeed,
	}
	md := report.Markdown(header, []report.Entry{{Table: run.Table, Comparison: run.Comparison}})
	c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(header.Title, md))
}

func (h *RunsHandler) runID(c *gin.Context) (core.RunID, bool) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		h.fail(c, errors.InvalidInput(err.Error()))
		return "", false
	}
	return id, true
}

func (h *RunsHandler) fail(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal error", "code": code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func statusFor(code string) int {
	switch code {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeConfigInvalid:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.InvalidInput(key + " must be a non-negative integer")
	}
	return v, nil
}
