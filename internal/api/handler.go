package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mcnemar/domain/core"
	"mcnemar/domain/mcnemar"
	"mcnemar/internal"
	"mcnemar/internal/analysis"
	"mcnemar/internal/report"
	"mcnemar/ports"
)

// TestHandler handles test computation and ledger requests
type TestHandler struct {
	computer *analysis.McNemarComputer
	runner   *analysis.BatchRunner
	ledger   ports.ResultLedger
	logger   *internal.Logger
}

// NewTestHandler creates a new test handler
func NewTestHandler(computer *analysis.McNemarComputer, runner *analysis.BatchRunner, ledger ports.ResultLedger) *TestHandler {
	return &TestHandler{
		computer: computer,
		runner:   runner,
		ledger:   ledger,
		logger:   internal.DefaultLogger.WithComponent("TestHandler"),
	}
}

type createTestRequest struct {
	Label string      `json:"label"`
	Table [][]float64 `json:"table"`
	Alpha *float64    `json:"alpha"`
}

type batchTableRequest struct {
	Label string      `json:"label"`
	Table [][]float64 `json:"table"`
	Alpha *float64    `json:"alpha"`
}

type batchRequest struct {
	Tables []batchTableRequest `json:"tables"`
	Alpha  *float64            `json:"alpha"`
}

// CreateTest computes a single test and records it in the ledger.
func (th *TestHandler) CreateTest(c *gin.Context) {
	var req createTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	table, err := mcnemar.NewTable(req.Table)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alpha := mcnemar.DefaultAlpha
	if req.Alpha != nil {
		alpha = *req.Alpha
	}

	result, err := th.computer.Compute(table, alpha)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record := mcnemar.NewRecord(req.Label, *result)
	if err := th.ledger.StoreResult(c.Request.Context(), record); err != nil {
		th.logger.Error("failed to store result %s: %v", record.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store result"})
		return
	}

	c.JSON(http.StatusCreated, record)
}

// RunBatch computes many tables in one request. Outcomes are returned, not
// recorded: batch runs are exploratory and the ledger holds only tests
// submitted individually.
func (th *TestHandler) RunBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Tables) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no tables supplied"})
		return
	}

	inputs := make([]analysis.BatchInput, len(req.Tables))
	for i, tr := range req.Tables {
		if len(tr.Table) != 2 || len(tr.Table[0]) != 2 || len(tr.Table[1]) != 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("table %d: must be exactly 2x2", i)})
			return
		}

		// Item alpha wins over the request-level one; zero means default.
		var alpha float64
		switch {
		case tr.Alpha != nil:
			alpha = *tr.Alpha
		case req.Alpha != nil:
			alpha = *req.Alpha
		}

		inputs[i] = analysis.BatchInput{
			Label: tr.Label,
			Table: mcnemar.TableFromCounts(tr.Table[0][0], tr.Table[0][1], tr.Table[1][0], tr.Table[1][1]),
			Alpha: alpha,
		}
	}

	items, err := th.runner.Run(c.Request.Context(), inputs)
	if err != nil {
		th.logger.Warn("batch aborted: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "batch aborted"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":   items,
		"summary": analysis.Summarize(items),
	})
}

// ListTests returns stored results, newest first.
func (th *TestHandler) ListTests(c *gin.Context) {
	filters := ports.ResultFilters{
		Label: c.Query("label"),
		Limit: 50,
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 500 {
			filters.Limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filters.Offset = o
		}
	}

	records, err := th.ledger.ListResults(c.Request.Context(), filters)
	if err != nil {
		th.logger.Error("failed to list results: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list results"})
		return
	}
	if records == nil {
		records = []mcnemar.ResultRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"results": records,
		"count":   len(records),
	})
}

// GetTest returns one stored result by ID.
func (th *TestHandler) GetTest(c *gin.Context) {
	record, ok := th.fetchRecord(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetTestReport renders one stored result as the classical three-line text
// report.
func (th *TestHandler) GetTestReport(c *gin.Context) {
	record, ok := th.fetchRecord(c)
	if !ok {
		return
	}
	c.String(http.StatusOK, report.Render(&record.Result))
}

// Health reports service liveness.
func (th *TestHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (th *TestHandler) fetchRecord(c *gin.Context) (*mcnemar.ResultRecord, bool) {
	id, err := core.ParseResultID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result ID"})
		return nil, false
	}

	record, err := th.ledger.GetResult(c.Request.Context(), id)
	if err != nil {
		if core.IsNotFoundError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
		} else {
			th.logger.Error("failed to load result %s: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load result"})
		}
		return nil, false
	}
	return record, true
}
