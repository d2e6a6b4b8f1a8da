package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/newsdigest/core"
	"github.com/poiesic/newsdigest/pipeline"
	"github.com/poiesic/newsdigest/storage"
)

const (
	defaultItemLimit   = 20
	defaultSearchLimit = 10
	maxLimit           = 100
	maxBackfillDays    = 30
)

// RunRequest is the body of POST /run. An empty body means no backfill.
type RunRequest struct {
	BackfillDays int `json:"backfill_days" binding:"min=0,max=30"`
}

// RunResponse reports the outcome of a triggered run.
type RunResponse struct {
	Status  string          `json:"status"`
	RunID   string          `json:"run_id"`
	Message string          `json:"message"`
	Stats   *pipeline.Stats `json:"stats"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  bool   `json:"database"`
	Items     int    `json:"items"`
	Timestamp string `json:"timestamp"`
}

// ItemsResponse is returned by GET /items.
type ItemsResponse struct {
	Items []pipeline.PublishedItem `json:"items"`
	Count int                      `json:"count"`
}

// SearchHit is one ranked search result.
type SearchHit struct {
	Item  pipeline.PublishedItem `json:"item"`
	Score float32                `json:"score"`
}

// SearchResponse is returned by GET /search.
type SearchResponse struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
	Count   int         `json:"count"`
}

func (h *Handlers) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "newsdigest",
		"version": Version,
	})
}

func (h *Handlers) handleHealth(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Database:  true,
		Timestamp: h.now().Format(time.RFC3339),
	}
	count, err := h.items.CountItems(c.Request.Context())
	if err != nil {
		h.logger.Warn("health check failed", "err", err)
		resp.Status = "unhealthy"
		resp.Database = false
	}
	resp.Items = count
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) handleRun(c *gin.Context) {
	if h.runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline runs are disabled"})
		return
	}

	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("backfill_days must be between 0 and %d: %v", maxBackfillDays, err)})
		return
	}

	h.logger.Info("pipeline run triggered via API", "backfill_days", req.BackfillDays)

	// A client that hangs up must not abort a half-finished run.
	ctx := context.WithoutCancel(c.Request.Context())
	result, err := h.runner.Run(ctx, pipeline.RunOptions{BackfillDays: req.BackfillDays})
	if errors.Is(err, pipeline.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		resp := RunResponse{
			Status:  string(core.RunStatusFailed),
			Message: "Pipeline failed: " + err.Error(),
		}
		if result != nil {
			resp.RunID = result.RunID
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	resp := RunResponse{
		Status: string(core.RunStatusCompleted),
		RunID:  result.RunID,
	}
	if result.Payload != nil {
		stats := result.Payload.Stats
		resp.Stats = &stats
		resp.Message = fmt.Sprintf("Pipeline completed. Processed %d items.", stats.TotalItems)
	} else {
		resp.Message = "Pipeline completed."
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) handleListItems(c *gin.Context) {
	limit, err := parseLimit(c, defaultItemLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := storage.ItemQuery{
		Topic: strings.TrimSpace(c.Query("topic")),
		Limit: limit,
	}
	if at := strings.TrimSpace(c.Query("article_type")); at != "" {
		query.ArticleType = core.ArticleType(strings.ToLower(at))
		if !core.IsKnownArticleType(query.ArticleType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown article_type %q", at)})
			return
		}
	}

	items, err := h.items.RecentItems(c.Request.Context(), query)
	if err != nil {
		h.logger.Error("failed to fetch items", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch items"})
		return
	}

	resp := ItemsResponse{Items: make([]pipeline.PublishedItem, len(items))}
	for i, item := range items {
		resp.Items[i] = pipeline.NewPublishedItem(item)
	}
	resp.Count = len(resp.Items)
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) handleGetItem(c *gin.Context) {
	id := c.Param("id")
	item, err := h.items.GetItem(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch item", "item_id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch item"})
		return
	}
	c.JSON(http.StatusOK, pipeline.NewPublishedItem(item))
}

func (h *Handlers) handleTopics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"topics": core.Topics})
}

func (h *Handlers) handleArticleTypes(c *gin.Context) {
	types := make([]string, len(core.ArticleTypes))
	for i, at := range core.ArticleTypes {
		types[i] = string(at)
	}
	c.JSON(http.StatusOK, gin.H{"article_types": types})
}

func (h *Handlers) handleSearch(c *gin.Context) {
	if h.searcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is disabled"})
		return
	}

	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	limit, err := parseLimit(c, defaultSearchLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.searcher.Search(c.Request.Context(), q, limit)
	if err != nil {
		h.logger.Error("search failed", "query", q, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	resp := SearchResponse{Query: q, Results: make([]SearchHit, 0, len(results))}
	for _, r := range results {
		resp.Results = append(resp.Results, SearchHit{
			Item:  pipeline.NewPublishedItem(r.Item),
			Score: r.Score,
		})
	}
	resp.Count = len(resp.Results)
	c.JSON(http.StatusOK, resp)
}

// parseLimit reads ?limit=, which must lie in [1, maxLimit].
func parseLimit(c *gin.Context, def int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxLimit {
		return 0, fmt.Errorf("limit must be an integer between 1 and %d", maxLimit)
	}
	return n, nil
}
