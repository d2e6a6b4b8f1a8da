// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.



package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/newsdigest/core"
	"github.com/poiesic/newsdigest/pipeline"
	"github.com/poiesic/newsdigest/search"
	"github.com/poiesic/newsdigest/storage"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Runner executes pipeline runs. *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, opts pipeline.RunOptions) (*pipeline.RunResult, error)
}

// Searcher finds stored items by meaning. *search.Searcher satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error)
}

// ItemReader is the read side of the item store.
type ItemReader interface {
	GetItem(ctx context.Context, id string) (*core.EnrichedItem, error)
	RecentItems(ctx context.Context, query storage.ItemQuery) ([]*core.EnrichedItem, error)
	CountItems(ctx context.Context) (int, error)
}

var (
	_ Runner     = (*pipeline.Orchestrator)(nil)
	_ Searcher   = (*search.Searcher)(nil)
	_ ItemReader = (storage.ItemRepository)(nil)
)

// Handlers holds the dependencies of every route.
type Handlers struct {
	runner   Runner
	items    ItemReader
	searcher Searcher
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandlers creates route handlers. A nil searcher disables /search and a
// nil runner disables /run; both then answer 503.
func NewHandlers(runner Runner, items ItemReader, searcher Searcher, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		runner:   runner,
		items:    items,
		searcher: searcher,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NewRouter constructs a gin engine with every route registered.
func NewRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	RegisterHealthRoutes(r, h)
	RegisterPipelineRoutes(r, h)
	RegisterItemRoutes(r, h)
	RegisterSearchRoutes(r, h)
	return r
}

// RegisterHealthRoutes registers / and /health.
func RegisterHealthRoutes(r gin.IRoutes, h *Handlers) {
	r.GET("/", h.handleRoot)
	r.GET("/health", h.handleHealth)
}

// RegisterPipelineRoutes registers the run trigger.
func RegisterPipelineRoutes(r gin.IRoutes, h *Handlers) {
	r.POST("/run", h.handleRun)
}

// RegisterItemRoutes registers item and vocabulary lookups.
func RegisterItemRoutes(r gin.IRoutes, h *Handlers) {
	r.GET("/items", h.handleListItems)
	r.GET("/items/:id", h.handleGetItem)
	r.GET("/topics", h.handleTopics)
	r.GET("/article-types", h.handleArticleTypes)
}

// RegisterSearchRoutes registers semantic search.
func RegisterSearchRoutes(r gin.IRoutes, h *Handlers) {
	r.GET("/search", h.handleSearch)
}

// requestLogger logs one line per request after it completes.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP())
	}
}
