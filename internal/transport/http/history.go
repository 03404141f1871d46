package httptransport

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sleepvoice-server-go/internal/domain/eventbus/repository"
	"sleepvoice-server-go/internal/platform/errors"
)

const (
	defaultHistoryLimit = 20
	defaultStatsWindow  = 24 * time.Hour
)

// HistoryReader is the slice of the dispatch journal the API reads.
type HistoryReader interface {
	FindByDevice(ctx context.Context, deviceID string, limit int) ([]repository.Entry, error)
	HandlerStats(ctx context.Context, since time.Time) (map[string]int64, error)
}

// HandlerStats is the body of GET /api/v1/history/stats.
type HandlerStats struct {
	Since  time.Time        `json:"since"`
	Counts map[string]int64 `json:"counts"`
}

// HistoryAPI lists the caller's recent dispatches.
type HistoryAPI struct {
	journal HistoryReader
}

func NewHistoryAPI(journal HistoryReader) *HistoryAPI {
	return &HistoryAPI{journal: journal}
}

func (h *HistoryAPI) Register(secured *gin.RouterGroup) {
	secured.GET("/v1/history", h.handle)
	secured.GET("/v1/history/stats", h.handleStats)
}

// handle lists the caller's most recent dispatches, newest first.
//
// @Summary      Recent dispatches for the calling device
// @Tags         history
// @Produce      json
// @Param        limit  query     int  false  "maximum entries (default 20)"
// @Success      200    {object}  APIResponse{data=[]repository.Entry}
// @Failure      400    {object}  APIResponse
// @Failure      401    {object}  APIResponse
// @Security     DeviceToken
// @Router       /v1/history [get]
func (h *HistoryAPI) handle(c *gin.Context) {
	identity, ok := IdentityFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing device identity", gin.H{})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			RespondErr(c, errors.New(errors.KindDomain, "history.limit", "limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := h.journal.FindByDevice(c.Request.Context(), identity.DeviceID, limit)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, entries, "")
}

// handleStats counts dispatches per handler over a trailing window.
//
// @Summary      Dispatch counts per handler
// @Tags         history
// @Produce      json
// @Param        since  query     string  false  "trailing window as a Go duration (default 24h)"
// @Success      200    {object}  APIResponse{data=HandlerStats}
// @Failure      400    {object}  APIResponse
// @Failure      401    {object}  APIResponse
// @Security     DeviceToken
// @Router       /v1/history/stats [get]
func (h *HistoryAPI) handleStats(c *gin.Context) {
	if _, ok := IdentityFrom(c); !ok {
		RespondError(c, http.StatusUnauthorized, "missing device identity", gin.H{})
		return
	}

	window := defaultStatsWindow
	if raw := c.Query("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			RespondErr(c, errors.New(errors.KindDomain, "history.since", "since must be a positive duration such as 24h"))
			return
		}
		window = d
	}

	since := time.Now().Add(-window).UTC()
	counts, err := h.journal.HandlerStats(c.Request.Context(), since)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, HandlerStats{Since: since, Counts: counts}, "")
}
