package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shutterhub/api/internal/fetch"
)

func (h HandlerSet) DashboardLeads(c *gin.Context) {
	listEndpoint(h, c, "leads", h.dashboards.ListLeads)
}

func (h HandlerSet) DashboardBookings(c *gin.Context) {
	listEndpoint(h, c, "bookings", h.dashboards.ListBookings)
}

func (h HandlerSet) DashboardReviews(c *gin.Context) {
	listEndpoint(h, c, "reviews", h.dashboards.ListReviews)
}

func listEndpoint[T any](h HandlerSet, c *gin.Context, key string, list func(ctx context.Context, partnerID string, limit int) ([]T, error)) {
	partner := currentPartner(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	fetcher := fetch.New(
		func() bool { return partner.ID != "" },
		func(ctx context.Context) ([]T, error) {
			return list(ctx, partner.ID, limit)
		},
	)
	fetcher.Load(c.Request.Context())

	state := fetcher.Snapshot()
	if state.Err != "" {
		h.log.Error().Str("error", state.Err).Str("partner_id", partner.ID).Str("list", key).Msg("dashboard list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	data := state.Data
	if data == nil {
		data = []T{}
	}
	c.JSON(http.StatusOK, gin.H{key: data})
}
