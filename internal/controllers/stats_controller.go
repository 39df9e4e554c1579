package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shortly/internal/service"
)

type StatsController struct {
	urlService service.URLService
}

func NewStatsController(urlService service.URLService) *StatsController {
	return &StatsController{
		urlService: urlService,
	}
}

// Summary handles GET /api/v1/stats
func (sc *StatsController) Summary(c *gin.Context) {
	summary, err := sc.urlService.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Link handles GET /api/v1/stats/:shortCode - returns one link with its
// latest clicks (?limit=, default 10)
func (sc *StatsController) Link(c *gin.Context) {
	shortCode := c.Param("shortCode")

	limit := service.DefaultRecentClicks
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	stats, err := sc.urlService.LinkStats(c.Request.Context(), shortCode, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
