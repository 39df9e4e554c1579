package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"shortly/internal/service"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

type QRCodeController struct {
	urlService service.URLService
}

func NewQRCodeController(urlService service.URLService) *QRCodeController {
	return &QRCodeController{
		urlService: urlService,
	}
}

// GenerateQRCode handles GET /api/v1/qrcode/:shortCode - returns a PNG QR
// code of the short URL (?size= in pixels, default 256)
func (qc *QRCodeController) GenerateQRCode(c *gin.Context) {
	shortCode := c.Param("shortCode")

	size := defaultQRSize
	if sizeStr := c.Query("size"); sizeStr != "" {
		parsed, err := strconv.Atoi(sizeStr)
		if err != nil || parsed < minQRSize || parsed > maxQRSize {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "size must be between 64 and 1024",
			})
			return
		}
		size = parsed
	}

	// Reading stats confirms the code exists without recording a click
	stats, err := qc.urlService.LinkStats(c.Request.Context(), shortCode, 1)
	if err != nil {
		respondError(c, err)
		return
	}

	pngData, err := qrcode.Encode(stats.ShortURL, qrcode.Medium, size)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename=qrcode.png")
	c.Data(http.StatusOK, "image/png", pngData)
}
