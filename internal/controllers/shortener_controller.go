package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"shortly/internal/models"
	"shortly/internal/service"
	"shortly/internal/validation"
)

var redirectPage = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Redirecting...</title>
</head>
<body>
<p>Redirecting to <a href="{{.Target}}">{{.Target}}</a> in {{.Seconds}} seconds...</p>
</body>
</html>
`))

type ShortenerController struct {
	urlService service.URLService
}

func NewShortenerController(urlService service.URLService) *ShortenerController {
	return &ShortenerController{
		urlService: urlService,
	}
}

// Shorten handles POST /api/v1/shorten
func (sc *ShortenerController) Shorten(c *gin.Context) {
	var req models.ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, models.ValidationErrorResponse{
				Error:  "Validation failed",
				Fields: batchSizeErrors(verrs),
			})
			return
		}

		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	response, err := sc.urlService.Shorten(c.Request.Context(), req.URLs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// Redirect handles GET /:shortCode. It records the click and serves a page
// that forwards the visitor after the configured delay.
func (sc *ShortenerController) Redirect(c *gin.Context) {
	shortCode := c.Param("shortCode")

	res, err := sc.urlService.Resolve(c.Request.Context(), shortCode, c.Request.Referer(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	seconds := int(math.Ceil(res.Delay.Seconds()))

	var page bytes.Buffer
	if err := redirectPage.Execute(&page, gin.H{"Target": res.Target, "Seconds": seconds}); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Refresh", fmt.Sprintf("%d; url=%s", seconds, res.Target))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", page.Bytes())
}

// Resolve handles GET /api/v1/resolve/:shortCode and returns the redirect
// directive as JSON. A referrer query parameter overrides the Referer header.
func (sc *ShortenerController) Resolve(c *gin.Context) {
	shortCode := c.Param("shortCode")

	referrer := c.Query("referrer")
	if referrer == "" {
		referrer = c.Request.Referer()
	}

	res, err := sc.urlService.Resolve(c.Request.Context(), shortCode, referrer, c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ResolveResponse{
		Status:    "redirect",
		Shortcode: shortCode,
		Target:    res.Target,
		DelayMS:   res.Delay.Milliseconds(),
		Clicks:    res.Link.Clicks,
	})
}

func batchSizeErrors(verrs validator.ValidationErrors) []models.FieldError {
	fields := make([]models.FieldError, 0, len(verrs))
	for range verrs {
		fields = append(fields, models.FieldError{
			Index:   -1,
			Field:   "urls",
			Code:    validation.CodeBatchSize,
			Message: fmt.Sprintf("between 1 and %d URLs must be submitted", models.MaxBatchSize),
		})
	}
	return fields
}
