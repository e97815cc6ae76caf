package dashboard

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/bugboard/internal/bug"
	"github.com/zulandar/bugboard/internal/models"
	"github.com/zulandar/bugboard/internal/query"
)

// APIError is the body of every JSON error response.
type APIError struct {
	Code    string           `json:"code"`
	Message string           `json:"message"`
	Details []bug.FieldError `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

type commentRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

type statusRequest struct {
	Status models.Status `json:"status"`
}

// registerAPI mounts the JSON API under /api.
func registerAPI(router *gin.Engine, opts StartOpts) {
	api := router.Group("/api")
	api.GET("/bugs", apiListBugs(opts))
	api.POST("/bugs", apiCreateBug(opts))
	api.GET("/bugs/:id", apiGetBug(opts))
	api.PATCH("/bugs/:id", apiUpdateBug(opts))
	api.POST("/bugs/:id/comments", apiAppendComment(opts))
	api.POST("/bugs/:id/status", apiSetStatus(opts))
	api.GET("/stats", apiStats(opts))
	api.GET("/events", handleSSE(opts))
}

func apiListBugs(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := query.ParseParams(c.Query("q"), c.Query("status"), c.Query("priority"), c.Query("sort"))
		if err != nil {
			abortJSON(c, err)
			return
		}
		bugs, err := opts.Store.List(c.Request.Context())
		if err != nil {
			abortJSON(c, err)
			return
		}
		found, err := query.Run(bugs, p)
		if err != nil {
			abortJSON(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bugs": found, "total": len(bugs)})
	}
}

func apiGetBug(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := opts.Store.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortJSON(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func apiCreateBug(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var d bug.Draft
		if err := c.ShouldBindJSON(&d); err != nil {
			abortJSON(c, badRequest(err))
			return
		}
		b, err := opts.Store.Create(c.Request.Context(), d)
		if err != nil {
			abortJSON(c, err)
			return
		}
		opts.Logger.WithField("bug", b.ID).Info("bug created")
		c.JSON(http.StatusCreated, b)
	}
}

func apiUpdateBug(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p bug.Patch
		if err := c.ShouldBindJSON(&p); err != nil {
			abortJSON(c, badRequest(err))
			return
		}
		b, err := opts.Store.Update(c.Request.Context(), c.Param("id"), p)
		if err != nil {
			abortJSON(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func apiAppendComment(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req commentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortJSON(c, badRequest(err))
			return
		}
		cm, err := opts.Store.AppendComment(c.Request.Context(), c.Param("id"), req.Author, req.Content)
		if err != nil {
			abortJSON(c, err)
			return
		}
		c.JSON(http.StatusCreated, cm)
	}
}

func apiSetStatus(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortJSON(c, badRequest(err))
			return
		}
		b, err := opts.Store.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			abortJSON(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func apiStats(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		bugs, err := opts.Store.List(c.Request.Context())
		if err != nil {
			abortJSON(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"summary": Summarize(bugs, opts.Now()),
			"recent":  RecentBugs(bugs, RecentLimit),
		})
	}
}

// errBadRequest marks a request body that could not be decoded.
var errBadRequest = errors.New("dashboard: malformed request body")

func badRequest(err error) error { return fmt.Errorf("%w: %w", errBadRequest, err) }

// abortJSON writes the error envelope for err and stops the handler chain.
func abortJSON(c *gin.Context, err error) {
	status, apiErr := mapError(err)
	c.Error(err)
	c.AbortWithStatusJSON(status, errorEnvelope{Error: apiErr})
}

func mapError(err error) (int, APIError) {
	var verr *bug.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, APIError{
			Code:    "validation_error",
			Message: "Validation failed",
			Details: verr.Fields,
		}
	case errors.Is(err, bug.ErrNotFound):
		return http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		}
	case errors.Is(err, query.ErrUnknownParam):
		return http.StatusBadRequest, APIError{
			Code:    "invalid_query",
			Message: err.Error(),
		}
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, APIError{
			Code:    "invalid_input",
			Message: "The request body is invalid",
		}
	default:
		return http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "An unexpected error occurred",
		}
	}
}
