package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/config"
	"bitbucket.org/mmdatafocus/quotes_backend/models"
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"bitbucket.org/mmdatafocus/quotes_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondList(c *gin.Context, data any, page models.PageRequest, total int64) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       data,
		"pagination": models.NewPagination(page, total),
	})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case utils.IsValidationError(err), utils.IsConflictError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {success:false, error}. Server errors are attached to
// the gin context so the error logger middleware records them.
func respondError(c *gin.Context, resource string, err error) {
	status := statusFor(err)
	message := err.Error()
	switch status {
	case http.StatusNotFound:
		message = resource + " not found"
	case http.StatusInternalServerError:
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"success": false, "error": message})
}

// bindJSON binds the body and runs binding tags; false means a 400 was written.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var vErr *utils.ValidationError
		message := utils.BindingErrorMessage(err)
		if errors.As(err, &vErr) {
			message = vErr.Message
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": message})
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func pageRequest(c *gin.Context) models.PageRequest {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return models.NewPageRequest(page, limit)
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, utils.NewValidationError("%s must be a positive integer", key)
	}
	return n, nil
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, utils.NewValidationError("%s must be true or false", key)
	}
	return &b, nil
}

func queryDate(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(raw, config.AppLocation())
	if err != nil {
		return nil, utils.NewValidationError("%s: %s", key, err.Error())
	}
	return &t, nil
}

// queryDateEnd reads an inclusive "to" day and returns the start of the next day.
func queryDateEnd(c *gin.Context, key string) (*time.Time, error) {
	t, err := queryDate(c, key)
	if err != nil || t == nil {
		return t, err
	}
	_, end := utils.DayBounds(*t, config.AppLocation())
	return &end, nil
}

// logSecondary records best-effort writes that failed behind a successful response.
func logSecondary(c *gin.Context, logger logrus.FieldLogger, resource string, id int, outcome workflow.SecondaryOutcome) {
	if outcome.OK() {
		return
	}
	entry := logger.WithFields(logrus.Fields{
		"resource": resource,
		"id":       id,
		"path":     c.FullPath(),
	})
	if cid, ok := utils.GetCorrelationIdFromContext(c.Request.Context()); ok {
		entry = entry.WithField("correlation_id", cid)
	}
	entry.WithError(outcome.Err()).Warn("request succeeded with partial failure")
}
