package util

import (
	"errors"
	"net/http"

	"edunexus_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the uniform API envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse wraps paginated lists.
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// RespondError maps domain sentinel errors to HTTP statuses. Unknown
// errors are treated as infrastructure failures: logged and surfaced as
// 500, never masked or retried here.
func RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrCourseNotFound),
		errors.Is(err, ErrLessonNotFound),
		errors.Is(err, ErrEnrollmentNotFound),
		errors.Is(err, ErrNotificationNotFound),
		errors.Is(err, ErrUserNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrPermissionDenied):
		Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadyEnrolled),
		errors.Is(err, ErrCourseNotPublished),
		errors.Is(err, ErrEnrollmentNotActive),
		errors.Is(err, ErrInvalidRatingScore),
		errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrReviewTooLong),
		errors.Is(err, ErrCourseNotCompleted),
		errors.Is(err, ErrEmailRegistered),
		errors.Is(err, ErrUnsupportedVideoType):
		Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, err.Error())
	default:
		LogInternalError(c, err)
	}
}
