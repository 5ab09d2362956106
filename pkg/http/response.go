package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler registers a group of routes on the server.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// APIResponse is the envelope of every JSON answer.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_DATETIME"`
	Field   string                 `json:"field,omitempty" example:"date"`
	Message string                 `json:"message,omitempty" example:"date must match the layout 2006-01-02"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// DataResponse writes the envelope with the given status.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// FreshResponse is SuccessResponse for values that must not be cached by clients.
func FreshResponse(c echo.Context, data interface{}) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return SuccessResponse(c, data)
}

func BadRequestResponse(c echo.Context, errs []ValidationError) error {
	return DataResponse(c, http.StatusBadRequest, errs)
}

// AppErrorResponse writes an error response; see FromError for the status mapping.
func AppErrorResponse(c echo.Context, err error) error {
	appErr := FromError(err)
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}
