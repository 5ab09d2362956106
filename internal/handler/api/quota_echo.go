package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"StockSeq/internal/domain/models"
	xhttp "StockSeq/pkg/http"
	xlogger "StockSeq/pkg/logger"
	"StockSeq/pkg/util"
)

// QuotaReporter is the read side of the quota ledger.
type QuotaReporter interface {
	Stats(ctx context.Context) (models.QuotaStats, error)
	StatsFor(ctx context.Context, t time.Time) (models.QuotaStats, error)
}

// QuotaEchoHandler serves quota usage for operators. It never calls the provider.
type QuotaEchoHandler struct {
	logger *xlogger.Logger
	quota  QuotaReporter
}

func NewQuotaEchoHandler(logger *xlogger.Logger, quota QuotaReporter) *QuotaEchoHandler {
	return &QuotaEchoHandler{logger: logger, quota: quota}
}

func (h *QuotaEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api")
	g.GET("/quota", h.Quota)
}

// Quota returns usage for ?date=YYYY-MM-DD, today when omitted.
func (h *QuotaEchoHandler) Quota(c echo.Context) error {
	req := &models.QuotaRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	var (
		st  models.QuotaStats
		err error
	)
	if req.Date == "" {
		st, err = h.quota.Stats(ctx)
	} else {
		day, _ := time.Parse(util.DateKeyLayout, req.Date)
		st, err = h.quota.StatsFor(ctx, day)
	}
	if err != nil {
		h.logger.Error("quota stats error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.FreshResponse(c, st)
}

func (h *QuotaEchoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
