package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"riskScope/internal/apperr"
	"riskScope/internal/ingest"
	"riskScope/internal/service"
)

type Handler struct {
	svc      *service.Service
	uploader *ingest.Uploader
	logger   *zap.Logger
}

type enrichRequest struct {
	WalletAddress string                     `json:"wallet_address"`
	Profile       string                     `json:"customer_profile"`
	Balances      map[string]decimal.Decimal `json:"wallet_balances"`
}

type graphRequest struct {
	WalletAddress string `json:"wallet_address"`
}

type uploadRequest struct {
	File     string `json:"file"`
	Filename string `json:"filename"`
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.svc.Health(c.Request.Context()); err != nil {
		h.logger.Warn("health check", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Search(c *gin.Context) {
	var req service.SearchRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.svc.Search(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Enrich(c *gin.Context) {
	var req enrichRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.svc.EnrichWallet(c.Request.Context(), req.WalletAddress, req.Profile, req.Balances)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Customers(c *gin.Context) {
	customers, err := h.svc.ListCustomers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers, "count": len(customers)})
}

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) Report(c *gin.Context) {
	var req service.ReportRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.svc.Report(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Graph(c *gin.Context) {
	var req graphRequest
	if !h.bind(c, &req) {
		return
	}
	g, err := h.svc.Graph(c.Request.Context(), req.WalletAddress)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) Upload(c *gin.Context) {
	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads are not configured"})
		return
	}
	var req uploadRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.uploader.Upload(c.Request.Context(), req.File, req.Filename)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusOf maps an error onto the HTTP status it is reported with.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
