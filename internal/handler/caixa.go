package handler

import (
	"net/http"
	"strconv"
	"time"

	"recantoverde/internal/apierror"
	"recantoverde/internal/dto"
	"recantoverde/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CaixaHandler struct{ svc service.CaixaService }

func NewCaixaHandler(svc service.CaixaService) *CaixaHandler { return &CaixaHandler{svc: svc} }

// Open godoc
// @Summary Opens a new caixa session
// @Tags caixa
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenCaixaRequest true "Opening balance"
// @Success 201 {object} dto.CaixaSessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/caixa/open [post]
func (h *CaixaHandler) Open(c *gin.Context) {
	var req dto.OpenCaixaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	userID, ok := recordedBy(c)
	if !ok {
		return
	}
	resp, err := h.svc.Apply(c.Request.Context(), service.OpenCommand{
		OpeningBalance: req.OpeningBalance,
		OpenedBy:       userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Reconciles the counted balance and closes the session
// @Tags caixa
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseCaixaRequest true "Counted balance"
// @Success 200 {object} dto.CaixaSessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/caixa/close [post]
func (h *CaixaHandler) Close(c *gin.Context) {
	var req dto.CloseCaixaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	userID, ok := recordedBy(c)
	if !ok {
		return
	}
	resp, err := h.svc.Apply(c.Request.Context(), service.CloseCommand{
		CountedBalance: req.CountedBalance,
		ClosedBy:       userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Sangria registers a manual cash withdrawal from the open drawer.
func (h *CaixaHandler) Sangria(c *gin.Context) {
	var req dto.CaixaMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Apply(c.Request.Context(), service.SangriaCommand{
		Amount: req.Amount,
		Reason: req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reforco registers a manual cash reinforcement into the open drawer.
func (h *CaixaHandler) Reforco(c *gin.Context) {
	var req dto.CaixaMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Apply(c.Request.Context(), service.ReforcoCommand{
		Amount: req.Amount,
		Reason: req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Current returns the open session with its running aggregates.
func (h *CaixaHandler) Current(c *gin.Context) {
	resp, err := h.svc.Current(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Report godoc
// @Summary Returns the full report of one caixa session
// @Tags caixa
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.CaixaSessionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/caixa/{id}/report [get]
func (h *CaixaHandler) Report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.Report(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History returns a paginated list of closed sessions.
func (h *CaixaHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	resp, err := h.svc.History(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary aggregates closed sessions over a date range:
// ?from=2026-08-01&to=2026-08-31 (to is inclusive, whole days).
func (h *CaixaHandler) Summary(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid or missing from date (YYYY-MM-DD)"))
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid or missing to date (YYYY-MM-DD)"))
		return
	}
	resp, err := h.svc.RangeSummary(c.Request.Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
