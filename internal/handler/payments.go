package handler

import (
	"net/http"

	"recantoverde/internal/apierror"
	"recantoverde/internal/dto"
	"recantoverde/internal/middleware"
	"recantoverde/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentsHandler struct{ svc service.PaymentService }

func NewPaymentsHandler(svc service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{svc: svc}
}

// PayFull godoc
// @Summary Settles selected orders in full with a single method
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PayFullRequest true "Selection and method"
// @Success 200 {object} dto.PaymentResult
// @Failure 409 {object} apierror.APIError
// @Router /v1/payments/full [post]
func (h *PaymentsHandler) PayFull(c *gin.Context) {
	var req dto.PayFullRequest
	if !bindAndValidate(c, &req) {
		return
	}
	recordedBy, ok := recordedBy(c)
	if !ok {
		return
	}
	resp, err := h.svc.PayFull(c.Request.Context(), &req, recordedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PaySplit godoc
// @Summary Settles selected orders split across payers
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PaySplitRequest true "Selection, strategy and payers"
// @Success 200 {object} dto.PaymentResult
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/payments/split [post]
func (h *PaymentsHandler) PaySplit(c *gin.Context) {
	var req dto.PaySplitRequest
	if !bindAndValidate(c, &req) {
		return
	}
	recordedBy, ok := recordedBy(c)
	if !ok {
		return
	}
	resp, err := h.svc.PaySplit(c.Request.Context(), &req, recordedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PreviewSplit validates and computes a split without applying it.
func (h *PaymentsHandler) PreviewSplit(c *gin.Context) {
	var req dto.PaySplitRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.PreviewSplit(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func recordedBy(c *gin.Context) (uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid user id in token"))
		return uuid.Nil, false
	}
	return id, true
}
