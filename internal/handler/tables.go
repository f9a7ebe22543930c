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

type TablesHandler struct {
	svc    service.TableService
	orders service.OrderService
}

func NewTablesHandler(svc service.TableService, orders service.OrderService) *TablesHandler {
	return &TablesHandler{svc: svc, orders: orders}
}

func (h *TablesHandler) Create(c *gin.Context) {
	var req dto.CreateTableRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *TablesHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TablesHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Occupy godoc
// @Summary Seats clients at an available table
// @Tags tables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Table ID"
// @Param body body dto.OccupyTableRequest true "Client count"
// @Success 200 {object} dto.TableResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/tables/{id}/occupy [post]
func (h *TablesHandler) Occupy(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.OccupyTableRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	serverID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid user id in token"))
		return
	}
	resp, err := h.svc.Occupy(c.Request.Context(), id, req.ClientCount, serverID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TablesHandler) AddClients(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.AddClientsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddClients(c.Request.Context(), id, req.Count)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Release godoc
// @Summary Frees a table with no open orders
// @Tags tables
// @Produce json
// @Security BearerAuth
// @Param id path string true "Table ID"
// @Success 200 {object} dto.TableResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/tables/{id}/release [post]
func (h *TablesHandler) Release(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.Release(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Orders lists the open orders currently attached to a table.
func (h *TablesHandler) Orders(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	orders, err := h.svc.OpenOrders(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.OrderResponse, len(orders))
	for i := range orders {
		full, err := h.orders.Get(c.Request.Context(), orders[i].ID)
		if err != nil {
			respondError(c, err)
			return
		}
		resp[i] = *full
	}
	c.JSON(http.StatusOK, resp)
}
