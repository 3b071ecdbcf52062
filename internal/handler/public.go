package handler

import (
	"net/http"

	"teranga/internal/dto"
	"teranga/internal/service"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves diners. Nothing here needs a staff token: the table
// token printed in the QR code and the session token returned by a scan are
// the only credentials.
type PublicHandler struct {
	tables service.TableService
	orders service.OrderService
	menu   service.MenuService
}

func NewPublicHandler(tables service.TableService, orders service.OrderService, menu service.MenuService) *PublicHandler {
	return &PublicHandler{tables: tables, orders: orders, menu: menu}
}

// Menu godoc
// @Summary Available dishes grouped by category
// @Tags public
// @Produce json
// @Success 200 {object} dto.PublicMenuResponse
// @Router /v1/public/menu [get]
func (h *PublicHandler) Menu(c *gin.Context) {
	resp, err := h.menu.PublicMenu(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Scan godoc
// @Summary Open (or join) the session of the table behind a QR code
// @Description Returns 201 when a new session was opened and 200 when the table already had one.
// @Tags public
// @Produce json
// @Param token path string true "Table token"
// @Success 200 {object} dto.OpenSessionResponse
// @Success 201 {object} dto.OpenSessionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/public/tables/{token}/session [post]
func (h *PublicHandler) Scan(c *gin.Context) {
	resp, err := h.tables.CreateTableSession(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

// Session godoc
// @Summary Look up a session by its token
// @Tags public
// @Produce json
// @Param token path string true "Session token"
// @Success 200 {object} dto.OpenSessionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/public/sessions/{token} [get]
func (h *PublicHandler) Session(c *gin.Context) {
	resp, err := h.tables.GetSessionByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SessionOrders godoc
// @Summary Orders placed in a session
// @Tags public
// @Produce json
// @Param token path string true "Session token"
// @Success 200 {array} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/public/sessions/{token}/orders [get]
func (h *PublicHandler) SessionOrders(c *gin.Context) {
	resp, err := h.orders.ListSessionOrders(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PlaceOrder godoc
// @Summary Place an order from a table session
// @Tags public
// @Accept json
// @Produce json
// @Param token path string true "Session token"
// @Param body body dto.SessionOrderRequest true "Order"
// @Success 201 {object} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/public/sessions/{token}/orders [post]
func (h *PublicHandler) PlaceOrder(c *gin.Context) {
	var req dto.SessionOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.orders.CreateSessionOrder(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
