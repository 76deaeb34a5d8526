package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/interface/http/dto"
	"github.com/ignatzorin/atelier-backend/internal/interface/http/response"
	"github.com/ignatzorin/atelier-backend/internal/usecase/order"
)

type OrderHandler struct {
	getOrderUC     *order.GetOrderUseCase
	changeStatusUC *order.ChangeStatusUseCase
	tailorNotesUC  *order.UpdateTailorNotesUseCase
}

func NewOrderHandler(
	getOrderUC *order.GetOrderUseCase,
	changeStatusUC *order.ChangeStatusUseCase,
	tailorNotesUC *order.UpdateTailorNotesUseCase,
) *OrderHandler {
	return &OrderHandler{
		getOrderUC:     getOrderUC,
		changeStatusUC: changeStatusUC,
		tailorNotesUC:  tailorNotesUC,
	}
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		response.Unauthorized(c, "требуется авторизация")
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "некорректный ID заказа")
		return
	}

	o, err := h.getOrderUC.Execute(c.Request.Context(), orderID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(o))
}

func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		response.Unauthorized(c, "требуется авторизация")
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "некорректный ID заказа")
		return
	}

	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "укажите статус")
		return
	}
	status, err := valueobject.NewOrderStatus(req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	o, err := h.changeStatusUC.Execute(c.Request.Context(), orderID, userID, status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(o))
}

func (h *OrderHandler) UpdateTailorNotes(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		response.Unauthorized(c, "требуется авторизация")
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "некорректный ID заказа")
		return
	}

	var req dto.TailorNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	o, err := h.tailorNotesUC.Execute(c.Request.Context(), orderID, userID, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(o))
}
