package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/imageprep"
	"github.com/ignatzorin/atelier-backend/internal/interface/http/dto"
	"github.com/ignatzorin/atelier-backend/internal/interface/http/response"
	"github.com/ignatzorin/atelier-backend/internal/usecase/upload"
	"github.com/ignatzorin/atelier-backend/internal/usecase/wizard"
)

// WizardHandler: HTTP API мастера оформления заказа.
type WizardHandler struct {
	wizard   *wizard.Controller
	maxPhoto int64
}

func NewWizardHandler(ctrl *wizard.Controller, uploads *upload.Service) *WizardHandler {
	return &WizardHandler{wizard: ctrl, maxPhoto: uploads.MaxBytes(imageprep.ScopeWizard)}
}

// session достаёт пользователя и id сессии; при ошибке ответ уже записан.
func (h *WizardHandler) session(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := getUserID(c)
	if err != nil {
		response.Unauthorized(c, "требуется авторизация")
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "некорректный ID сессии")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, sessionID, true
}

func (h *WizardHandler) respond(c *gin.Context, st *wizard.State, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToSessionResponse(st))
}

func (h *WizardHandler) Start(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		response.Unauthorized(c, "требуется авторизация")
		return
	}

	var req dto.StartSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "некорректные данные запроса")
			return
		}
	}
	tailorID, err := req.ParseTailorID()
	if err != nil {
		response.BadRequest(c, "некорректный ID портного")
		return
	}

	st, err := h.wizard.Start(c.Request.Context(), userID, tailorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToSessionResponse(st))
}

func (h *WizardHandler) Get(c *gin.Context) {
	userID, sessionID, ok := h.session(c)
	if !ok {
		return
	}
	st, err := h.wizard.Get(c.Request.Context(), userID, sessionID)
	h.respond(c, st, err)
}

func (h *WizardHandler) Abandon(c *gin.Context) {
	userID, sessionID, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.wizard.Abandon(c.Request.Context(), userID, sessionID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *WizardHandler) UpdateContact(c *gin.Context) {
	userID, sessionID, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	st, err := h.wizard.UpdateContact(c.Request.Context(), userID, sessionID, req.ToContact())
	h.respond(c, st, err)
}

// UpdateMeasurements принимает объект мерок целиком. Неизвестные ключи дают 400.
func (h *WizardHandler) UpdateMeasurements(c *gin.Context) {
	userID, sessionID, ok := h.session(c)
	if !ok {
		return
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 64*1024))
	if err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	m, err := valueobject.ParseMeasurements(raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	st, err := h.wizard.UpdateMeasurements(c.Request.Context(), userID, sessionID, m)
	h.respond(c, st, err)
}

func (h *WizardHandler) SubmitMeasurements(c *gin.Context) {
	userID, sessionID, ok := h.session(c)
	if !ok {
		return
	}
	st, err := h.wizard.SubmitMeasurements(c.Request.Context(), userID, sessionID)
	h.respond(c, st, err)
}

func (h *WizardHandler) AttachPhoto(c *gin.Context) {
	userID, sessionID, ok := h.session(c)
	if !ok {
		return
	}
	kind, err := upload.ParseKind(c.Param("kind"))
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := readFormFile(c, h.maxPhoto)
	if err != nil {
		response.Error(c, err)
		return
	}
	st, err := h.wizard.AttachPhoto(c.Request.Context(), userID, sessionID, kind, data)
	h.respond(c, st, err)
}

func (h *WizardHandler) RemovePhoto(c *gin.Context) {
	userID, sessionID, ok := h.session(c)
	if !ok {
		return
	}
	kind, err := upload.ParseKind(c.Param("kind"))
	if err != nil {
		response.Error(c, err)
		return
	}
	st, err := h.wizard.RemovePhoto(c.Request.Context(), userID, sessionID, kind)
	h.respond(c, st, err)
}

func (h *WizardHandler) UpdateStyle(c *gin.Context) {
	userID, sessionID, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.StyleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	st, err := h.wizard.UpdateStyle(c.Request.Context(), userID, sessionID, req.ToStyle())
	h.respond(c, st, err)
}

func (h *WizardHandler) Next(c *gin.Context) {
	userID, sessionID, ok := h.session(c)
	if !ok {
		return
	}
	st, err := h.wizard.Next(c.Request.Context(), userID, sessionID)
	h.respond(c, st, err)
}

func (h *WizardHandler) Back(c *gin.Context) {
	userID, sessionID, ok := h.session(c)
	if !ok {
		return
	}
	st, err := h.wizard.Back(c.Request.Context(), userID, sessionID)
	h.respond(c, st, err)
}

// StartPreview запускает генерацию в фоне и сразу отвечает 202.
// Ход и результат приходят в WebSocket и видны в GET сессии.
func (h *WizardHandler) StartPreview(c *gin.Context) {
	userID, sessionID, ok := h.session(c)
	if !ok {
		return
	}
	st, err := h.wizard.StartPreview(c.Request.Context(), userID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.ToSessionResponse(st))
}

func (h *WizardHandler) Confirm(c *gin.Context) {
	userID, sessionID, ok := h.session(c)
	if !ok {
		return
	}
	order, err := h.wizard.Confirm(c.Request.Context(), userID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(order))
}
