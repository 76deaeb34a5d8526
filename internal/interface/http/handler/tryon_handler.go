package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/atelier-backend/internal/interface/http/dto"
	"github.com/ignatzorin/atelier-backend/internal/interface/http/response"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/usecase/tryon"
)

type TryOnHandler struct {
	tryon *tryon.Orchestrator
}

func NewTryOnHandler(orchestrator *tryon.Orchestrator) *TryOnHandler {
	return &TryOnHandler{tryon: orchestrator}
}

// Submit обрабатывает POST /api/tryon/jobs. Клиент дальше опрашивает GET /api/tryon/jobs/:id.
func (h *TryOnHandler) Submit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		response.Unauthorized(c, "требуется авторизация")
		return
	}

	var req dto.SubmitTryOnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "нужны order_id, customer_photo_url и style_photo_url")
		return
	}
	submit, err := req.ToSubmitRequest()
	if err != nil {
		if apperror.IsValidation(err) {
			response.Error(c, err)
			return
		}
		response.BadRequest(c, "некорректный ID заказа")
		return
	}

	jobID, err := h.tryon.Submit(c.Request.Context(), userID, submit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.SubmitTryOnResponse{JobID: jobID.String()})
}

func (h *TryOnHandler) GetJob(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		response.Unauthorized(c, "требуется авторизация")
		return
	}
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "некорректный ID задачи")
		return
	}

	job, err := h.tryon.Job(c.Request.Context(), userID, jobID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToJobResponse(job))
}

// CompleteJob обрабатывает обратный вызов воркера POST /internal/tryon/jobs/:id/result.
// Повторный результат даёт 409, воркер может считать его успехом.
func (h *TryOnHandler) CompleteJob(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "некорректный ID задачи")
		return
	}

	var req dto.JobResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректный результат задачи")
		return
	}

	job, err := h.tryon.Complete(c.Request.Context(), jobID, req.ToJobResult())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToJobResponse(job))
}
