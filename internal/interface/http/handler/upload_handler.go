package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/atelier-backend/internal/imageprep"
	"github.com/ignatzorin/atelier-backend/internal/interface/http/response"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/usecase/upload"
)

// multipartOverhead: запас на заголовки multipart поверх потолка файла.
const multipartOverhead = 64 * 1024

type UploadHandler struct {
	uploads *upload.Service
}

func NewUploadHandler(uploads *upload.Service) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Upload обрабатывает POST /api/uploads (multipart, поле file).
func (h *UploadHandler) Upload(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		response.Unauthorized(c, "требуется авторизация")
		return
	}

	data, err := readFormFile(c, h.uploads.MaxBytes(imageprep.ScopeGeneral))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.uploads.Upload(c.Request.Context(), userID, imageprep.ScopeGeneral, upload.KindGeneral, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

type deleteUploadRequest struct {
	Path string `json:"path" binding:"required"`
}

// Delete обрабатывает DELETE /api/uploads. Удалять можно только свои файлы.
func (h *UploadHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		response.Unauthorized(c, "требуется авторизация")
		return
	}

	var req deleteUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "укажите путь файла")
		return
	}

	if err := h.uploads.Remove(c.Request.Context(), userID, req.Path); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// readFormFile читает поле file. Тело сверх потолка обрезается, и размер проверяет imageprep.
func readFormFile(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		return nil, apperror.Validation("прикрепите файл в поле file (не больше допустимого размера)")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось прочитать файл")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось прочитать файл")
	}
	return data, nil
}
