package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
	"github.com/noah-isme/kelas-qna-api/pkg/response"
	"github.com/noah-isme/kelas-qna-api/pkg/storage"
)

// MediaHandler serves stored blobs referenced by signed tokens.
type MediaHandler struct {
	blobs  storage.BlobStore
	signer *storage.SignedURLSigner
	logger *zap.Logger
}

// NewMediaHandler constructs a media handler.
func NewMediaHandler(blobs storage.BlobStore, signer *storage.SignedURLSigner, logger *zap.Logger) *MediaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaHandler{blobs: blobs, signer: signer, logger: logger}
}

// Serve godoc
// @Summary Fetch a stored media blob by signed token
// @Tags Media
// @Param token path string true "Signed media token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /media/{token} [get]
func (h *MediaHandler) Serve(c *gin.Context) {
	contentType, relPath, _, err := h.signer.Parse(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "media not found"))
		return
	}
	data, storedType, err := h.blobs.Open(c.Request.Context(), relPath)
	if err != nil {
		h.logger.Warn("media blob unavailable", zap.String("path", relPath), zap.Error(err))
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "media not found"))
		return
	}
	if contentType == "" {
		contentType = storedType
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, contentType, data)
}
