package handlers

import (
	"errors"
	"io"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/media"
)

// readUpload reads the "file" form field, refusing anything larger than
// media.MaxUploadBytes.
func readUpload(c *gin.Context) ([]byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		httperr.BadRequest(c, "file_required", "Envie a imagem no campo file.")
		return nil, false
	}
	if fh.Size > media.MaxUploadBytes {
		httperr.BadRequest(c, "file_too_large", "Imagem maior que 5 MB.")
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		httperr.BadRequest(c, "file_required", "Envie a imagem no campo file.")
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, media.MaxUploadBytes+1))
	if err != nil || len(data) > media.MaxUploadBytes {
		httperr.BadRequest(c, "file_too_large", "Imagem maior que 5 MB.")
		return nil, false
	}
	return data, true
}

func mapUploadErrors(c *gin.Context, err error) {
	switch {
	case errors.Is(err, media.ErrInvalidImage):
		httperr.BadRequest(c, "invalid_image", "Formato de imagem não suportado. Use PNG, JPEG ou WebP.")
	case errors.Is(err, media.ErrDisabled):
		httperr.Unavailable(c, "storage_unavailable", "Upload de imagens indisponível.")
	default:
		log.Printf("[media] upload: %v", err)
		httperr.Internal(c, "upload_failed", "Erro ao enviar imagem.")
	}
}
