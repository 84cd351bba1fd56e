package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moleboard/moleboard/internal/blob"
	"github.com/moleboard/moleboard/internal/domain/mole"
	"github.com/moleboard/moleboard/internal/domain/user"
	"github.com/moleboard/moleboard/internal/http/middlewares"
)

type ImageFinder interface {
	GetByFilename(ctx context.Context, key string) (mole.MoleImage, error)
}

type FilesHandler struct {
	blobs  blob.Store
	images ImageFinder
}

func NewFilesHandler(blobs blob.Store, images ImageFinder) *FilesHandler {
	return &FilesHandler{
		blobs:  blobs,
		images: images,
	}
}

// Get streams the raw bytes behind a storage key. Patients only get their
// own images; an image belonging to someone else reads as not found so the
// response does not confirm the key exists.
func (h *FilesHandler) Get(ctx *gin.Context) {
	key := ctx.Param("key")

	img, err := h.images.GetByFilename(ctx.Request.Context(), key)

	if err != nil {
		RespondNotFound(ctx, "File not found")
		return
	}

	sess, ok := middlewares.SessionFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	if sess.Role() == user.RolePatient && img.PatientID != sess.UserID() {
		RespondNotFound(ctx, "File not found")
		return
	}

	data, err := h.blobs.Get(ctx.Request.Context(), img.Filename)

	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			RespondNotFound(ctx, "File not found")
			return
		}

		RespondInternal(ctx, "Could not fetch file")
		return
	}

	ctx.Data(http.StatusOK, "application/octet-stream", data)
}
