package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moleboard/moleboard/internal/domain/mole"
)

type ReviewLister interface {
	PendingForReview(ctx context.Context) ([]mole.MoleImage, error)
}

type DoctorHandler struct {
	images ReviewLister
}

func NewDoctorHandler(images ReviewLister) *DoctorHandler {
	return &DoctorHandler{images: images}
}

// ReviewList is the doctor dashboard load hook: every non-archived image
// across all patients, newest upload day first.
func (h *DoctorHandler) ReviewList(ctx *gin.Context) {
	images, err := h.images.PendingForReview(ctx.Request.Context())

	if err != nil {
		RespondInternal(ctx, "Could not list images for review")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": images,
		"count": len(images),
	})
}
