package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/moleboard/moleboard/internal/domain/mole"
	"github.com/moleboard/moleboard/internal/domain/user"
	"github.com/moleboard/moleboard/internal/http/middlewares"
	"github.com/moleboard/moleboard/internal/ingest"
	"github.com/moleboard/moleboard/internal/notifications"
)

type PatientImageLister interface {
	ByPatient(ctx context.Context, patientID int) ([]mole.MoleImage, error)
}

type UploadPipeline interface {
	Submit(ctx context.Context, curUser user.User, meta ingest.Metadata, files []ingest.File, progress ingest.ProgressFunc) (int, error)
}

type PatientHandler struct {
	images   PatientImageLister
	pipeline UploadPipeline
	notifier notifications.Notifier
	log      *slog.Logger
}

func NewPatientHandler(images PatientImageLister, pipeline UploadPipeline, notifier notifications.Notifier, log *slog.Logger) *PatientHandler {
	return &PatientHandler{
		images:   images,
		pipeline: pipeline,
		notifier: notifier,
		log:      log,
	}
}

// ListImages is the patient dashboard load hook: own images only, newest
// upload day first.
func (h *PatientHandler) ListImages(ctx *gin.Context) {
	sess, ok := middlewares.SessionFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	images, err := h.images.ByPatient(ctx.Request.Context(), sess.UserID())

	if err != nil {
		RespondInternal(ctx, "Could not list images")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": images,
		"count": len(images),
	})
}

// Upload ingests a multipart batch: form fields age/sex/socialNumber plus
// one or more "files" parts. Metadata problems reject the batch before any
// file is read.
func (h *PatientHandler) Upload(ctx *gin.Context) {
	sess, ok := middlewares.SessionFromContext(ctx)

	if !ok || sess.User == nil {
		RespondUnAuthorized(ctx, "unauthorized", "You must be logged in to upload files.")
		return
	}

	meta := ingest.Metadata{
		Age:          ctx.PostForm("age"),
		Sex:          ctx.PostForm("sex"),
		SocialNumber: ctx.PostForm("socialNumber"),
	}

	if meta.Age == "" || meta.Sex == "" {
		RespondBadRequest(ctx, "Please fill in age and sex before uploading.", nil)
		return
	}

	form, err := ctx.MultipartForm()

	if err != nil {
		RespondBadRequest(ctx, "Invalid upload form", gin.H{"reason": err.Error()})
		return
	}

	fileHeaders := form.File["files"]

	if len(fileHeaders) == 0 {
		RespondBadRequest(ctx, "Please select at least one file to upload.", nil)
		return
	}

	files := make([]ingest.File, 0, len(fileHeaders))

	for _, fh := range fileHeaders {
		f, err := fh.Open()

		if err != nil {
			RespondBadRequest(ctx, "Could not read uploaded file", gin.H{"file": fh.Filename})
			return
		}

		data, err := io.ReadAll(f)
		_ = f.Close()

		if err != nil {
			RespondBadRequest(ctx, "Could not read uploaded file", gin.H{"file": fh.Filename})
			return
		}

		files = append(files, ingest.File{Name: fh.Filename, Data: data})
	}

	progress := func(done, total int) {
		h.log.Debug("upload progress", "patient_id", sess.UserID(), "done", done, "total", total)
	}

	count, err := h.pipeline.Submit(ctx.Request.Context(), *sess.User, meta, files, progress)

	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrMissingMetadata):
			RespondBadRequest(ctx, "Please fill in age and sex before uploading.", nil)
		case errors.Is(err, ingest.ErrNoFiles):
			RespondBadRequest(ctx, "Please select at least one file to upload.", nil)
		case errors.Is(err, ingest.ErrUnauthenticated):
			RespondUnAuthorized(ctx, "unauthorized", "You must be logged in to upload files.")
		default:
			// abort-and-keep-partial: report how far the batch got
			RespondError(ctx, http.StatusInternalServerError, "upload_failed",
				"Upload failed partway through.", gin.H{"processed": count})
		}
		return
	}

	if h.notifier != nil {
		err = h.notifier.SendUploadReceipt(ctx.Request.Context(), notifications.SendUploadReceiptInput{
			Email:     sess.User.Email,
			Name:      sess.DisplayName(),
			FileCount: count,
		})

		if err != nil {
			h.log.Warn("upload receipt failed", "err", err)
		}
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"processed": count,
		"message":   "Successfully uploaded and analyzed " + strconv.Itoa(count) + " image(s).",
	})
}
