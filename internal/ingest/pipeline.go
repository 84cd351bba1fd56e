package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moleboard/moleboard/internal/blob"
	"github.com/moleboard/moleboard/internal/domain/mole"
	"github.com/moleboard/moleboard/internal/domain/user"
	"github.com/moleboard/moleboard/internal/observability"
	"github.com/moleboard/moleboard/internal/scorer"
)

var (
	ErrMissingMetadata = errors.New("missing age or sex")
	ErrNoFiles         = errors.New("no files in upload")
	ErrUnauthenticated = errors.New("not authenticated")
)

// Metadata is the per-batch patient form data. It arrives with every Submit
// call and is never retained between batches.
type Metadata struct {
	Age          string
	Sex          string
	SocialNumber string
}

type File struct {
	Name string
	Data []byte
}

// ProgressFunc is called after each persisted file with (done, total).
type ProgressFunc func(done, total int)

type ImageInserter interface {
	Insert(ctx context.Context, img mole.MoleImage) error
}

// Pipeline validates an upload batch, persists each file, runs the heuristic
// scorer and appends one image record per file. It owns the image id counter:
// the repository offers no id allocation, so a single mutex-guarded counter
// here keeps ids unique across concurrent Submit calls.
type Pipeline struct {
	images ImageInserter
	blobs  blob.Store
	log    *slog.Logger
	prom   *observability.Prom
	tracer trace.Tracer

	mu     sync.Mutex
	nextID int

	// now is swappable in tests, storage keys embed a timestamp
	now func() time.Time
}

func New(images ImageInserter, blobs blob.Store, log *slog.Logger, prom *observability.Prom) *Pipeline {
	return &Pipeline{
		images: images,
		blobs:  blobs,
		log:    log,
		prom:   prom,
		tracer: otel.Tracer("moleboard/ingest"),
		nextID: 1,
		now:    time.Now,
	}
}

// Submit processes one upload batch for the given patient. Files are handled
// strictly in input order. Validation happens before any file I/O, so a
// rejected batch leaves the repository and the blob store untouched.
//
// Partial failure policy: abort and keep what already landed. If file N
// fails to persist, files 1..N-1 stay inserted and the error reports how
// far the batch got. There is no rollback.
func (p *Pipeline) Submit(ctx context.Context, curUser user.User, meta Metadata, files []File, progress ProgressFunc) (int, error) {
	if meta.Age == "" || meta.Sex == "" {
		p.countBatch("rejected")
		return 0, ErrMissingMetadata
	}

	if len(files) == 0 {
		p.countBatch("rejected")
		return 0, ErrNoFiles
	}

	if curUser.ID <= 0 {
		p.countBatch("rejected")
		return 0, ErrUnauthenticated
	}

	ctx, span := p.tracer.Start(ctx, "ingest.submit")
	span.SetAttributes(
		attribute.Int("ingest.files", len(files)),
		attribute.Int("ingest.patient_id", curUser.ID),
	)
	defer span.End()

	start := time.Now()
	now := p.now()
	age := parseAge(meta.Age)

	for i, f := range files {
		// timestamp + original name; two files with different names in
		// the same batch can never collide
		key := fmt.Sprintf("%d_%s", now.Unix(), f.Name)

		err := p.blobs.Put(ctx, key, f.Data)

		if err != nil {
			p.countBatch("failed")
			return i, fmt.Errorf("persist file %d of %d: %w", i+1, len(files), err)
		}

		score, notes := scorer.Score(key)

		img := mole.MoleImage{
			ID:              p.allocateID(),
			PatientID:       curUser.ID,
			PatientName:     curUser.Name,
			Filename:        key,
			URL:             p.blobs.URLFor(key),
			UploadDate:      now.Format(mole.UploadDateLayout),
			UploadedAt:      now,
			Age:             age,
			Sex:             meta.Sex,
			SocialNumber:    meta.SocialNumber,
			Status:          mole.StatusEvaluated,
			EvaluationScore: &score,
			EvaluationNotes: notes,
		}

		err = p.images.Insert(ctx, img)

		if err != nil {
			p.countBatch("failed")
			return i, fmt.Errorf("insert image %d of %d: %w", i+1, len(files), err)
		}

		if p.prom != nil {
			p.prom.UploadedFiles.Inc()
			p.prom.ScoresAssigned.Observe(float64(score))
		}

		if progress != nil {
			progress(i+1, len(files))
		}
	}

	if p.prom != nil {
		p.prom.UploadDuration.Observe(time.Since(start).Seconds())
	}

	p.countBatch("ok")

	p.log.Info("upload batch processed",
		"patient_id", curUser.ID,
		"files", len(files),
	)

	return len(files), nil
}

func (p *Pipeline) allocateID() int {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.mu.Unlock()

	return id
}

func (p *Pipeline) countBatch(result string) {
	if p.prom != nil {
		p.prom.UploadBatches.WithLabelValues(result).Inc()
	}
}

// parseAge tolerates junk input; the form is free text in the source app.
func parseAge(s string) int {
	age, err := strconv.Atoi(strings.TrimSpace(s))

	if err != nil || age < 0 {
		return 0
	}

	return age
}
