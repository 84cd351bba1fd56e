package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/moleboard/moleboard/internal/domain/mole"
)

// ImagesRepo holds every uploaded mole image. The ingestion pipeline owns id
// assignment; the repository only appends and answers role-scoped reads.
type ImagesRepo struct {
	mu     sync.RWMutex
	images []mole.MoleImage
}

func NewImagesRepo() *ImagesRepo {
	return &ImagesRepo{}
}

func (r *ImagesRepo) Insert(ctx context.Context, img mole.MoleImage) error {
	r.mu.Lock()
	r.images = append(r.images, img)
	r.mu.Unlock()

	return nil
}

// ByPatient returns the patient's own images, most recent upload day first.
// UploadDate only has day granularity, so same-day uploads fall back to id
// descending to keep the order stable.
func (r *ImagesRepo) ByPatient(ctx context.Context, patientID int) ([]mole.MoleImage, error) {
	r.mu.RLock()

	out := make([]mole.MoleImage, 0, len(r.images))

	for _, img := range r.images {
		if img.PatientID == patientID {
			out = append(out, img)
		}
	}

	r.mu.RUnlock()

	sortNewestFirst(out)

	return out, nil
}

// PendingForReview returns everything a doctor may see: all images that are
// not archived, in the same newest-first order as ByPatient.
func (r *ImagesRepo) PendingForReview(ctx context.Context) ([]mole.MoleImage, error) {
	r.mu.RLock()

	out := make([]mole.MoleImage, 0, len(r.images))

	for _, img := range r.images {
		if img.Status != mole.StatusArchived {
			out = append(out, img)
		}
	}

	r.mu.RUnlock()

	sortNewestFirst(out)

	return out, nil
}

func (r *ImagesRepo) GetByFilename(ctx context.Context, key string) (mole.MoleImage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, img := range r.images {
		if img.Filename == key {
			return img, nil
		}
	}

	return mole.MoleImage{}, mole.ErrNotFound
}

func (r *ImagesRepo) Count(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.images)
}

func sortNewestFirst(images []mole.MoleImage) {
	sort.SliceStable(images, func(i, j int) bool {
		di := uploadDay(images[i].UploadedAt)
		dj := uploadDay(images[j].UploadedAt)

		if !di.Equal(dj) {
			return di.After(dj)
		}

		return images[i].ID > images[j].ID
	})
}

func uploadDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
