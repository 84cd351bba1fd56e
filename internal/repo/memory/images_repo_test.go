package memory

import (
	"context"
	"testing"
	"time"

	"github.com/moleboard/moleboard/internal/domain/mole"
)

func img(id, patientID int, uploadedAt time.Time, status string) mole.MoleImage {
	return mole.MoleImage{
		ID:         id,
		PatientID:  patientID,
		Filename:   "f",
		UploadDate: uploadedAt.Format(mole.UploadDateLayout),
		UploadedAt: uploadedAt,
		Status:     status,
	}
}

func TestImagesRepoByPatientOrdering(t *testing.T) {
	repo := NewImagesRepo()
	ctx := context.Background()

	day := func(d int) time.Time {
		return time.Date(2025, 7, d, 10, 0, 0, 0, time.UTC)
	}

	// insertion order deliberately scrambled
	inserts := []mole.MoleImage{
		img(1, 7, day(10), mole.StatusEvaluated),
		img(2, 7, day(12), mole.StatusEvaluated),
		img(3, 9, day(13), mole.StatusEvaluated), // other patient
		img(4, 7, day(12), mole.StatusEvaluated), // same day as id 2
		img(5, 7, day(11), mole.StatusEvaluated),
	}

	for _, m := range inserts {
		if err := repo.Insert(ctx, m); err != nil {
			t.Fatalf("insert %d: %v", m.ID, err)
		}
	}

	got, err := repo.ByPatient(ctx, 7)

	if err != nil {
		t.Fatalf("by patient: %v", err)
	}

	wantIDs := []int{4, 2, 5, 1} // day 12 (id desc), then day 11, then day 10

	if len(got) != len(wantIDs) {
		t.Fatalf("len = %d, want %d", len(got), len(wantIDs))
	}

	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Errorf("got[%d].ID = %d, want %d", i, got[i].ID, want)
		}
	}
}

func TestImagesRepoSameDayTieBreakByIDDesc(t *testing.T) {
	repo := NewImagesRepo()
	ctx := context.Background()

	// day granularity: different clock times on the same day must not
	// affect the order, only the id does
	base := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

	_ = repo.Insert(ctx, img(1, 7, base.Add(23*time.Hour), mole.StatusEvaluated))
	_ = repo.Insert(ctx, img(2, 7, base.Add(1*time.Hour), mole.StatusEvaluated))

	got, err := repo.ByPatient(ctx, 7)

	if err != nil {
		t.Fatalf("by patient: %v", err)
	}

	if got[0].ID != 2 || got[1].ID != 1 {
		t.Errorf("order = %d,%d, want 2,1", got[0].ID, got[1].ID)
	}
}

func TestImagesRepoPendingForReviewSkipsArchived(t *testing.T) {
	repo := NewImagesRepo()
	ctx := context.Background()

	day := time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)

	_ = repo.Insert(ctx, img(1, 7, day, mole.StatusEvaluated))
	_ = repo.Insert(ctx, img(2, 9, day, mole.StatusArchived))
	_ = repo.Insert(ctx, img(3, 9, day, mole.StatusPending))

	got, err := repo.PendingForReview(ctx)

	if err != nil {
		t.Fatalf("pending for review: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	// same day, id desc
	if got[0].ID != 3 || got[1].ID != 1 {
		t.Errorf("order = %d,%d, want 3,1", got[0].ID, got[1].ID)
	}
}

func TestImagesRepoByPatientEmptyForUnknownPatient(t *testing.T) {
	repo := NewImagesRepo()

	got, err := repo.ByPatient(context.Background(), 99)

	if err != nil {
		t.Fatalf("by patient: %v", err)
	}

	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}
