package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/moleboard/moleboard/internal/domain/mole"
	"github.com/moleboard/moleboard/internal/domain/user"
	"github.com/moleboard/moleboard/internal/repo/memory"
)

// fake blob store, optionally failing on the nth Put

type fakeBlobStore struct {
	blobs  map[string][]byte
	puts   int
	failOn int // 1-based; 0 = never fail
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, data []byte) error {
	f.puts++

	if f.failOn > 0 && f.puts == f.failOn {
		return errors.New("disk full (simulated)")
	}

	f.blobs[key] = data
	return nil
}

func (f *fakeBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, ok := f.blobs[key]

	if !ok {
		return nil, errors.New("not found")
	}

	return b, nil
}

func (f *fakeBlobStore) URLFor(key string) string {
	return "/files/" + key
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func patientJane() user.User {
	return user.User{ID: 4, Email: "jane@x.com", Name: "Jane", Role: user.RolePatient}
}

func newTestPipeline(images *memory.ImagesRepo, blobs *fakeBlobStore) *Pipeline {
	p := New(images, blobs, discardLogger(), nil)

	// pin the clock so storage keys and dates are predictable
	p.now = func() time.Time {
		return time.Date(2025, 7, 14, 10, 30, 0, 0, time.UTC)
	}

	return p
}

func TestSubmitValidationRunsBeforeAnyIO(t *testing.T) {
	tests := []struct {
		name    string
		meta    Metadata
		files   []File
		curUser user.User
		wantErr error
	}{
		{
			name:    "missing age",
			meta:    Metadata{Sex: "Female"},
			files:   []File{{Name: "a.jpg", Data: []byte("x")}},
			curUser: patientJane(),
			wantErr: ErrMissingMetadata,
		},
		{
			name:    "missing sex",
			meta:    Metadata{Age: "40"},
			files:   []File{{Name: "a.jpg", Data: []byte("x")}},
			curUser: patientJane(),
			wantErr: ErrMissingMetadata,
		},
		{
			name:    "no files",
			meta:    Metadata{Age: "40", Sex: "Female"},
			files:   nil,
			curUser: patientJane(),
			wantErr: ErrNoFiles,
		},
		{
			name:    "unauthenticated",
			meta:    Metadata{Age: "40", Sex: "Female"},
			files:   []File{{Name: "a.jpg", Data: []byte("x")}},
			curUser: user.User{},
			wantErr: ErrUnauthenticated,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			images := memory.NewImagesRepo()
			blobs := newFakeBlobStore()
			p := newTestPipeline(images, blobs)

			count, err := p.Submit(context.Background(), tc.curUser, tc.meta, tc.files, nil)

			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}

			if count != 0 {
				t.Errorf("count = %d, want 0", count)
			}

			if images.Count(context.Background()) != 0 {
				t.Error("repository changed by a rejected batch")
			}

			if blobs.puts != 0 {
				t.Error("file I/O happened before validation")
			}
		})
	}
}

func TestSubmitHappyPath(t *testing.T) {
	images := memory.NewImagesRepo()
	blobs := newFakeBlobStore()
	p := newTestPipeline(images, blobs)

	var progressCalls []string

	progress := func(done, total int) {
		progressCalls = append(progressCalls, fmt.Sprintf("%d/%d", done, total))
	}

	meta := Metadata{Age: "40", Sex: "Female", SocialNumber: "123-45"}
	files := []File{
		{Name: "mole1.jpg", Data: []byte("aaa")},
		{Name: "mole2.jpg", Data: []byte("bbb")},
	}

	count, err := p.Submit(context.Background(), patientJane(), meta, files, progress)

	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	got, err := images.ByPatient(context.Background(), 4)

	if err != nil {
		t.Fatalf("by patient: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("images = %d, want 2", len(got))
	}

	// newest-first listing; same day so id desc, meaning input order reversed
	if got[0].Filename != "1752489000_mole2.jpg" || got[1].Filename != "1752489000_mole1.jpg" {
		t.Errorf("filenames = %q, %q", got[0].Filename, got[1].Filename)
	}

	for _, img := range got {
		if img.Status != mole.StatusEvaluated {
			t.Errorf("status = %q, want Evaluated", img.Status)
		}

		if img.EvaluationScore == nil || *img.EvaluationScore < 1 || *img.EvaluationScore > 10 {
			t.Errorf("score out of range: %v", img.EvaluationScore)
		}

		if img.PatientID != 4 || img.PatientName != "Jane" {
			t.Errorf("patient snapshot = %d/%q", img.PatientID, img.PatientName)
		}

		if img.Age != 40 || img.Sex != "Female" || img.SocialNumber != "123-45" {
			t.Errorf("metadata = %d/%q/%q", img.Age, img.Sex, img.SocialNumber)
		}

		if img.UploadDate != "July 14, 2025" {
			t.Errorf("upload date = %q", img.UploadDate)
		}

		if img.URL != "/files/"+img.Filename {
			t.Errorf("url = %q", img.URL)
		}
	}

	// blob store holds both files
	if len(blobs.blobs) != 2 {
		t.Errorf("blob count = %d, want 2", len(blobs.blobs))
	}

	// ids are assigned in input order
	if got[1].ID >= got[0].ID {
		t.Errorf("ids not increasing in input order: %d then %d", got[1].ID, got[0].ID)
	}

	if len(progressCalls) != 2 || progressCalls[0] != "1/2" || progressCalls[1] != "2/2" {
		t.Errorf("progress = %v", progressCalls)
	}
}

func TestSubmitScoreIsDeterministicForFixedClock(t *testing.T) {
	run := func() mole.MoleImage {
		images := memory.NewImagesRepo()
		p := newTestPipeline(images, newFakeBlobStore())

		_, err := p.Submit(context.Background(), patientJane(),
			Metadata{Age: "40", Sex: "Female"},
			[]File{{Name: "mole1.jpg", Data: []byte("x")}}, nil)

		if err != nil {
			t.Fatalf("submit: %v", err)
		}

		got, _ := images.ByPatient(context.Background(), 4)
		return got[0]
	}

	a := run()
	b := run()

	if *a.EvaluationScore != *b.EvaluationScore || a.EvaluationNotes != b.EvaluationNotes {
		t.Errorf("same key scored differently: %d/%q vs %d/%q",
			*a.EvaluationScore, a.EvaluationNotes, *b.EvaluationScore, b.EvaluationNotes)
	}
}

func TestSubmitAbortKeepsEarlierFiles(t *testing.T) {
	images := memory.NewImagesRepo()
	blobs := newFakeBlobStore()
	blobs.failOn = 2
	p := newTestPipeline(images, blobs)

	files := []File{
		{Name: "a.jpg", Data: []byte("a")},
		{Name: "b.jpg", Data: []byte("b")},
		{Name: "c.jpg", Data: []byte("c")},
	}

	count, err := p.Submit(context.Background(), patientJane(),
		Metadata{Age: "40", Sex: "Female"}, files, nil)

	if err == nil {
		t.Fatal("expected error from failing blob store")
	}

	// abort-and-keep-partial: the first file stays, the rest never ran
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	if images.Count(context.Background()) != 1 {
		t.Errorf("images = %d, want 1", images.Count(context.Background()))
	}

	if blobs.puts != 2 {
		t.Errorf("puts = %d, want 2 (second one failed, third never tried)", blobs.puts)
	}
}

func TestSubmitConcurrentBatchesGetUniqueIDs(t *testing.T) {
	images := memory.NewImagesRepo()
	p := newTestPipeline(images, newFakeBlobStore())

	done := make(chan struct{})

	for g := 0; g < 4; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()

			u := patientJane()
			u.ID = 10 + g

			_, err := p.Submit(context.Background(), u,
				Metadata{Age: "40", Sex: "Female"},
				[]File{
					{Name: "a.jpg", Data: []byte("a")},
					{Name: "b.jpg", Data: []byte("b")},
				}, nil)

			if err != nil {
				t.Errorf("submit: %v", err)
			}
		}(g)
	}

	for g := 0; g < 4; g++ {
		<-done
	}

	seen := make(map[int]bool)

	for g := 0; g < 4; g++ {
		imgs, _ := images.ByPatient(context.Background(), 10+g)

		for _, img := range imgs {
			if seen[img.ID] {
				t.Fatalf("duplicate image id %d", img.ID)
			}

			seen[img.ID] = true
		}
	}

	if len(seen) != 8 {
		t.Errorf("unique ids = %d, want 8", len(seen))
	}
}
