package mole

import (
	"errors"
	"time"
)

// Evaluation lifecycle of an uploaded image. Archived is not reachable
// through any current operation but doctors must never see archived rows,
// so the status travels with the record from day one.
const (
	StatusPending   = "Pending"
	StatusEvaluated = "Evaluated"
	StatusArchived  = "Archived"
)

// UploadDateLayout is the display format of UploadDate ("July 14, 2025").
const UploadDateLayout = "January 2, 2006"

type MoleImage struct {
	ID          int    `json:"id"`
	PatientID   int    `json:"patientId"`
	PatientName string `json:"patientName"` // snapshot at upload time
	Filename    string `json:"filename"`    // storage key in the blob store
	UploadDate  string `json:"uploadDate"`
	// UploadedAt backs the ordering of lists. UploadDate only carries
	// day granularity so ties are broken by ID.
	UploadedAt      time.Time `json:"uploadedAt"`
	Age             int       `json:"age"`
	Sex             string    `json:"sex"`
	SocialNumber    string    `json:"socialNumber,omitempty"`
	URL             string    `json:"url"` // where the bytes are fetched from
	Status          string    `json:"status"`
	EvaluationScore *int      `json:"evaluationScore,omitempty"`
	EvaluationNotes string    `json:"evaluationNotes,omitempty"`
}

var ErrNotFound = errors.New("mole image not found")
