package notifications

import "context"

type SendUploadReceiptInput struct {
	Email     string
	Name      string
	FileCount int
}

// Notifier tells a patient their upload batch was analyzed. The dashboard
// surfaces this as a toast; a mail provider would slot in behind the same
// interface.
type Notifier interface {
	SendUploadReceipt(ctx context.Context, input SendUploadReceiptInput) error
}
