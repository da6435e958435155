package entity

// QuotaOperation names a metered operation. Each operation has its own
// counter/ceiling pair on the UserQuota record.
type QuotaOperation string

const (
	OperationQuery     QuotaOperation = "query"
	OperationPdfUpload QuotaOperation = "pdf_upload"
)
