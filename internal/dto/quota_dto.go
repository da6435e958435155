package dto

// QuotaExceededError is a custom error that carries usage details for the
// 403 response body.
type QuotaExceededError struct {
	Operation   string `json:"-"`
	QueriesUsed int    `json:"queriesUsed"`
	MaxQueries  int    `json:"maxQueries"`
	PdfsUsed    int    `json:"pdfsUsed"`
	MaxPdfs     int    `json:"maxPdfs"`
}

func (e *QuotaExceededError) Error() string {
	return "usage quota exceeded"
}

// QuotaExceededResponse is the full 403 response structure.
type QuotaExceededResponse struct {
	Error       string `json:"error"`
	QueriesUsed int    `json:"queriesUsed"`
	MaxQueries  int    `json:"maxQueries"`
	PdfsUsed    int    `json:"pdfsUsed"`
	MaxPdfs     int    `json:"maxPdfs"`
}

// PdfQuotaStatusResponse answers GET /check_pdf_quota. Used/ceiling fields
// are omitted on the bypass path where no record is read.
type PdfQuotaStatusResponse struct {
	CanUpload bool `json:"canUpload"`
	Unlimited bool `json:"unlimited"`
	PdfsUsed  *int `json:"pdfsUsed,omitempty"`
	MaxPdfs   *int `json:"maxPdfs,omitempty"`
}
