package dto

type UploadPdfResponse struct {
	Success    bool   `json:"success"`
	Chunks     int    `json:"chunks"`
	Chapters   int    `json:"chapters"`
	DatasetTag string `json:"datasetTag"`
}
