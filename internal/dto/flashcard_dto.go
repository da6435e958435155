package dto

type GenerateFlashcardsRequest struct {
	Chapter    string `json:"chapter" validate:"required"`
	Count      int    `json:"count" validate:"required,min=1,max=20"`
	DatasetTag string `json:"datasetTag,omitempty"`
}

type FlashcardDTO struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type GenerateFlashcardsResponse struct {
	Scope string         `json:"scope"`
	Total int            `json:"total"`
	Cards []FlashcardDTO `json:"cards"`
}
