package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentEntry struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DatasetTag     string          `gorm:"type:varchar(255);not null;index:idx_entries_scope,priority:1"`
	DocType        string          `gorm:"type:varchar(32);not null;index:idx_entries_scope,priority:2"`
	Chapter        string          `gorm:"type:varchar(64);index:idx_entries_scope,priority:3"`
	Source         string          `gorm:"type:varchar(512)"`
	Content        string          `gorm:"type:text"`
	EmbeddingValue *pgvector.Vector `gorm:"type:vector(768)"` // Cohere embed-multilingual / Gemini text-embedding-004. NULL for summary and toc_full rows.
	Metadata       datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (DocumentEntry) TableName() string {
	return "document_entries"
}
