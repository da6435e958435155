package specification

import "gorm.io/gorm"

// ByDatasetTag scopes a query to one ingested document.
type ByDatasetTag struct {
	Tag string
}

func (s ByDatasetTag) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("dataset_tag = ?", s.Tag)
}

// ByDocType filters by document layer.
type ByDocType struct {
	DocType string
}

func (s ByDocType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("doc_type = ?", s.DocType)
}

// ByDocTypes filters by any of the given document layers.
type ByDocTypes struct {
	DocTypes []string
}

func (s ByDocTypes) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("doc_type IN ?", s.DocTypes)
}

// ByChapter filters by chapter identifier.
type ByChapter struct {
	Chapter string
}

func (s ByChapter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chapter = ?", s.Chapter)
}

// ByIdentityID filters quota records by external identity.
type ByIdentityID struct {
	IdentityID string
}

func (s ByIdentityID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("identity_id = ?", s.IdentityID)
}
