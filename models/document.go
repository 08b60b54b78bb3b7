package models

import (
	"time"
)

// Document is an attachment reference. Upload and storage of the underlying
// file happen outside this backend; we only keep the pointer.
type Document struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ReferenceType string    `gorm:"size:100;index:idx_document_reference" json:"reference_type"`
	ReferenceId   int       `gorm:"index:idx_document_reference" json:"reference_id"`
	Name          string    `gorm:"size:255;not null" json:"name" binding:"required"`
	DocumentUrl   string    `gorm:"size:500;not null" json:"document_url" binding:"required"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDocument struct {
	Name        string `json:"name" binding:"required"`
	DocumentUrl string `json:"document_url" binding:"required"`
}

func mapNewDocuments(inputs []*NewDocument) []*Document {
	documents := make([]*Document, 0, len(inputs))
	for _, input := range inputs {
		if input == nil {
			continue
		}
		documents = append(documents, &Document{
			Name:        input.Name,
			DocumentUrl: input.DocumentUrl,
		})
	}
	return documents
}
