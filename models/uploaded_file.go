package models

import (
	"time"

	"gorm.io/datatypes"
)

// UploadedFileNamePrefix tags synthesized storage names of blog images.
const UploadedFileNamePrefix = "blog"

// ImageProcessing describes the file that was actually sent to the image host.
type ImageProcessing struct {
	Host           string `json:"host"`
	Format         string `json:"format"`
	Progressive    bool   `json:"progressive"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	CompressedSize int64  `json:"compressedSize"`
}

// UploadedFile records metadata for an image pushed to the remote image host
type UploadedFile struct {
	ID           int64                               `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	OriginalName string                              `json:"originalName" db:"original_name" gorm:"type:text;not null"`
	FileName     string                              `json:"fileName" db:"file_name" gorm:"type:text;not null"`
	FileSize     int64                               `json:"fileSize" db:"file_size" gorm:"not null"`
	MimeType     string                              `json:"mimeType" db:"mime_type" gorm:"type:text;not null"`
	CloudURL     *string                             `json:"cloudUrl" db:"cloud_url" gorm:"column:cloud_url;type:text"`
	Processing   datatypes.JSONType[ImageProcessing] `json:"processing" db:"processing" gorm:"column:processing;not null"`
	UploadedAt   time.Time                           `json:"uploadedAt" db:"uploaded_at" gorm:"not null"`
}

func (UploadedFile) TableName() string { return "uploaded_files" }
