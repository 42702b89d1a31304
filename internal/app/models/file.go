package models

import (
	"time"
)

// ResourceType tags an uploaded file with the entity class it belongs to.
type ResourceType string

const (
	ResourceAssignment ResourceType = "assignment"
	ResourceSubmission ResourceType = "submission"
)

// File defines one uploaded file based on the 'files' table.
type File struct {
	ID           int64        `json:"id" db:"id"`
	FileName     string       `json:"fileName" db:"file_name"`
	FilePath     string       `json:"filePath" db:"file_path"`
	FileSize     int64        `json:"fileSize" db:"file_size"`
	FileType     string       `json:"fileType" db:"file_type"`
	ResourceType ResourceType `json:"resourceType" db:"resource_type"`
	ResourceID   int64        `json:"resourceId" db:"resource_id"`
	UploadedBy   int64        `json:"uploadedBy" db:"uploaded_by"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
}
