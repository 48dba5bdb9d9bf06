package models

// Document is a file published by the board, stored in-row
type Document struct {
	BaseModel
	Title       string `gorm:"type:varchar(200);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	FileName    string `gorm:"type:varchar(255);not null" json:"file_name"`
	MimeType    string `gorm:"type:varchar(100);not null" json:"mime_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Data        []byte `gorm:"type:longblob" json:"-"`
	UploadedBy  uint   `json:"uploaded_by"`
}
