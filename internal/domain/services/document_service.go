package services

import (
	"errors"
	"fmt"
	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/infrastructure/config"
	Logger "hoa-http-service/pkg/logger"
	"path/filepath"
	"strings"

	"gorm.io/gorm"
)

// DocumentInput holds the metadata of an uploaded document
type DocumentInput struct {
	Title       string `form:"title" json:"title"`
	Description string `form:"description" json:"description"`
}

// InterfaceDocumentService defines the document interface
type InterfaceDocumentService interface {
	Upload(actorID uint, input DocumentInput, file *Upload) (*models.Document, error)
	List(query models.PaginationQuery) ([]models.Document, int64, error)
	Download(id uint) (*models.Document, error)
	Delete(actorID, id uint) error
}

// DocumentService stores association documents
type DocumentService struct {
	DB     *gorm.DB
	Config *config.Config
	Now    Clock
}

// NewDocumentService creates a new document service
func NewDocumentService(db *gorm.DB, cfg *config.Config, now Clock) InterfaceDocumentService {
	if now == nil {
		now = SystemClock
	}
	return &DocumentService{DB: db, Config: cfg, Now: now}
}

// 1 Upload stores a document after checking its size and type
func (s *DocumentService) Upload(actorID uint, input DocumentInput, file *Upload) (*models.Document, error) {
	if _, err := requireBoardMember(s.DB, actorID, s.Now()); err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("%w: file is required", ErrValidation)
	}
	mimeType, err := validateDocument(file, s.Config.MaxDocumentBytes)
	if err != nil {
		return nil, err
	}

	fileName := filepath.Base(strings.ReplaceAll(file.FileName, "\\", "/"))
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = strings.TrimSuffix(fileName, filepath.Ext(fileName))
	}

	doc := models.Document{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		FileName:    fileName,
		MimeType:    mimeType,
		SizeBytes:   int64(len(file.Data)),
		Data:        file.Data,
		UploadedBy:  actorID,
	}
	if err := s.DB.Create(&doc).Error; err != nil {
		return nil, err
	}

	Logger.Info("documents: %q (%d bytes) uploaded by owner %d", doc.FileName, doc.SizeBytes, actorID)
	doc.Data = nil
	return &doc, nil
}

// 2 List returns document metadata, newest first
func (s *DocumentService) List(query models.PaginationQuery) ([]models.Document, int64, error) {
	query.Normalize()

	db := s.DB.Model(&models.Document{})
	if search := strings.TrimSpace(query.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(file_name) LIKE ?", like, like)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var docs []models.Document
	if err := db.Omit("data").
		Order("id DESC").
		Offset(query.Offset()).
		Limit(query.PageSize).
		Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// 3 Download returns a document with its content
func (s *DocumentService) Download(id uint) (*models.Document, error) {
	var doc models.Document
	if err := s.DB.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// 4 Delete removes a document
func (s *DocumentService) Delete(actorID, id uint) error {
	if _, err := requireBoardMember(s.DB, actorID, s.Now()); err != nil {
		return err
	}
	result := s.DB.Delete(&models.Document{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
