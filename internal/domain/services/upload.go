package services

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// Upload is a file received from a multipart form
type Upload struct {
	FileName string
	MimeType string
	Data     []byte
}

// isDocumentMime reports whether owners can download mimeType safely
func isDocumentMime(mimeType string) bool {
	switch mimeType {
	case "application/pdf",
		"text/plain",
		"text/csv",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"image/png",
		"image/jpeg":
		return true
	}
	return false
}

// contentType returns the declared MIME type without parameters, falling
// back to the file extension
func (u *Upload) contentType() string {
	declared := strings.ToLower(strings.TrimSpace(u.MimeType))
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mt
	}
	if declared == "" || declared == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(u.FileName))); byExt != "" {
			if mt, _, err := mime.ParseMediaType(byExt); err == nil {
				return mt
			}
		}
	}
	return declared
}

// validateImage accepts only images up to limit bytes
func validateImage(u *Upload, limit int64) (string, error) {
	if int64(len(u.Data)) > limit {
		return "", ErrFileTooLarge
	}
	sniffed := http.DetectContentType(u.Data)
	if !strings.HasPrefix(sniffed, "image/") || !strings.HasPrefix(u.contentType(), "image/") {
		return "", ErrUnsupportedFileType
	}
	return sniffed, nil
}

// oleHeader starts legacy Office files (.doc, .xls)
var oleHeader = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// contentMatches reports whether data looks like a file of mimeType
func contentMatches(mimeType string, data []byte) bool {
	sniffed := http.DetectContentType(data)
	if mt, _, err := mime.ParseMediaType(sniffed); err == nil {
		sniffed = mt
	}
	switch mimeType {
	case "text/plain", "text/csv":
		return sniffed == "text/plain"
	case "application/msword", "application/vnd.ms-excel":
		return bytes.HasPrefix(data, oleHeader)
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return sniffed == "application/zip"
	default:
		return sniffed == mimeType
	}
}

// validateDocument accepts the allow-listed document types up to limit bytes.
// The content must match the declared type.
func validateDocument(u *Upload, limit int64) (string, error) {
	if int64(len(u.Data)) > limit {
		return "", ErrFileTooLarge
	}
	if len(u.Data) == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidation)
	}
	ct := u.contentType()
	if !isDocumentMime(ct) || !contentMatches(ct, u.Data) {
		return "", ErrUnsupportedFileType
	}
	return ct, nil
}
