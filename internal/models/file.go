package models

import (
	"path/filepath"
	"strings"
)

// AllowedStudentFileTypes lists the upload types offered for student answers.
// Enforcement happens on the backend; the console only advertises them.
var AllowedStudentFileTypes = []string{".pdf", ".png", ".jpg", ".jpeg"}

// FileHandle is an uploaded file held in memory until it is sent upstream.
type FileHandle struct {
	Name        string
	ContentType string
	Content     []byte
}

func (f FileHandle) Present() bool {
	return f.Name != ""
}

func (f FileHandle) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// HasAllowedStudentType reports whether the file extension is one of AllowedStudentFileTypes.
func (f FileHandle) HasAllowedStudentType() bool {
	ext := f.Ext()
	for _, allowed := range AllowedStudentFileTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}
