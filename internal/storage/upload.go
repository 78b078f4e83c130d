package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrEmptyFile       = errors.New("empty file")
)

// Upload - прочитанный и проверенный файл из multipart-запроса
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

func (u *Upload) Size() int64 { return int64(len(u.Data)) }

func (u *Upload) Reader() io.Reader { return bytes.NewReader(u.Data) }

// IsImage - для логотипов, которые нужно ужать
func (u *Upload) IsImage() bool { return strings.HasPrefix(u.ContentType, "image/") }

// ReadUpload читает не больше maxSize байт и определяет тип по содержимому,
// а не по заголовку клиента
func ReadUpload(r io.Reader, fileName string, maxSize int64, allowedTypes []string) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > maxSize {
		return nil, ErrFileTooLarge
	}

	contentType := http.DetectContentType(data)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}

	if !typeAllowed(contentType, allowedTypes) {
		return nil, ErrInvalidFileType
	}

	return &Upload{FileName: path.Base(fileName), ContentType: contentType, Data: data}, nil
}

func typeAllowed(contentType string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, t := range allowed {
		if strings.EqualFold(t, contentType) {
			return true
		}
	}
	return false
}

// ObjectKey - уникальный ключ вида documents/<owner>/<kind>/2024/05/<uuid>.pdf
func ObjectKey(owner, kind, contentType string) string {
	now := time.Now().UTC()
	return fmt.Sprintf("documents/%s/%s/%04d/%02d/%s%s",
		owner, kind, now.Year(), int(now.Month()), uuid.NewString(), extensionFor(contentType))
}

func extensionFor(contentType string) string {
	switch contentType {
	case "application/pdf":
		return ".pdf"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
