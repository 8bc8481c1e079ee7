// Package documents stores supporting documents attached to appeals.
package documents

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "empverify/pkg/domain-errors"
)

// MaxSize is the largest accepted upload.
const MaxSize = 10 << 20

var allowedTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// File is an upload as received from the client.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Stored describes a persisted document.
type Stored struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	StorageURL   string    `json:"storageUrl"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// prepare enforces the size and type limits and buffers the body. The sniffed
// content type wins over the declared one.
func prepare(f File) ([]byte, string, error) {
	if f.Body == nil || f.Size == 0 {
		return nil, "", dErrors.New(dErrors.CodeValidation, "document is empty")
	}
	if f.Size > MaxSize {
		return nil, "", dErrors.New(dErrors.CodeValidation, "document exceeds the 10 MB limit")
	}
	data, err := io.ReadAll(io.LimitReader(f.Body, MaxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read document: %w", err)
	}
	if len(data) > MaxSize {
		return nil, "", dErrors.New(dErrors.CodeValidation, "document exceeds the 10 MB limit")
	}
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if _, ok := allowedTypes[mime]; !ok {
		return nil, "", dErrors.New(dErrors.CodeValidation, "only PDF, JPEG and PNG documents are allowed")
	}
	return data, mime, nil
}

// objectName builds a collision-free name under pathHint.
func objectName(pathHint, mime string) string {
	name := uuid.NewString() + allowedTypes[mime]
	hint := strings.Trim(path.Clean("/"+pathHint), "/")
	if hint == "" || hint == "." {
		return name
	}
	return hint + "/" + name
}

func newStored(f File, filename, url, mime string, size int, now time.Time) *Stored {
	return &Stored{
		Filename:     filename,
		OriginalName: path.Base(strings.ReplaceAll(f.Name, "\\", "/")),
		StorageURL:   url,
		MimeType:     mime,
		Size:         int64(size),
		UploadedAt:   now,
	}
}
