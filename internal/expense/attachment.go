package expense

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	errors "github.com/frahmantamala/expense-client/internal"
)

type PreviewKind string

const (
	PreviewImage PreviewKind = "image"
	PreviewPDF   PreviewKind = "pdf"
	PreviewNone  PreviewKind = "none"
)

// sniffLen is how much of a file content sniffing looks at.
const sniffLen = 512

// Attachment describes a file picked on the form. It is shown, never uploaded.
type Attachment struct {
	Name        string
	Size        int64
	ContentType string
	Preview     PreviewKind
}

func previewKind(contentType string) PreviewKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return PreviewImage
	case contentType == "application/pdf":
		return PreviewPDF
	default:
		return PreviewNone
	}
}

// ReadAttachment sniffs the content type from the first bytes of r.
func ReadAttachment(name string, size int64, r io.Reader) (*Attachment, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, errors.NewValidationError(fmt.Sprintf("cannot read %s", name), errors.ErrCodeAttachmentInvalid).WithCause(err)
	}

	contentType := http.DetectContentType(head[:n])
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	return &Attachment{
		Name:        name,
		Size:        size,
		ContentType: contentType,
		Preview:     previewKind(contentType),
	}, nil
}

func OpenAttachment(path string) (*Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("cannot open %s", path), errors.ErrCodeAttachmentInvalid).WithCause(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("cannot stat %s", path), errors.ErrCodeAttachmentInvalid).WithCause(err)
	}
	if info.IsDir() {
		return nil, errors.NewValidationError(fmt.Sprintf("%s is a directory", path), errors.ErrCodeAttachmentInvalid)
	}

	return ReadAttachment(filepath.Base(path), info.Size(), f)
}
