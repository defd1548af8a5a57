package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultMaxUploadBytes bounds a multipart upload.
const DefaultMaxUploadBytes = 16 << 20

// uploadError is a failed upload read, carrying the HTTP status to answer with.
type uploadError struct {
	status  int
	message string
}

func (e *uploadError) Error() string { return e.message }

// readUpload reads the multipart "file" field. When the field is absent and
// allowMissing is set, it returns an empty filename and no error.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64, allowMissing bool) (string, []byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	// Leave room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, tooLargeError(maxBytes)
		}
		if allowMissing && errors.Is(err, http.ErrNotMultipart) {
			return "", nil, nil
		}
		return "", nil, &uploadError{http.StatusBadRequest, "No file uploaded"}
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		if allowMissing && errors.Is(err, http.ErrMissingFile) {
			return "", nil, nil
		}
		return "", nil, &uploadError{http.StatusBadRequest, "No file uploaded"}
	}
	defer file.Close()

	if hdr.Filename == "" {
		return "", nil, &uploadError{http.StatusBadRequest, "No file selected"}
	}
	if hdr.Size > maxBytes {
		return "", nil, tooLargeError(maxBytes)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, &uploadError{http.StatusBadRequest, fmt.Sprintf("Reading upload: %v", err)}
	}
	return hdr.Filename, data, nil
}

func tooLargeError(maxBytes int64) *uploadError {
	return &uploadError{
		status:  http.StatusRequestEntityTooLarge,
		message: fmt.Sprintf("File too large. Maximum size is %dMB.", maxBytes>>20),
	}
}
