// Package pdfextract pulls transaction rows out of text-based PDF bank statements.
package pdfextract

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Limits applied to uploaded documents.
const (
	DefaultMaxPages         = 50
	DefaultMaxBytes   int64 = 16 << 20
	MaxFilenameLength       = 255
	MaxFieldLength          = 10000
)

var (
	ErrInvalidFilename = errors.New("Invalid filename")
	ErrNotPDFName      = errors.New("Only PDF files are supported")
	ErrFileTooLarge    = errors.New("File too large")
	ErrInvalidPDF      = errors.New("Invalid PDF file")
	ErrTooManyPages    = errors.New("PDF too large")
	ErrNoEntries       = errors.New("No valid entries found in PDF. Please check the format. The PDF may not contain a recognizable table or text-based data.")
)

var dangerousExtensions = []string{
	".exe", ".bat", ".cmd", ".com", ".pif", ".scr", ".vbs", ".js", ".php", ".asp", ".aspx", ".jsp",
}

var suspiciousFilename = regexp.MustCompile(`(?i)<script|javascript:|vbscript:|onload=|onerror=`)

// ValidateFilename rejects names that could traverse paths, smuggle markup or are not PDFs.
func ValidateFilename(name string) error {
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return ErrInvalidFilename
	}
	lower := strings.ToLower(name)
	for _, ext := range dangerousExtensions {
		if strings.HasSuffix(lower, ext) {
			return ErrInvalidFilename
		}
	}
	if utf8.RuneCountInString(name) > MaxFilenameLength || suspiciousFilename.MatchString(name) {
		return ErrInvalidFilename
	}
	if !strings.HasSuffix(lower, ".pdf") {
		return ErrNotPDFName
	}
	return nil
}

var unsafeChars = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "")

// Sanitize strips markup-significant characters and caps the value length.
func Sanitize(s string) string {
	s = unsafeChars.Replace(s)
	if utf8.RuneCountInString(s) > MaxFieldLength {
		s = string([]rune(s)[:MaxFieldLength])
	}
	return s
}
