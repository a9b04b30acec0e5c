package hcl

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

const (
	// ContentTypeHCL is the custom MIME type for HCL pipeline definitions
	ContentTypeHCL = "application/vnd.hcl"

	// ContentTypeJSON is the standard MIME type for JSON
	ContentTypeJSON = "application/json"
)

// DetectContentType determines if the content is JSON or HCL based on
// the content-type header and content inspection
func DetectContentType(r *http.Request) (string, error) {
	// First, check if Content-Type header is present and valid
	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			if mediaType == ContentTypeHCL {
				return ContentTypeHCL, nil
			}
			if mediaType == ContentTypeJSON {
				return ContentTypeJSON, nil
			}
		}
	}

	// If Content-Type is not set or not recognized, inspect the content
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read request body: %w", err)
	}

	// Reset the body so it can be read again later
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	trimmedBody := bytes.TrimSpace(body)

	// JSON starts with { or [, HCL typically doesn't
	if len(trimmedBody) > 0 {
		firstChar := trimmedBody[0]
		if firstChar == '{' || firstChar == '[' {
			return ContentTypeJSON, nil
		}

		if IsHCL(trimmedBody) {
			return ContentTypeHCL, nil
		}
	}

	// Default to JSON if we can't determine
	return ContentTypeJSON, nil
}

// IsHCLBasedOnExtension checks if the filename has an HCL extension
func IsHCLBasedOnExtension(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}
