package normalisers

import (
	"net/http"
	"path/filepath"
	"strings"
)

// TitleFromPath derives a human-readable title from a file path:
// the base name without extension, with underscores and dashes as spaces.
func TitleFromPath(path string) string {
	filename := filepath.Base(path)
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

// SplitPages splits extracted text on form feeds into 1-based pages.
// A trailing form feed does not start an extra page.
func SplitPages(text string) []string {
	text = strings.TrimSuffix(text, "\f")
	return strings.Split(text, "\f")
}

// extensionTypes maps the file extensions the library imports to MIME types.
var extensionTypes = map[string]string{
	".pdf":      "application/pdf",
	".txt":      "text/plain",
	".text":     "text/plain",
	".csv":      "text/csv",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".xhtml":    "application/xhtml+xml",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// DetectMIMEType returns the MIME type of a source from its extension,
// falling back to content sniffing.
func DetectMIMEType(path string, content []byte) string {
	if mime, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	mime := http.DetectContentType(content)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return mime
}

// SupportedExtension reports whether path has an extension the library imports.
func SupportedExtension(path string) bool {
	_, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}
