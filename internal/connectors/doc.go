// Package connectors provides the sources documents are read from.
// The filesystem connector loads local files, scans library directories
// and watches them for new or changed documents.
package connectors
