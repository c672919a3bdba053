// Package extract inspects uploaded documents before they are stored.
package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Metadata describes an uploaded document.
type Metadata struct {
	ContentType string
	// Pages is the PDF page count, zero when unknown or not a PDF.
	Pages int
}

// Inspect sniffs the content type of data and counts PDF pages.
func Inspect(data []byte, fileName string) Metadata {
	meta := Metadata{ContentType: normalizeMimeType(http.DetectContentType(data), fileName, data)}
	if meta.ContentType == MimePDF {
		if pages, err := CountPages(data); err == nil {
			meta.Pages = pages
		}
	}
	return meta
}

// CountPages returns the number of pages in a PDF document.
func CountPages(data []byte) (n int, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			n, err = 0, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}

func normalizeMimeType(sniffed string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(sniffed, ";")[0]))
	ext := strings.ToLower(filepath.Ext(fileName))
	switch clean {
	case "application/zip":
		if mapped := mapOOXMLFromZip(data); mapped != "" {
			return mapped
		}
		return clean
	case "application/octet-stream", "text/plain":
		if ext == ".pdf" && bytes.HasPrefix(data, []byte("%PDF-")) {
			return MimePDF
		}
		return clean
	default:
		return clean
	}
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		switch name {
		case "word/document.xml":
			return MimeDOCX
		case "xl/workbook.xml":
			return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		case "ppt/presentation.xml":
			return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
		}
	}
	return ""
}
