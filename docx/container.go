// Package docx serializes a stored piece into a minimal WordprocessingML
// package without an office-document library.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pecajuridica-backend/models"
	"pecajuridica-backend/templates"
)

// MimeType is the content type of the produced archive
const MimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const nbsp = "\u00a0"

// ErrContainerBuildFailed wraps every filesystem or archiving failure
var ErrContainerBuildFailed = errors.New("failed to build document container")

// DefaultHeader is the institutional block printed above every piece
var DefaultHeader = []string{
	"PODER JUDICIÁRIO",
	"MINUTA GERADA PARA REVISÃO PROFISSIONAL",
}

// Result is a serialized container ready to be sent or stored
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// Builder assembles containers. Working files live in a temporary
// directory under TempDir that is removed before Build returns.
type Builder struct {
	TempDir string
	Header  []string
	Now     func() time.Time
}

// NewBuilder returns a builder using the system temp dir and DefaultHeader
func NewBuilder() *Builder {
	return &Builder{
		Header: DefaultHeader,
		Now:    time.Now,
	}
}

type part struct {
	name    string
	content string
}

// Build renders piece into a .docx archive
func (b *Builder) Build(piece *models.Piece) (*Result, error) {
	if piece == nil {
		return nil, fmt.Errorf("%w: nil piece", ErrContainerBuildFailed)
	}

	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}
	title := documentTitle(piece.DocumentType)

	parts := []part{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", rootRelsXML},
		{"docProps/core.xml", coreXML(title, now)},
		{"docProps/app.xml", appXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
		{"word/document.xml", b.documentXML(title, piece.Text, now)},
	}

	dir, err := os.MkdirTemp(b.TempDir, "peca-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContainerBuildFailed, err)
	}
	defer os.RemoveAll(dir)

	for _, p := range parts {
		if err := writePart(dir, p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrContainerBuildFailed, err)
		}
	}

	data, err := archive(dir, parts, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContainerBuildFailed, err)
	}

	return &Result{
		Data:     data,
		Filename: fmt.Sprintf("peca_%s.docx", piece.ID),
		MimeType: MimeType,
	}, nil
}

func writePart(dir string, p part) error {
	path := filepath.Join(dir, filepath.FromSlash(p.name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", p.name, err)
	}
	if err := os.WriteFile(path, []byte(p.content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p.name, err)
	}
	return nil
}

// archive zips the parts from dir, content types first
func archive(dir string, parts []part, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, p := range parts {
		f, err := os.Open(filepath.Join(dir, filepath.FromSlash(p.name)))
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", p.name, err)
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p.name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to add %s: %w", p.name, err)
		}
		_, err = io.Copy(w, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to compress %s: %w", p.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

func documentTitle(docType models.DocumentType) string {
	if tpl, err := templates.Get(docType); err == nil {
		return tpl.Title
	}
	return templates.SectionTitle(string(docType))
}

func (b *Builder) documentXML(title, text string, now time.Time) string {
	var body strings.Builder

	for _, line := range b.Header {
		body.WriteString(paragraph("InstitutionalHeader", line))
	}
	body.WriteString(paragraph("Title", strings.ToUpper(title)))
	body.WriteString(paragraph("Meta", "Gerado em "+now.Format("02/01/2006 15:04")))

	for _, line := range strings.Split(text, "\n") {
		style, content := classify(line)
		body.WriteString(paragraph(style, content))
	}

	return xml.Header + `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body.String() +
		`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="1701" w:right="1134" w:bottom="1134" w:left="1701" w:header="708" w:footer="708" w:gutter="0"/>` +
		`</w:sectPr></w:body></w:document>`
}

// classify maps a body line to its paragraph style
func classify(line string) (string, string) {
	trimmed := strings.TrimSpace(strings.TrimRight(line, "\r"))
	switch {
	case trimmed == "":
		return "Normal", nbsp
	case strings.HasPrefix(trimmed, "###"):
		return "Heading2", strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
	case strings.HasPrefix(trimmed, "##"):
		return "Heading1", strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
	default:
		return "Normal", strings.TrimRight(line, "\r")
	}
}

func paragraph(style, text string) string {
	var b strings.Builder
	b.WriteString(`<w:p><w:pPr><w:pStyle w:val="`)
	b.WriteString(style)
	b.WriteString(`"/></w:pPr><w:r><w:t xml:space="preserve">`)
	b.WriteString(escape(text))
	b.WriteString(`</w:t></w:r></w:p>`)
	return b.String()
}

func escape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return ""
	}
	return b.String()
}
