package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/korjavin/docquizbot/logger"
)

// PageBreak separates pages (or slides) in extracted text.
const PageBreak = "\f"

var (
	ErrUnsupported = errors.New("unsupported document type")
	ErrUnreadable  = errors.New("document could not be read")
)

var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Extractor pulls plain text out of uploaded documents.
type Extractor struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Extractor {
	return &Extractor{log: log.With("component", "DocumentExtractor")}
}

// Extract returns the text of a pdf, ppt or pptx document with pages joined
// by PageBreak.
func (e *Extractor) Extract(ctx context.Context, data []byte, ext string) (text string, err error) {
	_, span := otel.Tracer("github.com/korjavin/docquizbot/extractor").Start(ctx, "extractor.extract")
	defer span.End()
	span.SetAttributes(attribute.String("document.extension", ext), attribute.Int("document.bytes", len(data)))

	defer func() {
		// the pdf reader panics on some malformed files
		if r := recover(); r != nil {
			e.log.Warn("Extractor panic", "extension", ext, "panic", r)
			text, err = "", fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "extraction failed")
		}
	}()

	switch strings.ToLower(ext) {
	case "pdf":
		text, err = extractPDF(data)
	case "pptx", "ppt":
		// legacy binary .ppt is not a zip archive and fails here
		text, err = extractPresentation(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	if err != nil {
		return "", err
	}

	e.log.Info("Document extracted",
		"extension", ext,
		"bytes", len(data),
		"pages", strings.Count(text, PageBreak)+1,
		"chars", len(text),
	)
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrUnreadable, i, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return strings.Join(pages, PageBreak), nil
}

type slideFile struct {
	num  int
	file *zip.File
}

func extractPresentation(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var slides []slideFile
	for _, f := range zr.File {
		m := slidePattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slideFile{num: n, file: f})
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("%w: no slides found", ErrUnreadable)
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	texts := make([]string, 0, len(slides))
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, s.file.Name, err)
		}
		text, err := slideText(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, s.file.Name, err)
		}
		texts = append(texts, text)
	}
	return strings.Join(texts, PageBreak), nil
}

// slideText collects the text runs (<a:t>) of a slide, one line per paragraph.
func slideText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		lines  []string
		cur    strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if line := strings.TrimSpace(cur.String()); line != "" {
					lines = append(lines, line)
				}
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	if line := strings.TrimSpace(cur.String()); line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}
