package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/korjavin/docquizbot/logger"
)

const slideXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree><p:sp><p:txBody>
<a:p><a:r><a:t>%TITLE%</a:t></a:r></a:p>
<a:p><a:r><a:t>Cardiac </a:t></a:r><a:r><a:t>output</a:t></a:r></a:p>
</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`

func buildPPTX(t *testing.T, slides map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, title := range slides {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		body := bytes.ReplaceAll([]byte(slideXML), []byte("%TITLE%"), []byte(title))
		if _, err := w.Write(body); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	w, _ := zw.Create("ppt/presentation.xml")
	w.Write([]byte(`<p:presentation xmlns:p="x"/>`))
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestExtractPPTXOrdersSlides(t *testing.T) {
	data := buildPPTX(t, map[string]string{
		"ppt/slides/slide10.xml": "Ten",
		"ppt/slides/slide2.xml":  "Two",
		"ppt/slides/slide1.xml":  "One",
	})
	ex := New(logger.Nop())

	text, err := ex.Extract(context.Background(), data, "pptx")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "One\nCardiac output\fTwo\nCardiac output\fTen\nCardiac output"
	if text != want {
		t.Fatalf("text: want=%q got=%q", want, text)
	}
}

func TestExtractPPTWithZipContent(t *testing.T) {
	data := buildPPTX(t, map[string]string{"ppt/slides/slide1.xml": "Only"})
	text, err := New(logger.Nop()).Extract(context.Background(), data, "PPT")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "Only\nCardiac output" {
		t.Fatalf("text: got=%q", text)
	}
}

func TestExtractLegacyPPTFails(t *testing.T) {
	legacy := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0, 0, 0, 0}
	_, err := New(logger.Nop()).Extract(context.Background(), legacy, "ppt")
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("err: want=%v got=%v", ErrUnreadable, err)
	}
}

func TestExtractNoSlides(t *testing.T) {
	data := buildPPTX(t, map[string]string{})
	_, err := New(logger.Nop()).Extract(context.Background(), data, "pptx")
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("err: want=%v got=%v", ErrUnreadable, err)
	}
}

func TestExtractInvalidPDF(t *testing.T) {
	_, err := New(logger.Nop()).Extract(context.Background(), []byte("not a pdf at all"), "pdf")
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("err: want=%v got=%v", ErrUnreadable, err)
	}
}

func TestExtractUnsupported(t *testing.T) {
	_, err := New(logger.Nop()).Extract(context.Background(), []byte("x"), "docx")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err: want=%v got=%v", ErrUnsupported, err)
	}
}
