// Package pptx extracts slide text from PowerPoint (.pptx) archives.
//
// A .pptx is a zip container; slide parts live at ppt/slides/slideN.xml
// and their visible text is the <a:t> runs inside each paragraph.
package pptx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dshalev/slide-explainer/internal/common"
)

// Slide is one slide that carries text. Number is the 1-based position
// in the source deck, counting slides that were later skipped as empty.
type Slide struct {
	Number int
	Text   string
}

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Parse reads a presentation and returns its non-empty slides in deck order.
func Parse(r io.ReaderAt, size int64) ([]Slide, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %v", common.ErrUnparseable, err)
	}

	type slidePart struct {
		n    int
		file *zip.File
	}
	var (
		parts           []slidePart
		hasContentTypes bool
	)
	for _, f := range zr.File {
		if f.Name == "[Content_Types].xml" {
			hasContentTypes = true
			continue
		}
		if m := slidePartRe.FindStringSubmatch(f.Name); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			parts = append(parts, slidePart{n: n, file: f})
		}
	}
	if !hasContentTypes {
		return nil, fmt.Errorf("%w: missing [Content_Types].xml", common.ErrUnparseable)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no slide parts", common.ErrUnparseable)
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })

	var slides []Slide
	for idx, part := range parts {
		text, err := extractSlideText(part.file)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", common.ErrUnparseable, part.file.Name, err)
		}
		if text == "" {
			continue
		}
		slides = append(slides, Slide{Number: idx + 1, Text: text})
	}
	return slides, nil
}

// ParseFile opens path and parses it as a presentation.
func ParseFile(path string) ([]Slide, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open presentation: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat presentation: %w", err)
	}
	return Parse(f, info.Size())
}

// Sniff cheaply checks that the bytes look like a PresentationML archive.
// Intake runs it before accepting an upload.
func Sniff(r io.ReaderAt, size int64) error {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return fmt.Errorf("%w: not a zip archive: %v", common.ErrUnparseable, err)
	}
	for _, f := range zr.File {
		if f.Name == "ppt/presentation.xml" {
			return nil
		}
	}
	return fmt.Errorf("%w: no ppt/presentation.xml part", common.ErrUnparseable)
}

// extractSlideText concatenates the slide's <a:t> runs, paragraph breaks
// becoming spaces, and collapses runs of whitespace.
func extractSlideText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var (
		buf    strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(rc)
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
			switch t.Name.Local {
			case "p":
				buf.WriteByte('\n')
			case "t":
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	return collapseWhitespace(buf.String()), nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
