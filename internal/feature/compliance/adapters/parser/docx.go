package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

const docxBody = "word/document.xml"

var errNoDocxBody = errors.New("docx has no word/document.xml")

// docxPartOrder ranks the WordprocessingML parts that carry text. Headers and
// footers come after the body, then footnotes and endnotes.
func docxPartOrder(name string) (int, bool) {
	switch {
	case name == docxBody:
		return 0, true
	case strings.HasPrefix(name, "word/header") && strings.HasSuffix(name, ".xml"):
		return 1, true
	case strings.HasPrefix(name, "word/footer") && strings.HasSuffix(name, ".xml"):
		return 2, true
	case name == "word/footnotes.xml":
		return 3, true
	case name == "word/endnotes.xml":
		return 4, true
	}
	return 0, false
}

// extractDocx returns the paragraph text of a .docx file, one paragraph per
// line, with tabs and line breaks preserved. Table cells, headers, footers
// and notes are included.
func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var parts []*zip.File
	hasBody := false
	for _, f := range zr.File {
		if _, ok := docxPartOrder(f.Name); ok {
			parts = append(parts, f)
			hasBody = hasBody || f.Name == docxBody
		}
	}
	if !hasBody {
		return "", errNoDocxBody
	}
	sort.SliceStable(parts, func(i, j int) bool {
		oi, _ := docxPartOrder(parts[i].Name)
		oj, _ := docxPartOrder(parts[j].Name)
		if oi != oj {
			return oi < oj
		}
		return parts[i].Name < parts[j].Name
	})

	texts := make([]string, 0, len(parts))
	for _, f := range parts {
		text, err := partText(f)
		if err != nil {
			return "", err
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n\n"), nil
}

func partText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return paragraphText(rc)
}

// paragraphText walks WordprocessingML and collects w:t runs.
func paragraphText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		out    strings.Builder
		para   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx body: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if line := strings.TrimSpace(para.String()); line != "" {
					out.WriteString(line)
					out.WriteString("\n\n")
				}
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	if line := strings.TrimSpace(para.String()); line != "" {
		out.WriteString(line)
	}
	return strings.TrimSpace(out.String()), nil
}
