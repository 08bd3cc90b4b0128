package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const (
	docxDefaultDocumentPath = "word/document.xml"
	contentTypesPath        = "[Content_Types].xml"
	docxMainContentType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	wordprocessingNS        = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// extractDOCX streams the main document part and emits the text of every w:t run,
// with a newline after each paragraph and a space for tabs and breaks.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	docPath := docxDefaultDocumentPath
	if p := mainDocumentPath(zr); p != "" {
		docPath = p
	}
	f := findZipFile(zr, docPath)
	if f == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docPath)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("extract DOCX: open %s: %w", docPath, err)
	}
	defer rc.Close()

	var b strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("extract DOCX: parse %s: %w", docPath, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab", "br":
				b.WriteByte(' ')
			}
		case xml.EndElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

// mainDocumentPath reads [Content_Types].xml for the part holding the main document.
func mainDocumentPath(zr *zip.Reader) string {
	f := findZipFile(zr, contentTypesPath)
	if f == nil {
		return ""
	}
	rc, err := f.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()

	var types struct {
		Overrides []struct {
			PartName    string `xml:"PartName,attr"`
			ContentType string `xml:"ContentType,attr"`
		} `xml:"Override"`
	}
	if err := xml.NewDecoder(rc).Decode(&types); err != nil {
		return ""
	}
	for _, o := range types.Overrides {
		if o.ContentType == docxMainContentType {
			return strings.TrimPrefix(o.PartName, "/")
		}
	}
	return ""
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
