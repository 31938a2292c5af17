// Package loader parses preprocessed source files into the document
// model. Extraction and cleaning happen upstream; this package only
// reads the structured JSON the preprocessing step emits.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
	"github.com/eduplan-labs/eduplan-cli/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// sourceFile is the on-disk JSON shape produced by the preprocessing
// step: document metadata plus ordered sections of typed text.
type sourceFile struct {
	Metadata struct {
		Chapter      string `json:"chapter"`
		Subject      string `json:"subject"`
		ChapterTitle string `json:"chapter_title"`
	} `json:"metadata"`
	Sections []struct {
		Title      string   `json:"title"`
		Page       int      `json:"page"`
		Content    []string `json:"content"`
		Activities []string `json:"activities"`
		Questions  []string `json:"questions"`
	} `json:"sections"`
}

// Loader reads preprocessed JSON documents.
type Loader struct{}

// New creates a document loader.
func New() *Loader {
	return &Loader{}
}

// Load parses the file at path into a Document. The document ID is
// derived from the path, so re-loading the same file supersedes the
// prior document on ingestion.
func (l *Loader) Load(_ context.Context, path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}

	var src sourceFile
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedDocument, path, err)
	}

	doc := &domain.Document{
		ID:         domain.DocumentID(path),
		SourceFile: path,
		Subject:    src.Metadata.Subject,
		Chapter:    src.Metadata.Chapter,
		CreatedAt:  time.Now().UTC(),
	}
	if doc.Subject == "" {
		doc.Subject = "General"
	}

	for _, section := range src.Sections {
		if title := strings.TrimSpace(section.Title); title != "" {
			doc.Segments = append(doc.Segments, domain.Segment{
				Text:         title,
				Type:         domain.ContentHeading,
				Page:         section.Page,
				HeadingLevel: 2,
			})
		}
		for _, text := range section.Content {
			appendSegment(doc, text, domain.ContentBody, section.Page)
		}
		for _, text := range section.Activities {
			appendSegment(doc, text, domain.ContentActivity, section.Page)
		}
		for _, text := range section.Questions {
			appendSegment(doc, text, domain.ContentQuestion, section.Page)
		}
	}

	if !doc.HasText() {
		return nil, fmt.Errorf("%w: no extractable text segments in %s", domain.ErrMalformedDocument, path)
	}

	return doc, nil
}

func appendSegment(doc *domain.Document, text string, typ domain.ContentType, page int) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	doc.Segments = append(doc.Segments, domain.Segment{Text: text, Type: typ, Page: page})
}
