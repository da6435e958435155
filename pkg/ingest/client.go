package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"ai-studypdf-be/internal/pkg/logger"
)

// ProcessedDocument is one extracted piece of the PDF, as returned by
// the extraction service.
type ProcessedDocument struct {
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
}

type DocumentMetadata struct {
	DocType      string `json:"doc_type"`
	Chapter      string `json:"chapter,omitempty"`
	ChapterTitle string `json:"chapter_title,omitempty"`
}

// ProcessPdfResult is the layered extraction payload: one full table of
// contents document, one entry per chapter, and the content chunks.
type ProcessPdfResult struct {
	FullTocDoc ProcessedDocument   `json:"layer1_full_toc_doc"`
	EntryDocs  []ProcessedDocument `json:"layer1_entry_docs"`
	Chunks     []ProcessedDocument `json:"layer3_chunks"`
}

// Client talks to the PDF extraction service, which owns parsing,
// chapter detection and chunking.
type Client struct {
	BaseURL string
	Client  *http.Client
	logger  logger.ILogger
}

func NewClient(baseURL string, logger logger.ILogger) *Client {
	return &Client{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger: logger,
	}
}

// ProcessPdf uploads the PDF bytes for extraction and returns the
// layered documents. Large books can take a while, hence the generous
// client timeout.
func (c *Client) ProcessPdf(ctx context.Context, filename string, pdfBytes []byte) (*ProcessPdfResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart request: %w", err)
	}
	if _, err := part.Write(pdfBytes); err != nil {
		return nil, fmt.Errorf("failed to build multipart request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart request: %w", err)
	}

	url := c.BaseURL + "/process_pdf"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Info("ingest", "sending pdf for extraction", map[string]interface{}{
		"filename": filename,
		"bytes":    len(pdfBytes),
	})

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pdf extraction service unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error != "" {
			return nil, fmt.Errorf("pdf extraction failed (status %d): %s", resp.StatusCode, errBody.Error)
		}
		return nil, fmt.Errorf("pdf extraction failed with status %d", resp.StatusCode)
	}

	var result ProcessPdfResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("unparseable extraction payload: %w", err)
	}

	c.logger.Info("ingest", "pdf extraction complete", map[string]interface{}{
		"chapters": len(result.EntryDocs),
		"chunks":   len(result.Chunks),
	})
	return &result, nil
}
