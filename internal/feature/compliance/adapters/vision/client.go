// Package vision はGoogle Cloud Vision APIを使用したOCRクライアントを提供します。
package vision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
)

const (
	// pdfPagesPerRequest is the page limit of one synchronous BatchAnnotateFiles request.
	pdfPagesPerRequest = 5
	// maxPDFPages caps OCR of a single document.
	maxPDFPages = 200
)

// annotator is the subset of *gvision.ImageAnnotatorClient used for OCR.
type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	BatchAnnotateFiles(ctx context.Context, req *visionpb.BatchAnnotateFilesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateFilesResponse, error)
	Close() error
}

// OCR extracts text from PDFs and images with DOCUMENT_TEXT_DETECTION.
type OCR struct {
	client annotator
}

// NewOCR はADCを使用してOCRの新しいインスタンスを生成します。
func NewOCR(ctx context.Context) (*OCR, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &OCR{client: client}, nil
}

// Close はVision APIクライアントを解放します。
func (o *OCR) Close() error {
	return o.client.Close()
}

// ExtractText returns the text of data. PDFs are read five pages per request
// up to maxPDFPages.
func (o *OCR) ExtractText(ctx context.Context, data []byte, mimeType string) (string, error) {
	if mimeType == "application/pdf" {
		return o.extractPDF(ctx, data)
	}
	return o.extractImage(ctx, data)
}

func (o *OCR) extractImage(ctx context.Context, data []byte) (string, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image:    &visionpb.Image{Content: data},
				Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
			},
		},
	}

	resp, err := o.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision API request failed: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", nil
	}
	if resp.Responses[0].Error != nil {
		return "", fmt.Errorf("vision API error: %s", resp.Responses[0].Error.Message)
	}
	return resp.Responses[0].GetFullTextAnnotation().GetText(), nil
}

func (o *OCR) extractPDF(ctx context.Context, data []byte) (string, error) {
	var texts []string
	total := int32(pdfPagesPerRequest)
	for first := int32(1); first <= total && first <= maxPDFPages; first += pdfPagesPerRequest {
		last := min(first+pdfPagesPerRequest-1, total, maxPDFPages)
		pages := make([]int32, 0, last-first+1)
		for p := first; p <= last; p++ {
			pages = append(pages, p)
		}

		file, err := o.annotatePages(ctx, data, pages)
		if err != nil {
			return "", err
		}
		if file == nil {
			break
		}
		if file.TotalPages > 0 {
			total = file.TotalPages
		}
		for _, page := range file.Responses {
			if page.Error != nil {
				return "", fmt.Errorf("vision API error: %s", page.Error.Message)
			}
			if t := page.GetFullTextAnnotation().GetText(); t != "" {
				texts = append(texts, t)
			}
		}
	}
	if total > maxPDFPages {
		slog.Warn("pdf exceeds the OCR page limit, remaining pages skipped", "pages", total, "limit", maxPDFPages)
	}
	return strings.Join(texts, "\n"), nil
}

func (o *OCR) annotatePages(ctx context.Context, data []byte, pages []int32) (*visionpb.AnnotateFileResponse, error) {
	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{Content: data, MimeType: "application/pdf"},
				Features:    []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
				Pages:       pages,
			},
		},
	}

	resp, err := o.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision API request failed: %w", err)
	}
	if len(resp.Responses) == 0 {
		return nil, nil
	}
	file := resp.Responses[0]
	if file.Error != nil {
		return nil, fmt.Errorf("vision API error: %s", file.Error.Message)
	}
	return file, nil
}
