package services

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sjperalta/studio-finance-api/internal/storage"
)

const (
	receiptMaxEdge     = 1600
	receiptJPEGQuality = 80
	receiptSubDir      = "receipts"
)

// ImageService prepares uploaded receipt files for storage
type ImageService struct {
	storage *storage.LocalStorage
}

func NewImageService(store *storage.LocalStorage) *ImageService {
	return &ImageService{storage: store}
}

// SaveReceipt stores an uploaded expense receipt and returns its relative path.
// Photos are downscaled to fit receiptMaxEdge and re-encoded as JPEG; PDFs
// are stored as uploaded.
func (s *ImageService) SaveReceipt(data []byte, filename, contentType string) (string, error) {
	if !storage.IsValidContentType(contentType) {
		return "", validationError("unsupported receipt type %q (allowed: PDF, JPG, PNG)", contentType)
	}
	if int64(len(data)) > storage.MaxFileSize() {
		return "", validationError("receipt exceeds %d MB", storage.MaxFileSize()/(1024*1024))
	}

	if strings.HasPrefix(contentType, "image/") {
		compressed, err := s.compress(data)
		if err != nil {
			return "", validationError("receipt image could not be decoded")
		}
		data = compressed
		filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg"
	}

	path, err := s.storage.Save(data, filename, receiptSubDir)
	if err != nil {
		return "", externalError("failed to store receipt", err)
	}
	return path, nil
}

func (s *ImageService) compress(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > receiptMaxEdge || b.Dy() > receiptMaxEdge {
		img = imaging.Fit(img, receiptMaxEdge, receiptMaxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(receiptJPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
