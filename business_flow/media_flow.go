package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/helpinghand/donor-admin/app/dto"
	"github.com/helpinghand/donor-admin/config"
	"github.com/helpinghand/donor-admin/models"
	"github.com/helpinghand/donor-admin/repository"
)

// MediaFlow handles campaign image uploads. Images are decoded, downscaled to
// the configured maximum width, re-encoded, and stored under the media
// directory for embedding in campaign bodies.
type MediaFlow interface {
	UploadCampaignImage(ctx context.Context, file io.Reader, originalFilename string, metadata *ClientMetadata) (*dto.UploadCampaignImageResponse, error)
	ReadCampaignImage(ctx context.Context, fileName string) (string, []byte, error)
}

// MediaFlowImpl implements the media business flow
type MediaFlowImpl struct {
	cfg       config.MediaConfig
	auditRepo repository.AuditLogRepository
}

// NewMediaFlow creates a new media flow instance
func NewMediaFlow(cfg config.MediaConfig, auditRepo repository.AuditLogRepository) MediaFlow {
	return &MediaFlowImpl{
		cfg:       cfg,
		auditRepo: auditRepo,
	}
}

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadCampaignImage validates, downscales, and stores one image
func (mf *MediaFlowImpl) UploadCampaignImage(ctx context.Context, file io.Reader, originalFilename string, metadata *ClientMetadata) (*dto.UploadCampaignImageResponse, error) {
	if file == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "file is required", nil)
	}

	ext := strings.ToLower(filepath.Ext(originalFilename))
	if !allowedImageExts[ext] {
		return nil, NewBusinessError(dto.ErrorUnsupportedImage, "allowed file types: jpg, jpeg, png, gif, webp", nil)
	}

	limited := io.LimitReader(file, int64(mf.cfg.MaxUploadBytes)+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(data) > mf.cfg.MaxUploadBytes {
		return nil, NewBusinessError(dto.ErrorImageTooLarge, fmt.Sprintf("file size exceeds %d bytes", mf.cfg.MaxUploadBytes), nil)
	}

	detected := http.DetectContentType(data)
	if !strings.HasPrefix(detected, "image/") {
		return nil, NewBusinessError(dto.ErrorUnsupportedImage, "file content is not an image", nil)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, NewBusinessError(dto.ErrorUnsupportedImage, "failed to decode image", err)
	}

	img = scaleToMaxWidth(img, mf.cfg.MaxImageWidth)
	bounds := img.Bounds()

	var encoded bytes.Buffer
	outExt := ".jpg"
	if format == "png" || format == "gif" {
		outExt = ".png"
		if err := png.Encode(&encoded, img); err != nil {
			return nil, err
		}
	} else {
		if err := jpeg.Encode(&encoded, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(mf.cfg.StorageDir, 0o755); err != nil {
		return nil, err
	}

	fileName := uuid.New().String() + outExt
	fullPath := filepath.Join(mf.cfg.StorageDir, fileName)
	if err := os.WriteFile(fullPath, encoded.Bytes(), 0o644); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Campaign image saved: %s (%dx%d, %d bytes)", fileName, bounds.Dx(), bounds.Dy(), encoded.Len())
	_ = recordAudit(ctx, mf.auditRepo, nil, models.AuditActionCampaignImageSaved, msg, true, nil, metadata)

	return &dto.UploadCampaignImageResponse{
		FileName: fileName,
		URL:      strings.TrimSuffix(mf.cfg.PublicBasePath, "/") + "/" + fileName,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Bytes:    encoded.Len(),
	}, nil
}

// ReadCampaignImage loads a stored image for serving
func (mf *MediaFlowImpl) ReadCampaignImage(ctx context.Context, fileName string) (string, []byte, error) {
	cleaned := filepath.Base(filepath.Clean(fileName))
	if cleaned == "" || cleaned == "." || cleaned != fileName {
		return "", nil, NewBusinessError("INVALID_PATH", "invalid file name", nil)
	}

	fullPath := filepath.Join(mf.cfg.StorageDir, cleaned)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, NewBusinessError("IMAGE_NOT_FOUND", "image not found", nil)
		}
		return "", nil, err
	}

	contentType := "image/jpeg"
	if strings.HasSuffix(cleaned, ".png") {
		contentType = "image/png"
	}
	return contentType, data, nil
}

// scaleToMaxWidth downscales an image preserving aspect ratio; images already
// within bounds are returned unchanged
func scaleToMaxWidth(src image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxWidth {
		return src
	}

	nw := maxWidth
	nh := int(float64(h) * float64(maxWidth) / float64(w))
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
