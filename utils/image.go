package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"school-directory/models"

	"github.com/gabriel-vasile/mimetype"
)

// ImageInfo is what the upload path needs to know about an accepted file.
type ImageInfo struct {
	ContentType string
	Extension   string
	Size        int64
}

// InspectImage checks the size of an uploaded file and sniffs its content;
// the declared Content-Type of the part is not trusted. The file is rewound
// before returning so it can be streamed to the image host.
func InspectImage(file multipart.File, header *multipart.FileHeader, maxBytes int64) (ImageInfo, error) {
	if header.Size > maxBytes {
		return ImageInfo{}, &models.ValidationError{
			Field:   "image",
			Message: "image must be at most " + sizeLabel(maxBytes),
		}
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return ImageInfo{}, &models.ValidationError{Field: "image", Message: "Could not read image"}
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return ImageInfo{}, &models.ValidationError{Field: "image", Message: "Only image files are allowed"}
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return ImageInfo{}, fmt.Errorf("rewind image: %w", err)
	}

	return ImageInfo{
		ContentType: mtype.String(),
		Extension:   mtype.Extension(),
		Size:        header.Size,
	}, nil
}

func sizeLabel(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}
