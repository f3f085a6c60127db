package provider

import (
	"fmt"
	"net/http"
	"os"
	"strings"
)

// ImageFromFile reads an image file and sniffs its MIME type.
func ImageFromFile(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return Image{}, fmt.Errorf("%s: not an image (detected %s)", path, mimeType)
	}
	return Image{Data: data, MIMEType: mimeType}, nil
}
