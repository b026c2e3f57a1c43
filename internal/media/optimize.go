package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	KindLogo   = "logo"
	KindAvatar = "avatar"

	maxSizeLogo   = 512
	maxSizeAvatar = 400

	quality = 80

	// MaxUploadBytes caps the raw upload accepted by the handlers.
	MaxUploadBytes = 5 << 20
)

var ErrInvalidImage = errors.New("media: invalid image")

func maxDimension(kind string) (int, error) {
	switch kind {
	case KindLogo:
		return maxSizeLogo, nil
	case KindAvatar:
		return maxSizeAvatar, nil
	}
	return 0, fmt.Errorf("unknown media kind %q", kind)
}

// Optimize decodes a png, jpeg or webp image, shrinks it so that its larger
// side is at most maxDim, and re-encodes it as webp.
func Optimize(data []byte, maxDim int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width > maxDim || height > maxDim {
		var newWidth, newHeight int
		if width > height {
			newWidth = maxDim
			newHeight = int(float64(height) * float64(maxDim) / float64(width))
		} else {
			newHeight = maxDim
			newWidth = int(float64(width) * float64(maxDim) / float64(height))
		}
		img = imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
