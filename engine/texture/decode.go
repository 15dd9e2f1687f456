package texture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	"github.com/mauserzjeh/dxt"
	_ "golang.org/x/image/webp"

	"github.com/Carmen-Shannon/oxy-station/common"
)

// DDS layout constants. Only the legacy 128 byte header with a DXT1 or DXT5 FourCC is supported.
const (
	ddsMagic        = "DDS "
	ddsHeaderSize   = 128
	ddsHeightOffset = 12
	ddsWidthOffset  = 16
	ddsFourCCOffset = 84
)

var (
	errUnsupportedDDS = errors.New("unsupported DDS pixel format")
	errTruncatedDDS   = errors.New("truncated DDS payload")
)

// decodeRGBA decodes an encoded image into tightly packed RGBA rows.
//
// Parameters:
//   - data: the encoded payload (JPEG, PNG, WebP or DDS)
//   - flipY: whether to reverse row order
//   - srgb: whether to mark the result as sRGB
//
// Returns:
//   - common.TextureStagingData: the decoded pixels
//   - error: error if the format is unknown or the payload is corrupt
func decodeRGBA(data []byte, flipY, srgb bool) (common.TextureStagingData, error) {
	var (
		pix  []byte
		w, h int
	)

	if bytes.HasPrefix(data, []byte(ddsMagic)) {
		var err error
		pix, w, h, err = decodeDDS(data)
		if err != nil {
			return common.TextureStagingData{}, err
		}
	} else {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return common.TextureStagingData{}, fmt.Errorf("failed to decode image: %w", err)
		}
		b := img.Bounds()
		rgba, ok := img.(*image.RGBA)
		if !ok || rgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
			rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
			draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
		}
		pix, w, h = rgba.Pix, b.Dx(), b.Dy()
	}

	if flipY {
		flipRows(pix, w*4, h)
	}

	return common.TextureStagingData{
		Pixels: pix,
		Width:  uint32(w),
		Height: uint32(h),
		SRGB:   srgb,
	}, nil
}

// decodeDDS decodes the top mip level of a DXT1 or DXT5 compressed DDS file.
func decodeDDS(data []byte) ([]byte, int, int, error) {
	if len(data) < ddsHeaderSize {
		return nil, 0, 0, errTruncatedDDS
	}
	h := int(binary.LittleEndian.Uint32(data[ddsHeightOffset:]))
	w := int(binary.LittleEndian.Uint32(data[ddsWidthOffset:]))
	fourCC := string(data[ddsFourCCOffset : ddsFourCCOffset+4])
	body := data[ddsHeaderSize:]

	blocks := ((w + 3) / 4) * ((h + 3) / 4)
	var (
		pix []byte
		err error
	)
	switch fourCC {
	case "DXT1":
		if len(body) < blocks*8 {
			return nil, 0, 0, errTruncatedDDS
		}
		pix, err = dxt.DecodeDXT1(body, uint(w), uint(h))
	case "DXT5":
		if len(body) < blocks*16 {
			return nil, 0, 0, errTruncatedDDS
		}
		pix, err = dxt.DecodeDXT5(body, uint(w), uint(h))
	default:
		return nil, 0, 0, fmt.Errorf("%w: %q", errUnsupportedDDS, fourCC)
	}
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode %s: %w", fourCC, err)
	}
	return pix, w, h, nil
}

func flipRows(pix []byte, stride, rows int) {
	tmp := make([]byte, stride)
	for top, bottom := 0, rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
