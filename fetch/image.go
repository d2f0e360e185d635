// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package fetch

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	"github.com/nfnt/resize"
	"github.com/poiesic/imagecat/core"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"
)

// DuplicateThreshold is the dHash Hamming distance below which two images
// look alike. dHash ignores color, so look-alikes may still differ.
const DuplicateThreshold = 10

const previewQuality = 85

// Image is a fetched and decoded image.
type Image struct {
	URL         string
	Data        []byte
	MIMEType    string
	Format      string          // decoder name: jpeg, png, gif, webp
	Dimensions  core.Dimensions // display orientation
	Orientation int             // EXIF orientation tag, 1 when absent
	Digest      core.ID         // content hash of Data; equal only for identical bytes
	Hash        *goimagehash.ImageHash

	decoded image.Image
}

// Decode builds an Image from raw bytes.
func Decode(url string, data []byte) (*Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	bounds := img.Bounds()
	out := &Image{
		URL:         url,
		Data:        data,
		MIMEType:    "image/" + format,
		Format:      format,
		Dimensions:  core.Dimensions{Width: bounds.Dx(), Height: bounds.Dy()},
		Orientation: exifOrientation(data),
		Digest:      core.IDFromContent(string(data)),
		decoded:     img,
	}
	// Orientations 5-8 are rotated by 90 degrees.
	if out.Orientation >= 5 && out.Orientation <= 8 {
		out.Dimensions.Width, out.Dimensions.Height = out.Dimensions.Height, out.Dimensions.Width
	}
	if hash, err := goimagehash.DifferenceHash(img); err == nil {
		out.Hash = hash
	}
	return out, nil
}

func exifOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// Similar reports whether two images look alike in grayscale structure.
func (i *Image) Similar(other *Image) bool {
	if i == nil || other == nil || i.Hash == nil || other.Hash == nil {
		return false
	}
	dist, err := i.Hash.Distance(other.Hash)
	return err == nil && dist < DuplicateThreshold
}

// Preview returns the image scaled to fit within maxDim on its longest side
// and encoded as JPEG. Images already within bounds are re-encoded only when
// their format is not widely accepted by vision APIs.
func (i *Image) Preview(maxDim uint) ([]byte, string, error) {
	if i.decoded == nil {
		return i.Data, i.MIMEType, nil
	}
	b := i.decoded.Bounds()
	small := maxDim == 0 || (uint(b.Dx()) <= maxDim && uint(b.Dy()) <= maxDim)
	if small && (i.Format == "jpeg" || i.Format == "png") {
		return i.Data, i.MIMEType, nil
	}

	img := i.decoded
	if !small {
		img = resize.Thumbnail(maxDim, maxDim, i.decoded, resize.Lanczos3)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: previewQuality}); err != nil {
		return nil, "", fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// EncodeDataURL creates a data: URI from bytes and MIME type.
func EncodeDataURL(data []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
