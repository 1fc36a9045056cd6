package imagex

import (
	"bufio"
	"image"
	"io"

	// Register every decoder the dataset layer understands.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode sniffs and decodes any registered image format.
func Decode(r io.Reader) (image.Image, string, error) {
	return image.Decode(bufio.NewReader(r))
}
