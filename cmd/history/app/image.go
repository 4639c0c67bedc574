package app

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
)

func writeImage(path string, format ImageFormat, img image.Image) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	switch format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})

	default:
		err = fmt.Errorf("invalid image format: %s", format)
	}
	return err
}
