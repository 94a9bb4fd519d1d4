package storage

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

// ErrUnreadableImage is returned when an image cannot be decoded.
var ErrUnreadableImage = errors.New("unreadable image")

// Fingerprint is an MD5 digest of decoded pixel bytes. It only detects exact
// pixel duplicates: a recompressed or resized copy gets a different fingerprint.
type Fingerprint [md5.Size]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// FingerprintPixels hashes the raw pixel buffer of a decoded image.
func FingerprintPixels(mat gocv.Mat) (Fingerprint, error) {
	if mat.Empty() {
		return Fingerprint{}, ErrUnreadableImage
	}
	return md5.Sum(mat.ToBytes()), nil
}

// FingerprintFile decodes an image file as BGR and hashes its pixels.
func FingerprintFile(path string) (Fingerprint, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()

	if mat.Empty() {
		return Fingerprint{}, fmt.Errorf("%w: %s", ErrUnreadableImage, path)
	}
	return FingerprintPixels(mat)
}

// FingerprintBytes decodes an encoded image buffer and hashes its pixels.
func FingerprintBytes(data []byte) (Fingerprint, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	defer mat.Close()

	return FingerprintPixels(mat)
}

// IsImageFile reports whether name has a supported image extension.
func IsImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
