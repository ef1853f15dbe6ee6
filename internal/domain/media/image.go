package media

import (
	"fmt"
	"strings"
)

// MaxImageBytes caps a single uploaded image.
const MaxImageBytes = 5 << 20

type Slot string

const (
	SlotHero      Slot = "hero"
	SlotPortfolio Slot = "portfolio"
	SlotReview    Slot = "review"
)

func (s Slot) Valid() bool {
	switch s {
	case SlotHero, SlotPortfolio, SlotReview:
		return true
	}
	return false
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/avif": true,
}

// CheckImage rejects uploads that are not images or are too large.
func CheckImage(contentType string, size int64) error {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if !imageTypes[ct] {
		return fmt.Errorf("unsupported image type %q", contentType)
	}
	if size <= 0 || size > MaxImageBytes {
		return fmt.Errorf("image must be between 1 byte and %d MB", MaxImageBytes>>20)
	}
	return nil
}

// Prefix is the object key prefix for a site's images.
func Prefix(siteID string, slot Slot) string {
	return "sites/" + siteID + "/" + string(slot)
}
