package domain

import (
	"fmt"
	"strings"
)

// CustomBackgroundID selects the per-room uploaded background instead of a
// catalog entry.
const CustomBackgroundID int64 = -1

// Background is a catalog entry.
type Background struct {
	ID    int64  `gorm:"primaryKey"`
	Title string `gorm:"size:100;not null"`
	URL   string `gorm:"size:255;not null"`
}

// BackgroundDescriptor is the single background value stored per room.
type BackgroundDescriptor struct {
	URL   string `json:"backgroundUrl"`
	Title string `json:"backgroundTitle"`
}

// CustomBackground builds the descriptor for a room's own uploaded image.
func CustomBackground(assetBaseURL, roomCode string) BackgroundDescriptor {
	return BackgroundDescriptor{
		URL:   joinAssetURL(assetBaseURL, fmt.Sprintf("backgrounds/%s.png", roomCode)),
		Title: roomCode + "Custom",
	}
}

// CatalogBackground builds the descriptor for a catalog entry. Relative
// catalog URLs are resolved against assetBaseURL.
func CatalogBackground(assetBaseURL string, bg *Background) BackgroundDescriptor {
	url := bg.URL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = joinAssetURL(assetBaseURL, url)
	}
	return BackgroundDescriptor{URL: url, Title: bg.Title}
}

// WithCacheBust appends a version query so clients refetch an image that was
// replaced under the same path.
func (b BackgroundDescriptor) WithCacheBust(version int64) BackgroundDescriptor {
	sep := "?"
	if strings.Contains(b.URL, "?") {
		sep = "&"
	}
	b.URL = fmt.Sprintf("%s%sv=%d", b.URL, sep, version)
	return b
}

func joinAssetURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
