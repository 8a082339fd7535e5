package domain

import (
	"slices"
	"time"
)

// AssetType is the media kind of an asset.
type AssetType string

const (
	AssetTypeImage AssetType = "image"
	AssetTypeAudio AssetType = "audio"
	AssetTypeVideo AssetType = "video"
	AssetTypeGIF   AssetType = "gif"
)

var assetTypes = []AssetType{AssetTypeImage, AssetTypeAudio, AssetTypeVideo, AssetTypeGIF}

// Valid reports whether t is a known asset type.
func (t AssetType) Valid() bool {
	return slices.Contains(assetTypes, t)
}

// Asset is metadata about media that already lives at URL.
type Asset struct {
	ProjectID int64
	AssetID   string
	Name      string
	Type      AssetType
	URL       string
	Size      int64
	MimeType  string
	Thumbnail string
	CreatedAt time.Time
}
