package domain

import (
	"strings"
	"time"
)

// Supported image dimensions for gpt-image-1.
const (
	SizeSquare    = "1024x1024"
	SizeLandscape = "1536x1024"
	SizePortrait  = "1024x1536"
)

// Quality levels accepted by the generator.
const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
	QualityAuto   = "auto"
)

// Style knobs carried through from the request into stored metadata.
const (
	StyleTypeDark     = "dark"
	StyleTypeLight    = "light"
	StyleTypeStandard = "standard"

	StylePresetInternal  = "internal"
	StylePresetProposals = "proposals"
	StylePresetDefault   = "default"
)

// GenerationRequest is the normalized input for one generation call. It is
// built once per incoming request and never mutated afterwards.
type GenerationRequest struct {
	Prompt      string
	Size        string
	Quality     string
	StyleType   string
	StylePreset string
	Count       int
}

// Normalize applies defaults and clamps Count to the allowed set. Any count
// outside {1, 2, 4} becomes 1.
func (r *GenerationRequest) Normalize() {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Size == "" {
		r.Size = SizeSquare
	}
	if r.Quality == "" {
		r.Quality = QualityMedium
	}
	switch r.Count {
	case 1, 2, 4:
	default:
		r.Count = 1
	}
}

// Validate reports whether the request can be served at all.
func (r *GenerationRequest) Validate() error {
	if r.Prompt == "" {
		return ErrPromptRequired
	}
	return nil
}

// ImageSettings is the display-relevant subset of a GenerationRequest.
type ImageSettings struct {
	Size        string `json:"size"`
	Quality     string `json:"quality"`
	StyleType   string `json:"styleType"`
	StylePreset string `json:"stylePreset"`
}

// SettingsFromRequest fills unset style fields with their display defaults,
// matching what gets written into stored metadata.
func SettingsFromRequest(r GenerationRequest) ImageSettings {
	s := ImageSettings{
		Size:        r.Size,
		Quality:     r.Quality,
		StyleType:   r.StyleType,
		StylePreset: r.StylePreset,
	}
	if s.StyleType == "" {
		s.StyleType = StyleTypeStandard
	}
	if s.StylePreset == "" {
		s.StylePreset = StylePresetDefault
	}
	return s
}

// StorageFlags records which backends successfully persisted a record.
type StorageFlags struct {
	Local bool `json:"local,omitempty"`
	Blob  bool `json:"blob,omitempty"`
	DocDB bool `json:"docdb,omitempty"`
}

// StoredImageRecord is the canonical persisted representation of one
// generated image. Immutable once created.
type StoredImageRecord struct {
	ID        string        `json:"id"`
	Filename  string        `json:"filename"`
	Prompt    string        `json:"prompt"`
	URL       string        `json:"url"`
	CreatedAt time.Time     `json:"createdAt"`
	Settings  ImageSettings `json:"settings"`
	Storage   StorageFlags  `json:"storage,omitempty"`

	// ModTime is backend-native modification time when the backend exposes
	// one (file mtime, object Last-Modified). Zero when unavailable. Used
	// only as an ordering fallback, never displayed.
	ModTime time.Time `json:"-"`
}

// GeneratedVariant is one produced image before persistence. Exactly one of
// Data and URL is set; Data wins when the provider returns both.
type GeneratedVariant struct {
	Index          int
	Data           []byte
	URL            string
	EnhancedPrompt string
}
