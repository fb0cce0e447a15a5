package metadata

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/spf13/cast"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const (
	PlaceholderImage       = "/placeholder.png"
	DefaultName            = "Untitled NFT"
	DefaultDescription     = "No description available"
	UnavailableDescription = "Metadata unavailable"
)

type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Record is the displayable form of a token metadata document.
type Record struct {
	URI         ContentURI      `json:"uri"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       ContentURI      `json:"image"`
	ImageURL    string          `json:"image_url"`
	Attributes  []Attribute     `json:"attributes,omitempty"`
	RawMetadata json.RawMessage `json:"raw_metadata,omitempty"`
	Placeholder bool            `json:"placeholder"`
}

// Placeholder is the record shown when a token's metadata cannot be loaded.
func Placeholder(tokenID *big.Int) *Record {
	return &Record{
		Name:        fmt.Sprintf("NFT #%s", tokenIDString(tokenID)),
		Description: UnavailableDescription,
		Image:       PlaceholderImage,
		ImageURL:    PlaceholderImage,
		Placeholder: true,
	}
}

func tokenIDString(tokenID *big.Int) string {
	if tokenID == nil {
		return "?"
	}
	return tokenID.String()
}

var (
	imageAliases = []string{
		"image", "image_url", "image_uri", "image_link", "image_link_url", "image_link_uri", "image_url_cdn",
	}
	ErrNoImg     = fmt.Errorf("image not found in metadata by any of keys:[%+v]", imageAliases)
	ErrEmptyMeta = errors.New("metadata is empty")
)

func (r *Record) PopulateURI(uri ContentURI) {
	r.URI = uri
}

// UnmarshalFrom fills the record from a raw metadata document, applying
// default texts for missing fields. ErrNoImg is returned with the rest of the
// record populated.
func (r *Record) UnmarshalFrom(raw json.RawMessage) error {
	if len(raw) == 0 {
		r.RawMetadata = json.RawMessage(`{}`)
		return ErrEmptyMeta
	}

	var payload map[string]interface{}
	err := json.Unmarshal(raw, &payload)
	if err != nil {
		return errors.Wrap(err, "failed to unmarshal", logan.F{
			"raw": string(raw),
		})
	}

	r.RawMetadata = raw
	r.Name = cast.ToString(payload["name"])
	if r.Name == "" {
		r.Name = DefaultName
	}
	r.Description = cast.ToString(payload["description"])
	if r.Description == "" {
		r.Description = DefaultDescription
	}
	r.Attributes = parseAttributes(payload["attributes"])

	for _, alias := range imageAliases {
		if rawImage, ok := payload[alias]; ok {
			image, err := cast.ToStringE(rawImage)
			if err != nil {
				return errors.Wrap(err, "failed to cast image", logan.F{
					"raw_image": rawImage,
				})
			}
			r.Image = ContentURI(image).Normalize()
			break
		}
	}

	if r.Image == "" {
		// in order to allow further processing of the metadata without the image
		r.Image = PlaceholderImage
		r.ImageURL = PlaceholderImage
		return ErrNoImg
	}

	return nil
}

func parseAttributes(raw interface{}) []Attribute {
	items, err := cast.ToSliceE(raw)
	if err != nil {
		return nil
	}

	result := make([]Attribute, 0, len(items))
	for _, item := range items {
		fields, err := cast.ToStringMapE(item)
		if err != nil {
			continue
		}
		result = append(result, Attribute{
			TraitType: cast.ToString(fields["trait_type"]),
			Value:     cast.ToString(fields["value"]),
		})
	}

	return result
}
