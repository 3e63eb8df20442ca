package registry

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is the closed set of generation kinds a Task can belong to.
type Category string

const (
	CategoryCharacterText       Category = "character-image-by-text"
	CategoryCharacterReference  Category = "character-image-by-reference"
	CategoryBackgroundText      Category = "background-image-by-text"
	CategoryBackgroundReference Category = "background-image-by-reference"
)

const (
	ImageTypeCharacter  = "character"
	ImageTypeBackground = "background"

	ModeText      = "text"
	ModeReference = "reference"
)

var allCategories = []Category{
	CategoryCharacterText,
	CategoryCharacterReference,
	CategoryBackgroundText,
	CategoryBackgroundReference,
}

var titleCaser = cases.Title(language.Und)

// Categories returns every known category in display order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseCategory validates a category string.
func ParseCategory(value string) (Category, error) {
	normalized := Category(strings.ToLower(strings.TrimSpace(value)))
	for _, c := range allCategories {
		if c == normalized {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", value)
}

// CategoryFor maps the gateway's (imageType, mode) pair onto a category.
// "ref" is accepted as shorthand for the reference mode.
func CategoryFor(imageType, mode string) (Category, error) {
	imageType = strings.ToLower(strings.TrimSpace(imageType))
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "ref" {
		mode = ModeReference
	}
	switch {
	case imageType == ImageTypeCharacter && mode == ModeText:
		return CategoryCharacterText, nil
	case imageType == ImageTypeCharacter && mode == ModeReference:
		return CategoryCharacterReference, nil
	case imageType == ImageTypeBackground && mode == ModeText:
		return CategoryBackgroundText, nil
	case imageType == ImageTypeBackground && mode == ModeReference:
		return CategoryBackgroundReference, nil
	default:
		return "", fmt.Errorf("unsupported image type %q with mode %q", imageType, mode)
	}
}

// ImageType returns "character" or "background".
func (c Category) ImageType() string {
	switch c {
	case CategoryCharacterText, CategoryCharacterReference:
		return ImageTypeCharacter
	case CategoryBackgroundText, CategoryBackgroundReference:
		return ImageTypeBackground
	default:
		return ""
	}
}

// Mode returns "text" or "reference".
func (c Category) Mode() string {
	switch c {
	case CategoryCharacterText, CategoryBackgroundText:
		return ModeText
	case CategoryCharacterReference, CategoryBackgroundReference:
		return ModeReference
	default:
		return ""
	}
}

// IsReference reports whether the category requires reference images.
func (c Category) IsReference() bool {
	return c.Mode() == ModeReference
}

// Label renders the category for tables, e.g. "Character Image By Text".
func (c Category) Label() string {
	return titleCaser.String(strings.ReplaceAll(string(c), "-", " "))
}

func (c Category) String() string {
	return string(c)
}
