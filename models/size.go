package models

import (
	"fmt"
	"strings"
)

// FlavorSize is the size tier of a pack and of the flavor units inside it.
type FlavorSize string

const (
	FlavorSizeMini   FlavorSize = "Mini"
	FlavorSizeMedium FlavorSize = "Medium"
	FlavorSizeLarge  FlavorSize = "Large"
)

// Size mirrors the sizes lookup table referenced by product_instance_flavors.
type Size struct {
	ID   uint       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name FlavorSize `gorm:"type:varchar(10);uniqueIndex;not null" json:"name"`
}

// Sizes is the fixed content of the sizes table.
func Sizes() []Size {
	return []Size{
		{ID: FlavorSizeMini.ID(), Name: FlavorSizeMini},
		{ID: FlavorSizeMedium.ID(), Name: FlavorSizeMedium},
		{ID: FlavorSizeLarge.ID(), Name: FlavorSizeLarge},
	}
}

// ParseFlavorSize accepts any casing of Mini, Medium or Large.
func ParseFlavorSize(s string) (FlavorSize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mini":
		return FlavorSizeMini, nil
	case "medium":
		return FlavorSizeMedium, nil
	case "large":
		return FlavorSizeLarge, nil
	default:
		return "", fmt.Errorf("unknown flavor size %q", s)
	}
}

// Tier collapses unknown values to Mini, matching how prices and stock are selected.
func (s FlavorSize) Tier() FlavorSize {
	switch s {
	case FlavorSizeLarge, FlavorSizeMedium:
		return s
	default:
		return FlavorSizeMini
	}
}

// ID is the sizes table key: Mini=1, Medium=2, Large=3.
func (s FlavorSize) ID() uint {
	switch s.Tier() {
	case FlavorSizeLarge:
		return 3
	case FlavorSizeMedium:
		return 2
	default:
		return 1
	}
}
