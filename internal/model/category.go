package model

import (
	"fmt"
	"strings"
)

// Category names one of the three record kinds. Each category owns one local
// slot and one remote path; the mapping is fixed so the same logical category
// behaves identically on either backend.
type Category string

const (
	CategoryPresence Category = "activities"
	CategoryResource Category = "gatherNodes"
	CategoryHostile  Category = "mobHits"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryPresence, CategoryResource, CategoryHostile}

var slotKeys = map[Category]string{
	CategoryPresence: "koh_activities",
	CategoryResource: "koh_gather_nodes",
	CategoryHostile:  "koh_mob_hits",
}

var remotePaths = map[Category]string{
	CategoryPresence: "activities",
	CategoryResource: "gatherNodes",
	CategoryHostile:  "mobHits",
}

var categoryAliases = map[string]Category{
	"activities":  CategoryPresence,
	"activity":    CategoryPresence,
	"presence":    CategoryPresence,
	"gathernodes": CategoryResource,
	"node":        CategoryResource,
	"nodes":       CategoryResource,
	"resource":    CategoryResource,
	"mobhits":     CategoryHostile,
	"hostile":     CategoryHostile,
	"mob":         CategoryHostile,
	"mobs":        CategoryHostile,
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// IsValid checks whether the category is a known value.
func (c Category) IsValid() bool {
	_, ok := slotKeys[c]
	return ok
}

// SlotKey returns the local slot holding the category, or "" when unknown.
func (c Category) SlotKey() string {
	return slotKeys[c]
}

// RemotePath returns the shared-store path of the category, or "" when unknown.
func (c Category) RemotePath() string {
	return remotePaths[c]
}

// ParseCategory resolves a canonical category name or one of its short aliases.
func ParseCategory(s string) (Category, error) {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}
