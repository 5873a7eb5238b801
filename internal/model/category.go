package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// CategorySeparator splits a parent category from its child in the wire encoding.
const CategorySeparator = ":"

// TransferCategory is the reserved category carried by transfer transactions.
// It never takes part in category filtering or category balances.
var TransferCategory = Category{Name: "Transfer"}

// Category is a one-level category hierarchy. Parent is empty for top-level categories.
type Category struct {
	Parent string
	Name   string
}

// ParseCategory decodes the "Parent: Child" wire form, splitting on the first separator.
func ParseCategory(s string) Category {
	parent, name, found := strings.Cut(s, CategorySeparator)
	if !found {
		return Category{Name: strings.TrimSpace(s)}
	}
	return Category{
		Parent: strings.TrimSpace(parent),
		Name:   strings.TrimSpace(name),
	}
}

// String returns the wire encoding of the category.
func (c Category) String() string {
	if c.Parent == "" {
		return c.Name
	}
	return c.Parent + CategorySeparator + " " + c.Name
}

// IsZero reports whether the category is unset.
func (c Category) IsZero() bool {
	return c.Parent == "" && c.Name == ""
}

// IsChild reports whether the category has a parent.
func (c Category) IsChild() bool {
	return c.Parent != ""
}

// Label is the display label: the leaf name only.
func (c Category) Label() string {
	return c.Name
}

// MarshalJSON encodes the category as its wire string.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes the category from its wire string. null yields the zero category.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*c = Category{}
		return nil
	}
	*c = ParseCategory(*s)
	return nil
}

// SortCategories orders categories so that each parent is directly followed by its
// children, parents and children each sorted by name.
func SortCategories(cats []Category) []Category {
	out := make([]Category, len(cats))
	copy(out, cats)

	groupKey := func(c Category) string {
		if c.Parent != "" {
			return c.Parent
		}
		return c.Name
	}

	sort.SliceStable(out, func(i, j int) bool {
		gi, gj := groupKey(out[i]), groupKey(out[j])
		if gi != gj {
			return gi < gj
		}
		// parent before its children
		if out[i].IsChild() != out[j].IsChild() {
			return !out[i].IsChild()
		}
		return out[i].Name < out[j].Name
	})
	return out
}
