package core

import (
	"strings"
	"time"
)

type (
	ChecklistCategory string
	Priority          string
)

const (
	CategoryPlumbing    ChecklistCategory = "hydraulika"
	CategoryElectrical  ChecklistCategory = "elektryka"
	CategoryStructure   ChecklistCategory = "konstrukcja"
	CategoryJoinery     ChecklistCategory = "stolarka"
	CategoryVentilation ChecklistCategory = "wentylacja"
	CategoryOther       ChecklistCategory = "inne"
)

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (c ChecklistCategory) IsValid() bool {
	switch c {
	case CategoryPlumbing, CategoryElectrical, CategoryStructure, CategoryJoinery, CategoryVentilation, CategoryOther:
		return true
	}
	return false
}

func (p Priority) IsValid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

type ChecklistItem struct {
	ID          string            `json:"id"`
	Category    ChecklistCategory `json:"category"`
	Task        string            `json:"task"`
	Priority    Priority          `json:"priority"`
	Completed   bool              `json:"completed"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	PhotoIDs    []string          `json:"photoIds,omitempty"`
}

func (i ChecklistItem) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return invalid("id", ErrEmptyName)
	}
	if !i.Category.IsValid() {
		return invalid("category", ErrInvalidCategory)
	}
	if !i.Priority.IsValid() {
		return invalid("priority", ErrInvalidPriority)
	}
	if strings.TrimSpace(i.Task) == "" {
		return invalid("task", ErrEmptyName)
	}
	return nil
}

// Checklist is the inspection checklist of a project.
type Checklist struct {
	Items          []ChecklistItem `json:"items"`
	GeneratedAt    time.Time       `json:"generatedAt"`
	CompletedCount int             `json:"completedCount"`
	TotalCount     int             `json:"totalCount"`
}

// NewChecklist wraps generated items and computes the counters.
func NewChecklist(items []ChecklistItem, now time.Time) Checklist {
	c := Checklist{Items: items, GeneratedAt: now}
	c.Recount()
	return c
}

// Recount keeps the counters in sync with the items.
func (c *Checklist) Recount() {
	c.TotalCount = len(c.Items)
	c.CompletedCount = 0
	for _, it := range c.Items {
		if it.Completed {
			c.CompletedCount++
		}
	}
}

// Progress is the completed share in whole percent.
func (c Checklist) Progress() int {
	return percent(int64(c.CompletedCount), int64(c.TotalCount))
}

func (c Checklist) find(itemID string) int {
	for i, it := range c.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// Item returns the item with the given id.
func (c Checklist) Item(itemID string) (ChecklistItem, bool) {
	if i := c.find(itemID); i >= 0 {
		return c.Items[i], true
	}
	return ChecklistItem{}, false
}

// Toggle sets the completion state of an item.
func (c *Checklist) Toggle(itemID string, completed bool, now time.Time) error {
	i := c.find(itemID)
	if i < 0 {
		return ErrNotFound
	}
	c.Items[i].Completed = completed
	if completed {
		t := now
		c.Items[i].CompletedAt = &t
	} else {
		c.Items[i].CompletedAt = nil
	}
	c.Recount()
	return nil
}

// SetNotes replaces the free-form note of an item.
func (c *Checklist) SetNotes(itemID, notes string) error {
	i := c.find(itemID)
	if i < 0 {
		return ErrNotFound
	}
	c.Items[i].Notes = strings.TrimSpace(notes)
	return nil
}

// AttachPhoto links a photo id to an item, ignoring duplicates.
func (c *Checklist) AttachPhoto(itemID, photoID string) error {
	i := c.find(itemID)
	if i < 0 {
		return ErrNotFound
	}
	for _, id := range c.Items[i].PhotoIDs {
		if id == photoID {
			return nil
		}
	}
	c.Items[i].PhotoIDs = append(c.Items[i].PhotoIDs, photoID)
	return nil
}

// DetachPhoto removes a photo id from every item.
func (c *Checklist) DetachPhoto(photoID string) {
	for i := range c.Items {
		ids := c.Items[i].PhotoIDs[:0]
		for _, id := range c.Items[i].PhotoIDs {
			if id != photoID {
				ids = append(ids, id)
			}
		}
		c.Items[i].PhotoIDs = ids
	}
}

// GroupByCategory returns items grouped by category in first-seen order.
func (c Checklist) GroupByCategory() ([]ChecklistCategory, map[ChecklistCategory][]ChecklistItem) {
	var order []ChecklistCategory
	groups := make(map[ChecklistCategory][]ChecklistItem)
	for _, it := range c.Items {
		if _, ok := groups[it.Category]; !ok {
			order = append(order, it.Category)
		}
		groups[it.Category] = append(groups[it.Category], it)
	}
	return order, groups
}
