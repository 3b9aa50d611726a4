package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	SectionPlan       SectionType = "plan"
	SectionElectrical SectionType = "electrical"
	SectionPlumbing   SectionType = "plumbing"
	SectionCarpentry  SectionType = "carpentry"
	SectionFinishing  SectionType = "finishing"
	SectionCosts      SectionType = "costs"
)

const (
	StatusNotStarted SectionStatus = "not_started"
	StatusInProgress SectionStatus = "in_progress"
	StatusCompleted  SectionStatus = "completed"
)

const (
	MarketPrimary   MarketType = "primary"
	MarketSecondary MarketType = "secondary"
)

const (
	MediaImage    MediaKind = "image"
	MediaAudio    MediaKind = "audio"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

// Field limits shared by validation and the HTTP layer.
const (
	MaxDescriptionLen    = 200
	MaxNoteContentLen    = 10000
	MaxContractorNameLen = 120
	MaxProjectNameLen    = 120
	MaxTagsPerNote       = 20
	MaxTagLen            = 40
)

type (
	SectionType   string
	SectionStatus string
	MarketType    string
	MediaKind     string

	// Date is a calendar day without a time component.
	Date struct {
		time.Time
	}

	Project struct {
		ID                string     `json:"id"`
		UserID            string     `json:"userId"`
		Name              string     `json:"name"`
		Address           string     `json:"address"`
		Area              float64    `json:"area"`
		Floor             int        `json:"floor"`
		HasElevator       bool       `json:"hasElevator"`
		MarketType        MarketType `json:"marketType"`
		BudgetPlanned     Money      `json:"budgetPlanned"`
		BudgetSpent       Money      `json:"budgetSpent"`
		YearBuilt         int        `json:"yearBuilt,omitempty"`
		HasParking        bool       `json:"hasParking"`
		FloorPlanURL      string     `json:"floorPlanUrl,omitempty"`
		ChecklistProgress int        `json:"checklistProgress"`
		CreatedAt         time.Time  `json:"createdAt"`
		UpdatedAt         time.Time  `json:"updatedAt"`
	}

	Section struct {
		ID        string        `json:"id"`
		ProjectID string        `json:"projectId"`
		Type      SectionType   `json:"type"`
		Status    SectionStatus `json:"status"`
		Notes     string        `json:"notes"`
		Planned   Money         `json:"planned"`
		UpdatedAt time.Time     `json:"updatedAt"`
	}

	MediaAttachment struct {
		ID           string    `json:"id"`
		Kind         MediaKind `json:"type"`
		URL          string    `json:"url"`
		ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
		MimeType     string    `json:"mimeType"`
		Size         int64     `json:"size"`
		Name         string    `json:"name"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	Note struct {
		ID              string            `json:"id"`
		SectionID       string            `json:"sectionId"`
		ProjectID       string            `json:"projectId"`
		Content         string            `json:"content"`
		Media           []MediaAttachment `json:"media"`
		AudioTranscript string            `json:"audioTranscript,omitempty"`
		Tags            []string          `json:"tags"`
		CreatedAt       time.Time         `json:"createdAt"`
		UpdatedAt       time.Time         `json:"updatedAt"`
	}

	EstimateItem struct {
		ID         string  `json:"id"`
		Name       string  `json:"name"`
		Quantity   float64 `json:"quantity"`
		Unit       string  `json:"unit"`
		UnitPrice  Money   `json:"unitPrice"`
		TotalPrice Money   `json:"totalPrice"`
		Category   string  `json:"category,omitempty"`
	}

	Estimate struct {
		ID             string         `json:"id"`
		SectionID      string         `json:"sectionId"`
		ProjectID      string         `json:"projectId"`
		ContractorName string         `json:"contractorName"`
		FileURL        string         `json:"fileUrl,omitempty"`
		TotalAmount    Money          `json:"totalAmount"`
		Items          []EstimateItem `json:"items"`
		IsAccepted     bool           `json:"isAccepted"`
		CreatedAt      time.Time      `json:"createdAt"`
		UpdatedAt      time.Time      `json:"updatedAt"`
	}

	Expense struct {
		ID          string    `json:"id"`
		SectionID   string    `json:"sectionId"`
		ProjectID   string    `json:"projectId"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Date        Date      `json:"date"`
		ReceiptURL  string    `json:"receiptUrl,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	Suggestion struct {
		ID        string            `json:"id"`
		ProjectID string            `json:"projectId"`
		Text      string            `json:"suggestionText"`
		Context   map[string]string `json:"context"`
		ShownAt   time.Time         `json:"shownAt"`
		Dismissed bool              `json:"dismissed"`
	}

	InspectionPhoto struct {
		ID              string    `json:"id"`
		ProjectID       string    `json:"projectId"`
		PhotoURL        string    `json:"photoUrl"`
		ThumbnailURL    string    `json:"thumbnailUrl,omitempty"`
		ChecklistItemID string    `json:"checklistItemId,omitempty"`
		CreatedAt       time.Time `json:"createdAt"`
	}

	// PropertyData drives checklist generation.
	PropertyData struct {
		Area        float64    `json:"area"`
		Year        int        `json:"year"`
		Floor       int        `json:"floor"`
		HasElevator bool       `json:"hasElevator"`
		HasParking  bool       `json:"hasParking"`
		MarketType  MarketType `json:"marketType"`
	}
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrEmptyDescription       = errors.New("empty description")
	ErrEmptyName              = errors.New("empty name")
	ErrEmptyContractor        = errors.New("empty contractor name")
	ErrEmptyContent           = errors.New("empty note content")
	ErrInvalidSectionType     = errors.New("invalid section type")
	ErrInvalidSectionStatus   = errors.New("invalid section status")
	ErrInvalidMarketType      = errors.New("invalid market type")
	ErrInvalidMediaKind       = errors.New("invalid media type")
	ErrInvalidPriority        = errors.New("invalid priority")
	ErrInvalidCategory        = errors.New("invalid checklist category")
	ErrMissingProject         = errors.New("missing project id")
	ErrMissingSection         = errors.New("missing section id")
	ErrSectionProjectMismatch = errors.New("section does not belong to project")
)

// ValidationError marks an error as caused by client input.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err was produced by input validation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// SectionTypes returns all section types in canonical display order.
func SectionTypes() []SectionType {
	return []SectionType{SectionPlan, SectionElectrical, SectionPlumbing, SectionCarpentry, SectionFinishing, SectionCosts}
}

func (t SectionType) IsValid() bool {
	return t.Order() >= 0
}

// Order is the index of t in SectionTypes, or -1.
func (t SectionType) Order() int {
	for i, st := range SectionTypes() {
		if st == t {
			return i
		}
	}
	return -1
}

// IsTrade reports whether the section is a contractor trade rather than a meta-category.
func (t SectionType) IsTrade() bool {
	switch t {
	case SectionElectrical, SectionPlumbing, SectionCarpentry, SectionFinishing:
		return true
	}
	return false
}

func (s SectionStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func (m MarketType) IsValid() bool {
	return m == MarketPrimary || m == MarketSecondary
}

func (k MediaKind) IsValid() bool {
	switch k {
	case MediaImage, MediaAudio, MediaVideo, MediaDocument:
		return true
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	// Accept full timestamps from clients that send ISO strings.
	if len(s) > len(time.DateOnly) {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		*d = Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if len(p.Name) > MaxProjectNameLen {
		return invalid("name", fmt.Errorf("too long (max %d characters)", MaxProjectNameLen))
	}
	if p.Area < 0 {
		return invalid("area", errors.New("must not be negative"))
	}
	if p.MarketType != "" && !p.MarketType.IsValid() {
		return invalid("marketType", ErrInvalidMarketType)
	}
	if p.BudgetPlanned.Cents < 0 {
		return invalid("budgetPlanned", ErrInvalidAmount)
	}
	return nil
}

func (s Section) Validate() error {
	if s.ProjectID == "" {
		return invalid("projectId", ErrMissingProject)
	}
	if !s.Type.IsValid() {
		return invalid("type", ErrInvalidSectionType)
	}
	if !s.Status.IsValid() {
		return invalid("status", ErrInvalidSectionStatus)
	}
	if s.Planned.Cents < 0 {
		return invalid("planned", ErrInvalidAmount)
	}
	return nil
}

func (m MediaAttachment) Validate() error {
	if !m.Kind.IsValid() {
		return invalid("type", ErrInvalidMediaKind)
	}
	if strings.TrimSpace(m.URL) == "" {
		return invalid("url", errors.New("empty url"))
	}
	if m.Size < 0 {
		return invalid("size", errors.New("must not be negative"))
	}
	return nil
}

func (n Note) Validate() error {
	if n.SectionID == "" {
		return invalid("sectionId", ErrMissingSection)
	}
	if n.ProjectID == "" {
		return invalid("projectId", ErrMissingProject)
	}
	if strings.TrimSpace(n.Content) == "" && len(n.Media) == 0 {
		return invalid("content", ErrEmptyContent)
	}
	if len(n.Content) > MaxNoteContentLen {
		return invalid("content", fmt.Errorf("too long (max %d characters)", MaxNoteContentLen))
	}
	if err := ValidateTags(n.Tags); err != nil {
		return err
	}
	for _, m := range n.Media {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTags enforces tag count and length limits.
func ValidateTags(tags []string) error {
	if len(tags) > MaxTagsPerNote {
		return invalid("tags", fmt.Errorf("too many tags (max %d)", MaxTagsPerNote))
	}
	for _, t := range tags {
		if strings.TrimSpace(t) == "" {
			return invalid("tags", errors.New("empty tag"))
		}
		if len(t) > MaxTagLen {
			return invalid("tags", fmt.Errorf("tag too long (max %d characters)", MaxTagLen))
		}
	}
	return nil
}

// NormalizeTags trims, lowercases and deduplicates tags preserving order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (i EstimateItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return invalid("items.name", ErrEmptyName)
	}
	if i.Quantity < 0 {
		return invalid("items.quantity", errors.New("must not be negative"))
	}
	if i.UnitPrice.Cents < 0 || i.TotalPrice.Cents < 0 {
		return invalid("items.price", ErrInvalidAmount)
	}
	return nil
}

// Normalize fills the total price from quantity and unit price when absent.
func (i EstimateItem) Normalize() EstimateItem {
	if i.TotalPrice.Cents == 0 && i.UnitPrice.Cents > 0 && i.Quantity > 0 {
		i.TotalPrice = i.UnitPrice.Times(i.Quantity)
	}
	i.Category = strings.TrimSpace(i.Category)
	return i
}

func (e Estimate) Validate() error {
	if e.SectionID == "" {
		return invalid("sectionId", ErrMissingSection)
	}
	if e.ProjectID == "" {
		return invalid("projectId", ErrMissingProject)
	}
	if strings.TrimSpace(e.ContractorName) == "" {
		return invalid("contractorName", ErrEmptyContractor)
	}
	if len(e.ContractorName) > MaxContractorNameLen {
		return invalid("contractorName", fmt.Errorf("too long (max %d characters)", MaxContractorNameLen))
	}
	if e.TotalAmount.Cents < 0 {
		return invalid("totalAmount", ErrInvalidAmount)
	}
	for _, it := range e.Items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ItemsTotal sums item totals.
func (e Estimate) ItemsTotal() Money {
	var total Money
	for _, it := range e.Items {
		total = total.Add(it.TotalPrice)
	}
	return total
}

func (e Expense) Validate() error {
	if e.SectionID == "" {
		return invalid("sectionId", ErrMissingSection)
	}
	if e.ProjectID == "" {
		return invalid("projectId", ErrMissingProject)
	}
	if err := e.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return invalid("description", ErrEmptyDescription)
	}
	if len(e.Description) > MaxDescriptionLen {
		return invalid("description", fmt.Errorf("too long (max %d characters)", MaxDescriptionLen))
	}
	if err := e.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	return nil
}

func (s Suggestion) Validate() error {
	if s.ProjectID == "" {
		return invalid("projectId", ErrMissingProject)
	}
	if strings.TrimSpace(s.Text) == "" {
		return invalid("suggestionText", errors.New("empty suggestion"))
	}
	return nil
}

func (p InspectionPhoto) Validate() error {
	if p.ProjectID == "" {
		return invalid("projectId", ErrMissingProject)
	}
	if strings.TrimSpace(p.PhotoURL) == "" {
		return invalid("photoUrl", errors.New("empty photo url"))
	}
	return nil
}

func (d PropertyData) Validate() error {
	if d.Area <= 0 {
		return invalid("area", errors.New("must be positive"))
	}
	if d.Year < 1800 || d.Year > time.Now().Year()+5 {
		return invalid("year", fmt.Errorf("out of range: %d", d.Year))
	}
	if d.Floor < -5 || d.Floor > 200 {
		return invalid("floor", fmt.Errorf("out of range: %d", d.Floor))
	}
	if !d.MarketType.IsValid() {
		return invalid("marketType", ErrInvalidMarketType)
	}
	return nil
}
