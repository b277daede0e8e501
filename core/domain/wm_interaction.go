package domain

import "time"

// InteractionType is the capture-layer event vocabulary. Only click-like
// types are classified for intent; everything else passes through as ignore.
type InteractionType string

const (
	InteractionClick              InteractionType = "CLICK"
	InteractionInput              InteractionType = "INPUT"
	InteractionScroll             InteractionType = "SCROLL"
	InteractionHover              InteractionType = "HOVER"
	InteractionNavigation         InteractionType = "NAVIGATION"
	InteractionNavigationRestored InteractionType = "navigation_restored"
)

// IsClickLike reports whether the interaction type carries user intent
// worth classifying (a real click, or a restored navigation that replays one).
func (t InteractionType) IsClickLike() bool {
	return t == InteractionClick || t == InteractionNavigationRestored
}

// ShoppingStage is the session-level funnel position reported by the capture layer.
type ShoppingStage string

const (
	StageAwareness     ShoppingStage = "awareness"
	StageConsideration ShoppingStage = "consideration"
	StagePurchase      ShoppingStage = "purchase"
)

// BoundingBox is the pixel-space rectangle of an element at capture time.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a viewport coordinate pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NearbyElement describes an element spatially adjacent to the interacted one,
// used for sibling discovery.
type NearbyElement struct {
	Tag        string  `json:"tag"`
	Text       string  `json:"text"`
	Selector   string  `json:"selector,omitempty"`
	Relative   string  `json:"relative"` // above, below, left, right
	DistancePx float64 `json:"distance_px"`
}

// ElementInfo is the element group of an interaction record.
type ElementInfo struct {
	Tag            string            `json:"tag"`
	Text           string            `json:"text"`
	Attributes     map[string]string `json:"attributes,omitempty"`
	NearbyElements []NearbyElement   `json:"nearby_elements,omitempty"`
}

// VisualInfo is the visual group of an interaction record.
type VisualInfo struct {
	BoundingBox *BoundingBox      `json:"bounding_box,omitempty"`
	DesignHints map[string]string `json:"design_hints,omitempty"` // design-system class hints
}

// PageContext is the context group of an interaction record. DOMSnapshot is a
// serialized fragment of the page around the interaction; it may be empty.
type PageContext struct {
	PageURL     string   `json:"page_url"`
	PageTitle   string   `json:"page_title,omitempty"`
	PageType    PageType `json:"page_type,omitempty"`
	DOMSnapshot string   `json:"dom_snapshot,omitempty"`
}

// StateInfo is the before/after state group of an interaction record.
type StateInfo struct {
	FocusBefore  string            `json:"focus_before,omitempty"`
	FocusAfter   string            `json:"focus_after,omitempty"`
	FormData     map[string]string `json:"form_data,omitempty"`
	DOMMutations []string          `json:"dom_mutations,omitempty"`
}

// InteractionDetail is the interaction group of an interaction record.
type InteractionDetail struct {
	Type        InteractionType `json:"type"`
	Timestamp   time.Time       `json:"timestamp"`
	Coordinates *Point          `json:"coordinates,omitempty"`
}

// InteractionRecord is one raw user interaction as delivered by the capture
// layer: six logical groups, no schema guarantees beyond field presence.
type InteractionRecord struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`

	Selectors   SelectorInfo      `json:"selectors"`
	Visual      VisualInfo        `json:"visual"`
	Element     ElementInfo       `json:"element"`
	Context     PageContext       `json:"context"`
	State       StateInfo         `json:"state"`
	Interaction InteractionDetail `json:"interaction"`
}

// SessionContext is the capture layer's running summary of the session.
type SessionContext struct {
	PageType      PageType      `json:"page_type"`
	UserIntent    string        `json:"user_intent"`
	ShoppingStage ShoppingStage `json:"shopping_stage"`
	BehaviorType  BehaviorType  `json:"behavior_type"`
}

// CapturedSession is one session's ordered interaction list plus its summary,
// as read back from the session store.
type CapturedSession struct {
	ID           string               `json:"id"`
	Context      SessionContext       `json:"context"`
	Interactions []*InteractionRecord `json:"interactions"`
	CapturedAt   time.Time            `json:"captured_at"`
}
