package model

// Level buckets a continuous signal into three steps.
type Level string

const (
	Low    Level = "LOW"
	Medium Level = "MEDIUM"
	High   Level = "HIGH"
)

// AppProfile describes one analyzed application instance.
type AppProfile struct {
	SourceApp   string  `json:"sourceApp"`
	LikelyBrand *string `json:"likelyBrand"`
	FirstSeen   int64   `json:"firstSeen"`
	LastSeen    int64   `json:"lastSeen"`
	EventCount  int     `json:"eventCount"`
}

// StructureHints summarises layout containers seen in widget class names.
type StructureHints struct {
	HasListContainer bool    `json:"hasListContainer"`
	HasTabs          bool    `json:"hasTabs"`
	HasBottomNav     bool    `json:"hasBottomNav"`
	EmbeddedWebRatio float64 `json:"embeddedWebRatio"`
	EmbeddedWeb      Level   `json:"embeddedWeb"`
}

// CapabilityMap is the fingerprint of which signals an app emits.
type CapabilityMap struct {
	EmitsClicks      bool                  `json:"emitsClicks"`
	EmitsScrolls     bool                  `json:"emitsScrolls"`
	ExposesStableIDs bool                  `json:"exposesStableIds"`
	TextRichness     Level                 `json:"textRichness"`
	Structure        StructureHints        `json:"structure"`
	KnownPatterns    map[Category][]string `json:"knownPatterns"`
}

// TimelineEntry is one collapsed run of same-category events.
type TimelineEntry struct {
	TS         int64    `json:"ts"`
	Category   Category `json:"category"`
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
}

// BusinessInference names a business event the evidence points to.
type BusinessInference struct {
	Hypothesis      string   `json:"hypothesis"`
	BecauseEvidence []string `json:"becauseEvidence"`
	Confidence      float64  `json:"confidence"`
}

// ConfidenceReport groups event descriptions by certainty.
type ConfidenceReport struct {
	Strong  []string   `json:"strong"`
	Medium  []string   `json:"medium"`
	Weak    []string   `json:"weak"`
	Missing []Category `json:"missing"`
}
