// Package store provides SQLite-backed persistence for the memory daemon.
package store

// SessionStatus is the lifecycle state of a Session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// ObservationKind is the closed set of observation categories.
type ObservationKind string

const (
	KindDecision  ObservationKind = "decision"
	KindBugfix    ObservationKind = "bugfix"
	KindFeature   ObservationKind = "feature"
	KindRefactor  ObservationKind = "refactor"
	KindDiscovery ObservationKind = "discovery"
	KindChange    ObservationKind = "change"
)

// ValidKind reports whether a string is a member of the observation kind enum.
func ValidKind(k string) bool {
	switch ObservationKind(k) {
	case KindDecision, KindBugfix, KindFeature, KindRefactor, KindDiscovery, KindChange:
		return true
	}
	return false
}

// KindImportance maps each kind to its scoring weight (see package retrieval).
var KindImportance = map[ObservationKind]float64{
	KindDecision:  0.8,
	KindBugfix:    0.7,
	KindDiscovery: 0.6,
	KindFeature:   0.5,
	KindRefactor:  0.4,
	KindChange:    0.3,
}

// ConceptTag is the closed set of concept tags an observation may carry.
type ConceptTag string

const (
	ConceptHowItWorks      ConceptTag = "how-it-works"
	ConceptWhyItExists     ConceptTag = "why-it-exists"
	ConceptWhatChanged     ConceptTag = "what-changed"
	ConceptProblemSolution ConceptTag = "problem-solution"
	ConceptGotcha          ConceptTag = "gotcha"
	ConceptPattern         ConceptTag = "pattern"
	ConceptTradeOff        ConceptTag = "trade-off"
)

// ValidConcept reports whether a string is a member of the concept tag enum.
func ValidConcept(c string) bool {
	switch ConceptTag(c) {
	case ConceptHowItWorks, ConceptWhyItExists, ConceptWhatChanged, ConceptProblemSolution,
		ConceptGotcha, ConceptPattern, ConceptTradeOff:
		return true
	}
	return false
}

// Session tracks one host-assistant conversation, keyed by an opaque external ID.
type Session struct {
	ID                int64
	ExternalSessionID string
	Project           string
	UserPrompt        string
	StartedAt         int64
	CompletedAt       *int64
	Status            SessionStatus
	PromptCounter     int
}

// Observation is a single distilled fact/decision/change extracted from a tool call.
type Observation struct {
	ID              int64
	SessionRef      string
	Project         string
	Kind            ObservationKind
	Title           string
	Subtitle        string
	Narrative       string
	Facts           []string
	Concepts        []string
	FilesRead       []string
	FilesModified   []string
	PromptNumber    int
	DiscoveryTokens int64
	CreatedAt       int64
	Embedding       []byte
}

// Summary is a per-session wrap-up distilled from the final exchange.
type Summary struct {
	ID           int64
	SessionRef   string
	Project      string
	Request      string
	Investigated string
	Learned      string
	Completed    string
	NextSteps    string
	Notes        string
	PromptNumber int
	CreatedAt    int64
}

// UserPrompt is a raw (sanitized) user prompt, one per turn.
type UserPrompt struct {
	ID                int64
	ExternalSessionID string
	PromptNumber      int
	PromptText        string
	CreatedAt         int64
}

// CandidateObservation is an Observation augmented with retrieval metadata.
type CandidateObservation struct {
	Observation
	Rank         float64
	HasRank      bool
	HasEmbedding bool
}
