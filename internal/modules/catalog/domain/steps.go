package domain

// StepKey identifies a single prompt within a journey. The set is fixed: a
// journal entry's responses are keyed by these and the remote schema stores
// them verbatim, so renaming a key is a breaking change.
type StepKey string

const (
	KeyReflect  StepKey = "reflect"
	KeyRespond  StepKey = "respond"
	KeyThoughts StepKey = "thoughts"
	KeyEmotions StepKey = "emotions"
	KeyDesire   StepKey = "desire"
	KeyPause    StepKey = "pause"
	KeyChoices  StepKey = "choices"
	KeyPrayer   StepKey = "prayer"
)

func (k StepKey) Valid() bool {
	switch k {
	case KeyReflect, KeyRespond, KeyThoughts, KeyEmotions, KeyDesire, KeyPause, KeyChoices, KeyPrayer:
		return true
	default:
		return false
	}
}

type StepKind string

const (
	KindLanding StepKind = "landing"
	KindInput   StepKind = "input"
	KindReading StepKind = "reading"
	KindTimer   StepKind = "timer"
	KindSummary StepKind = "summary"
)

// Step is one stop on the pathway. Key is empty for steps that take no
// response (landing, reading, summary).
type Step struct {
	Index  int
	Key    StepKey
	Kind   StepKind
	Title  string
	Prompt string
}

const (
	LandingIndex = -1
	FirstIndex   = 0
	LastIndex    = 8
	SummaryIndex = 9
)

// steps holds the fixed pathway sequence. Indices 0..8 are the guided steps;
// the landing and summary bookends live outside this slice.
var steps = []Step{
	{Index: 0, Key: KeyReflect, Kind: KindInput, Title: "Reflect", Prompt: "Pause at the trailhead. What brings you to the mountain today?"},
	{Index: 1, Key: KeyRespond, Kind: KindInput, Title: "Respond", Prompt: "Read the passage slowly. What word or phrase stays with you?"},
	{Index: 2, Kind: KindReading, Title: "Reading", Prompt: "Be still, and know. Let the words settle before you climb on."},
	{Index: 3, Key: KeyThoughts, Kind: KindInput, Title: "Thoughts", Prompt: "What thoughts keep circling as you sit with this?"},
	{Index: 4, Key: KeyEmotions, Kind: KindInput, Title: "Emotions", Prompt: "Name what you are feeling right now, without judging it."},
	{Index: 5, Key: KeyDesire, Kind: KindInput, Title: "Desire", Prompt: "Beneath the noise, what do you most deeply want?"},
	{Index: 6, Key: KeyPause, Kind: KindTimer, Title: "Pause", Prompt: "Rest here for two minutes of silence. Note anything that surfaces."},
	{Index: 7, Key: KeyChoices, Kind: KindInput, Title: "Choices", Prompt: "What one small choice would honor what you found here?"},
	{Index: 8, Key: KeyPrayer, Kind: KindInput, Title: "Prayer", Prompt: "Close with a prayer or intention in your own words."},
}

var landing = Step{Index: LandingIndex, Kind: KindLanding, Title: "The Mountain Pathway", Prompt: "A guided walk of reflection. Begin when you are ready."}

var summary = Step{Index: SummaryIndex, Kind: KindSummary, Title: "Summit", Prompt: "Look back over the path you walked today."}

// Steps returns the guided steps in order. The slice is a copy.
func Steps() []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

// ByIndex resolves any index in [-1, 9], including the landing and summary
// bookends.
func ByIndex(index int) (Step, bool) {
	switch {
	case index == LandingIndex:
		return landing, true
	case index == SummaryIndex:
		return summary, true
	case index >= FirstIndex && index <= LastIndex:
		return steps[index], true
	default:
		return Step{}, false
	}
}

// ByKey resolves a guided step by its response key.
func ByKey(key StepKey) (Step, bool) {
	for _, s := range steps {
		if s.Key == key && s.Key != "" {
			return s, true
		}
	}
	return Step{}, false
}

// InRange reports whether index is a valid journey position.
func InRange(index int) bool {
	return index >= LandingIndex && index <= SummaryIndex
}
