package schemas

// -- Selector Classes --

// SelectorClass identifies one of the four selector-generation strategies
// recorded for every step. The numeric value is the position of the candidate
// in the recorded selector array and the value reported as a recommendation.
type SelectorClass int

const (
	NoSelectorClass SelectorClass = -1 // No recommendation could be made.
	ClassicCSS      SelectorClass = 0  // Classic (ntag) CSS selector.
	DynamicCSS      SelectorClass = 1  // CSS selector built with dynamic classes.
	CustomCSS       SelectorClass = 2  // Attribute based CSS selector (id, name, type...).
	XPath           SelectorClass = 3  // XPath expression, usually with a text predicate.
)

// SelectorClasses lists the classes in evaluation order.
var SelectorClasses = []SelectorClass{ClassicCSS, DynamicCSS, CustomCSS, XPath}

// String returns a short human name for the class.
func (c SelectorClass) String() string {
	switch c {
	case ClassicCSS:
		return "classic_css"
	case DynamicCSS:
		return "dynamic_css"
	case CustomCSS:
		return "custom_css"
	case XPath:
		return "xpath"
	default:
		return "none"
	}
}

// IsValid reports whether c is one of the four evaluable classes.
func (c SelectorClass) IsValid() bool {
	return c >= ClassicCSS && c <= XPath
}

// SelectorCandidate is a single recorded selector for a class. An empty
// Selector means the class was not recorded for the step.
type SelectorCandidate struct {
	Selector string `json:"selector"`
	// Index is the position, among all elements the selector matched at
	// authoring time, of the element the step acted on. Nil when unknown.
	Index *int `json:"index"`
}

// IsEmpty reports whether the candidate carries no selector.
func (c SelectorCandidate) IsEmpty() bool {
	return c.Selector == ""
}

// ExpectedIndex returns the recorded index, defaulting to zero.
func (c SelectorCandidate) ExpectedIndex() int {
	if c.Index == nil {
		return 0
	}
	return *c.Index
}

// -- Search Information --

// SearchType names the element property compared against the expected value.
type SearchType string

const (
	SearchByValue  SearchType = "value"  // The element's value attribute.
	SearchByHref   SearchType = "href"   // The element's href attribute.
	SearchByText   SearchType = "text"   // The element's text content.
	SearchByImgSrc SearchType = "imgsrc" // The element's src attribute.
)

// SearchInfo describes what the step expected to find on its element.
type SearchInfo struct {
	Type  SearchType `json:"searchType"`
	Value string     `json:"value"`
	// Text is an optional secondary expectation used to narrow href matches
	// and to resolve <select> options.
	Text string `json:"text,omitempty"`
}

// -- Element Attributes --

// Optional holds a string that may be absent.
type Optional struct {
	value string
	set   bool
}

// Some wraps a present value.
func Some(v string) Optional { return Optional{value: v, set: true} }

// None returns an absent value.
func None() Optional { return Optional{} }

// Get returns the value and whether it is present.
func (o Optional) Get() (string, bool) { return o.value, o.set }

// IsSet reports whether a value is present.
func (o Optional) IsSet() bool { return o.set }

// ElementAttributes are the attributes recorded for the step's target element.
type ElementAttributes struct {
	ID    Optional
	Name  Optional
	Type  Optional
	Text  Optional
	Value Optional
}

// HasIdentity reports whether any of id, name or type was recorded.
func (a ElementAttributes) HasIdentity() bool {
	return a.ID.IsSet() || a.Name.IsSet() || a.Type.IsSet()
}

// -- Step Records --

// StepTypeStep marks entries that carry selectors to analyze.
const StepTypeStep = "step"

// ActionMouseOver is excluded from analysis; hover targets are not locatable.
const ActionMouseOver = "mouseover"

// StepRecord is a decoded test action, read-only for the engine.
type StepRecord struct {
	ID            string
	Type          string
	Tag           string
	ObjectType    string
	Action        string
	Selectors     []SelectorCandidate
	SelectorToUse SelectorClass
	SearchInfo    SearchInfo
	Attributes    ElementAttributes
}

// Candidate returns the candidate recorded for class c, or an empty one.
func (s *StepRecord) Candidate(c SelectorClass) SelectorCandidate {
	if !c.IsValid() || int(c) >= len(s.Selectors) {
		return SelectorCandidate{}
	}
	return s.Selectors[c]
}
