package results

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/muuktest/selector-feedback/api/schemas"
)

// UndefinedAttribute is what the recorder writes for an attribute it could
// not capture.
const UndefinedAttribute = "undef"

// Keys of a recorded step in the legacy report format.
const (
	keyID            = "id"
	keyType          = "type"
	keyTag           = "tag"
	keyObjectType    = "objectType"
	keyAction        = "action"
	keySelectors     = "selectors"
	keySelectorToUse = "selectorToUse"
	keyValue         = "value"
	keyAttributes    = "attributes"
)

type legacySelector struct {
	Selector *string `json:"selector"`
	Index    *int    `json:"index"`
}

type legacyValue struct {
	SearchType string      `json:"searchType"`
	Type       string      `json:"type"`
	Value      interface{} `json:"value"`
	Text       interface{} `json:"text"`
}

// IsStep reports whether a report entry carries selectors to analyze.
func IsStep(fields map[string]interface{}) bool {
	return stringField(fields, keyType) == schemas.StepTypeStep
}

// DecodeStep converts a legacy report entry into a StepRecord. The
// selectors, value and attributes fields hold JSON encoded as strings; any
// of them failing to decode fails the whole step.
func DecodeStep(fields map[string]interface{}) (*schemas.StepRecord, error) {
	step := &schemas.StepRecord{
		ID:            stringField(fields, keyID),
		Type:          stringField(fields, keyType),
		Tag:           stringField(fields, keyTag),
		ObjectType:    stringField(fields, keyObjectType),
		Action:        stringField(fields, keyAction),
		SelectorToUse: schemas.NoSelectorClass,
	}
	if n, ok := intValue(fields[keySelectorToUse]); ok {
		step.SelectorToUse = schemas.SelectorClass(n)
	}

	var selectors []legacySelector
	// The recorder leaves "\$" in selectors, which is not a valid JSON escape.
	if err := decodeNested(fields, keySelectors, &selectors, escapeDollar); err != nil {
		return nil, err
	}
	step.Selectors = make([]schemas.SelectorCandidate, len(selectors))
	for i, s := range selectors {
		if s.Selector != nil {
			step.Selectors[i].Selector = *s.Selector
		}
		step.Selectors[i].Index = s.Index
	}

	var value legacyValue
	if err := decodeNested(fields, keyValue, &value, nil); err != nil {
		return nil, err
	}
	searchType := value.SearchType
	if searchType == "" {
		searchType = value.Type
	}
	step.SearchInfo = schemas.SearchInfo{
		Type:  schemas.SearchType(searchType),
		Value: scalarString(value.Value),
		Text:  scalarString(value.Text),
	}

	var attributes map[string]interface{}
	if err := decodeNested(fields, keyAttributes, &attributes, nil); err != nil {
		return nil, err
	}
	step.Attributes = schemas.ElementAttributes{
		ID:   optionalAttribute(attributes["id"]),
		Name: optionalAttribute(attributes["name"]),
		Type: optionalAttribute(attributes["type"]),
		Text: optionalAttribute(attributes["text"]),
		// The expected value always replaces the recorded one.
		Value: optionalAttribute(value.Value),
	}
	return step, nil
}

func escapeDollar(s string) string {
	return strings.ReplaceAll(s, `\$`, `\\$`)
}

// decodeNested decodes fields[key] into dst. String values are decoded as
// JSON documents; already structured values are accepted as they are.
func decodeNested(fields map[string]interface{}, key string, dst interface{}, rewrite func(string) string) error {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return fmt.Errorf("%s: field is missing", key)
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		if rewrite != nil {
			v = rewrite(v)
		}
		data = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		data = encoded
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func optionalAttribute(v interface{}) schemas.Optional {
	if v == nil {
		return schemas.None()
	}
	s := scalarString(v)
	if s == UndefinedAttribute {
		return schemas.None()
	}
	return schemas.Some(s)
}

func stringField(fields map[string]interface{}, key string) string {
	return scalarString(fields[key])
}

// scalarString renders a decoded JSON scalar as the recorder would have
// written it.
func scalarString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func intValue(v interface{}) (int, bool) {
	switch t := v.(type) {
	case interface{ Int64() (int64, error) }:
		n, err := t.Int64()
		return int(n), err == nil
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	return 0, false
}
