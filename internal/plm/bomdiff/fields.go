package bomdiff

import (
	"strconv"
	"strings"
)

// Placeholder is the rendered form of an absent value.
const Placeholder = "-"

// Field keys, in the order CompareFields checks them.
const (
	FieldQuantity       = "quantity"
	FieldRevision       = "revision"
	FieldUnitOfMeasure  = "unitOfMeasure"
	FieldFindNumber     = "findNumber"
	FieldLifecycleStage = "lifecycleStage"
	FieldEffectivity    = "effectivity"
	FieldSubstitutes    = "substitutes"
)

// FieldDiff is one differing field. Both sides are already formatted.
type FieldDiff struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	LeftText  string `json:"left_text"`
	RightText string `json:"right_text"`
}

// String renders the diff as "Label: left → right".
func (d FieldDiff) String() string {
	return d.Label + ": " + d.LeftText + " → " + d.RightText
}

type fieldSpec struct {
	key    string
	label  string
	render func(e *FlatEntry) string
}

var fieldSpecs = []fieldSpec{
	{FieldQuantity, "Quantity", func(e *FlatEntry) string { return FormatQuantity(e.Quantity) }},
	{FieldRevision, "Revision", func(e *FlatEntry) string { return FormatText(e.Revision) }},
	{FieldUnitOfMeasure, "Unit of Measure", func(e *FlatEntry) string { return FormatText(e.UnitOfMeasure) }},
	{FieldFindNumber, "Find Number", func(e *FlatEntry) string { return FormatText(e.FindNumber) }},
	{FieldLifecycleStage, "Lifecycle Stage", func(e *FlatEntry) string { return FormatText(e.LifecycleStage) }},
	{FieldEffectivity, "Effectivity", func(e *FlatEntry) string { return FormatEffectivity(e.Effectivity) }},
	{FieldSubstitutes, "Substitutes", func(e *FlatEntry) string { return FormatSubstitutes(e.Substitutes) }},
}

// FieldLabel returns the display label for a field key, or the key itself.
func FieldLabel(key string) string {
	for _, f := range fieldSpecs {
		if f.key == key {
			return f.label
		}
	}
	return key
}

// CompareFields renders every comparable field of both entries and returns the
// ones whose rendered text differs, in fixed field order.
func CompareFields(left, right FlatEntry) []FieldDiff {
	var diffs []FieldDiff
	for _, f := range fieldSpecs {
		l, r := f.render(&left), f.render(&right)
		if l == r {
			continue
		}
		diffs = append(diffs, FieldDiff{Key: f.key, Label: f.label, LeftText: l, RightText: r})
	}
	return diffs
}

// FormatQuantity renders a quantity, defaulting to 1 when unset.
func FormatQuantity(q *float64) string {
	v := 1.0
	if q != nil {
		v = *q
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatText trims s and replaces an empty value with Placeholder.
func FormatText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Placeholder
	}
	return s
}

// FormatEffectivity renders "serial X~Y; date A~B; block P", keeping only the
// segments that carry a value.
func FormatEffectivity(eff *Effectivity) string {
	if eff == nil {
		return Placeholder
	}
	var parts []string
	if r, ok := formatRange(eff.SerialFrom, eff.SerialTo); ok {
		parts = append(parts, "serial "+r)
	}
	if r, ok := formatRange(eff.DateFrom, eff.DateTo); ok {
		parts = append(parts, "date "+r)
	}
	if bp := strings.TrimSpace(eff.BlockPoint); bp != "" {
		parts = append(parts, "block "+bp)
	}
	if len(parts) == 0 {
		return Placeholder
	}
	return strings.Join(parts, "; ")
}

func formatRange(from, to string) (string, bool) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" && to == "" {
		return "", false
	}
	return FormatText(from) + "~" + FormatText(to), true
}

// FormatSubstitutes renders "partNumber·reason·priority" tokens in list order.
func FormatSubstitutes(subs []Substitute) string {
	if len(subs) == 0 {
		return Placeholder
	}
	tokens := make([]string, len(subs))
	for i, s := range subs {
		priority := Placeholder
		if s.Priority != nil {
			priority = strconv.Itoa(*s.Priority)
		}
		tokens[i] = FormatText(s.PartNumber) + "·" + FormatText(s.Reason) + "·" + priority
	}
	return strings.Join(tokens, ", ")
}
