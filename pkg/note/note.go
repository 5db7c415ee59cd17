// Package note converts between a customer's free-text note and the
// structured beauty profile stored inside it.
//
// The note is stored by the API as a single string of "label: value"
// segments joined by " / ". The labels are fixed Japanese keys and must
// stay byte-identical so that notes written by other clients keep decoding.
package note

import "strings"

// Segment labels, in encoding order.
const (
	LabelAddress       = "住所"
	LabelSkinType      = "肌タイプ"
	LabelSkinConcerns  = "肌悩み"
	LabelConcernNote   = "悩みメモ"
	LabelIdealSkin     = "理想の肌"
	LabelIdealNote     = "理想メモ"
	LabelSensitiveInfo = "敏感情報"
	LabelMemo          = "メモ"
)

const (
	segmentSep = " / "
	listSep    = ", "
)

// Profile is the decoded form of a customer note.
type Profile struct {
	Address       string   `json:"address,omitempty" yaml:"address,omitempty"`
	SkinType      string   `json:"skin_type,omitempty" yaml:"skin_type,omitempty"`
	SkinConcerns  []string `json:"skin_concerns,omitempty" yaml:"skin_concerns,omitempty"`
	ConcernNote   string   `json:"concern_note,omitempty" yaml:"concern_note,omitempty"`
	IdealSkin     []string `json:"ideal_skin,omitempty" yaml:"ideal_skin,omitempty"`
	IdealNote     string   `json:"ideal_note,omitempty" yaml:"ideal_note,omitempty"`
	SensitiveInfo string   `json:"sensitive_info,omitempty" yaml:"sensitive_info,omitempty"`
	Memo          string   `json:"memo,omitempty" yaml:"memo,omitempty"`
}

// IsZero reports whether no field of p would be encoded.
func (p Profile) IsZero() bool {
	return Encode(p) == ""
}

// field binds a label to its text rendering inside a Profile. text reports
// whether the field is present: a non-empty string or a non-empty list.
type field struct {
	label string
	text  func(Profile) (string, bool)
	set   func(*Profile, string)
}

func scalar(v string) (string, bool) { return v, v != "" }

func list(vs []string) (string, bool) { return strings.Join(vs, listSep), len(vs) > 0 }

// fields is the fixed encoding order.
var fields = []field{
	{LabelAddress, func(p Profile) (string, bool) { return scalar(p.Address) }, func(p *Profile, v string) { p.Address = v }},
	{LabelSkinType, func(p Profile) (string, bool) { return scalar(p.SkinType) }, func(p *Profile, v string) { p.SkinType = v }},
	{LabelSkinConcerns, func(p Profile) (string, bool) { return list(p.SkinConcerns) }, func(p *Profile, v string) { p.SkinConcerns = SplitList(v) }},
	{LabelConcernNote, func(p Profile) (string, bool) { return scalar(p.ConcernNote) }, func(p *Profile, v string) { p.ConcernNote = v }},
	{LabelIdealSkin, func(p Profile) (string, bool) { return list(p.IdealSkin) }, func(p *Profile, v string) { p.IdealSkin = SplitList(v) }},
	{LabelIdealNote, func(p Profile) (string, bool) { return scalar(p.IdealNote) }, func(p *Profile, v string) { p.IdealNote = v }},
	{LabelSensitiveInfo, func(p Profile) (string, bool) { return scalar(p.SensitiveInfo) }, func(p *Profile, v string) { p.SensitiveInfo = v }},
	{LabelMemo, func(p Profile) (string, bool) { return scalar(p.Memo) }, func(p *Profile, v string) { p.Memo = v }},
}

// Labels returns the segment labels in encoding order.
func Labels() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.label
	}
	return out
}

// Encode renders p as a note string. Empty strings and empty lists are
// omitted; a list holding only blank elements is still emitted, so a zero
// profile is the only one that encodes to "".
func Encode(p Profile) string {
	segments := make([]string, 0, len(fields))
	for _, f := range fields {
		v, ok := f.text(p)
		if !ok {
			continue
		}
		segments = append(segments, f.label+": "+v)
	}
	return strings.Join(segments, segmentSep)
}

// Decode splits a note into label -> raw value. Each segment is cut at its
// first ':'; segments without one are dropped. Values containing ':' after
// the first or the " / " separator itself do not round-trip.
func Decode(s string) map[string]string {
	out := make(map[string]string)
	if s == "" {
		return out
	}
	for _, part := range strings.Split(s, segmentSep) {
		label, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(label)] = strings.TrimSpace(value)
	}
	return out
}

// Parse decodes a note straight into a Profile. Unknown labels are ignored.
func Parse(s string) Profile {
	return FromFields(Decode(s))
}

// FromFields maps decoded label/value pairs onto a Profile.
func FromFields(m map[string]string) Profile {
	var p Profile
	for _, f := range fields {
		if v, ok := m[f.label]; ok && v != "" {
			f.set(&p, v)
		}
	}
	return p
}

// SplitList splits a list-valued segment on ',' and drops empty elements.
func SplitList(s string) []string {
	var out []string
	for _, x := range strings.Split(s, ",") {
		if x = strings.TrimSpace(x); x != "" {
			out = append(out, x)
		}
	}
	return out
}
