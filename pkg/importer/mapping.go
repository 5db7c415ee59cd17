// Package importer registers customers in bulk from salon CSV exports.
package importer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mapping describes a CSV export: its layout and which column feeds which
// customer field. Columns are named by header text, or by 1-based position
// ("3") when the file has no header.
type Mapping struct {
	Format  FormatSpec `yaml:"format" json:"format"`
	Columns ColumnSpec `yaml:"columns" json:"columns"`
}

// FormatSpec describes the CSV layout.
type FormatSpec struct {
	Delimiter     string `yaml:"delimiter" json:"delimiter"`
	Encoding      string `yaml:"encoding" json:"encoding"`
	HasHeader     bool   `yaml:"has_header" json:"has_header"`
	ListSeparator string `yaml:"list_separator" json:"list_separator"`
}

// ColumnSpec maps customer fields to CSV columns. Empty means absent.
type ColumnSpec struct {
	Name       string `yaml:"name" json:"name"`
	Kana       string `yaml:"kana" json:"kana,omitempty"`
	Phone      string `yaml:"phone" json:"phone,omitempty"`
	Email      string `yaml:"email" json:"email,omitempty"`
	Birthday   string `yaml:"birthday" json:"birthday,omitempty"`
	EmailOptIn string `yaml:"email_opt_in" json:"email_opt_in,omitempty"`

	Address       string `yaml:"address" json:"address,omitempty"`
	SkinType      string `yaml:"skin_type" json:"skin_type,omitempty"`
	SkinConcerns  string `yaml:"skin_concerns" json:"skin_concerns,omitempty"`
	ConcernNote   string `yaml:"concern_note" json:"concern_note,omitempty"`
	IdealSkin     string `yaml:"ideal_skin" json:"ideal_skin,omitempty"`
	IdealNote     string `yaml:"ideal_note" json:"ideal_note,omitempty"`
	SensitiveInfo string `yaml:"sensitive_info" json:"sensitive_info,omitempty"`
	Memo          string `yaml:"memo" json:"memo,omitempty"`
}

// DefaultMapping matches the console's own export: UTF-8, comma separated,
// Japanese headers.
func DefaultMapping() Mapping {
	return Mapping{
		Format: FormatSpec{Delimiter: ",", Encoding: "utf-8", HasHeader: true, ListSeparator: ","},
		Columns: ColumnSpec{
			Name:          "氏名",
			Kana:          "フリガナ",
			Phone:         "電話番号",
			Email:         "メールアドレス",
			Birthday:      "生年月日",
			EmailOptIn:    "メール配信",
			Address:       "住所",
			SkinType:      "肌タイプ",
			SkinConcerns:  "肌悩み",
			ConcernNote:   "悩みメモ",
			IdealSkin:     "理想の肌",
			IdealNote:     "理想メモ",
			SensitiveInfo: "敏感情報",
			Memo:          "メモ",
		},
	}
}

// LoadMapping reads a mapping YAML file. Unset format fields keep the
// defaults; columns are taken as written.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	m := Mapping{Format: DefaultMapping().Format}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks that the mapping can produce customers.
func (m Mapping) Validate() error {
	if strings.TrimSpace(m.Columns.Name) == "" {
		return fmt.Errorf("missing name column")
	}
	if len([]rune(m.Format.Delimiter)) > 1 {
		return fmt.Errorf("delimiter %q must be a single character", m.Format.Delimiter)
	}
	return nil
}
