package note

import (
	"reflect"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		in   Profile
		want string
	}{
		{"empty", Profile{}, ""},
		{"address only", Profile{Address: "東京都"}, "住所: 東京都"},
		{
			"two fields",
			Profile{Address: "東京都", SkinType: "乾燥肌"},
			"住所: 東京都 / 肌タイプ: 乾燥肌",
		},
		{
			"lists joined with comma space",
			Profile{SkinConcerns: []string{"乾燥", "くすみ"}, IdealSkin: []string{"透明感"}},
			"肌悩み: 乾燥, くすみ / 理想の肌: 透明感",
		},
		{
			"fixed order regardless of struct literal order",
			Profile{Memo: "次回サンプル", Address: "大阪府", SensitiveInfo: "アルコール"},
			"住所: 大阪府 / 敏感情報: アルコール / メモ: 次回サンプル",
		},
		{"empty list omitted", Profile{SkinConcerns: []string{}}, ""},
		{"list of one blank element emitted", Profile{SkinConcerns: []string{""}}, "肌悩み: "},
		{"blank elements keep their separators", Profile{IdealSkin: []string{"", "ツヤ"}}, "理想の肌: , ツヤ"},
	}
	for _, tt := range tests {
		if got := Encode(tt.in); got != tt.want {
			t.Errorf("%s: Encode = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	got := Decode("住所: 東京都 / 肌タイプ: 乾燥肌")
	want := map[string]string{"住所": "東京都", "肌タイプ": "乾燥肌"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Decode = %v, want %v", got, want)
	}
}

func TestDecode_Empty(t *testing.T) {
	got := Decode("")
	if got == nil || len(got) != 0 {
		t.Errorf("Decode(\"\") = %v, want empty map", got)
	}
}

func TestDecode_DropsSegmentsWithoutColon(t *testing.T) {
	got := Decode("住所: 東京都 / なにか / メモ: ok")
	want := map[string]string{"住所": "東京都", "メモ": "ok"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Decode = %v, want %v", got, want)
	}
}

func TestDecode_FirstColonWins(t *testing.T) {
	got := Decode("メモ: 10:30 来店希望")
	if got["メモ"] != "10:30 来店希望" {
		t.Errorf("memo = %q, want %q", got["メモ"], "10:30 来店希望")
	}
}

func TestDecode_SeparatorInsideValueIsLossy(t *testing.T) {
	// A value containing " / " is split like any other segment boundary.
	got := Decode(Encode(Profile{Memo: "A / B"}))
	if got["メモ"] != "A" {
		t.Errorf("memo = %q, want %q", got["メモ"], "A")
	}
}

func TestRoundTrip(t *testing.T) {
	p := Profile{
		Address:       "東京都渋谷区",
		SkinType:      "混合肌",
		SkinConcerns:  []string{"毛穴", "シミ"},
		ConcernNote:   "Tゾーンのテカリ",
		IdealSkin:     []string{"ハリ・ツヤ", "キメ"},
		IdealNote:     "夏までに",
		SensitiveInfo: "香料",
		Memo:          "敬語で",
	}
	if got := Parse(Encode(p)); !reflect.DeepEqual(got, p) {
		t.Errorf("Parse(Encode(p)) = %+v, want %+v", got, p)
	}

	m := Decode(Encode(p))
	if len(m) != len(Labels()) {
		t.Errorf("decoded %d labels, want %d", len(m), len(Labels()))
	}
}

func TestRoundTrip_PartialProfile(t *testing.T) {
	p := Profile{SkinType: "普通肌", Memo: "初来店"}
	got := Parse(Encode(p))
	if !reflect.DeepEqual(got, p) {
		t.Errorf("Parse(Encode(p)) = %+v, want %+v", got, p)
	}
	if got.SkinConcerns != nil || got.Address != "" {
		t.Errorf("absent fields should decode empty, got %+v", got)
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"乾燥", []string{"乾燥"}},
		{"乾燥, ニキビ", []string{"乾燥", "ニキビ"}},
		{" 乾燥 ,, ニキビ ,", []string{"乾燥", "ニキビ"}},
	}
	for _, tt := range tests {
		if got := SplitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParse_IgnoresUnknownLabels(t *testing.T) {
	got := Parse("誕生日: 5/1 / 住所: 京都")
	if got.Address != "京都" {
		t.Errorf("Address = %q, want 京都", got.Address)
	}
}

func TestIsZero(t *testing.T) {
	if !(Profile{}).IsZero() {
		t.Error("zero profile should report IsZero")
	}
	if (Profile{Memo: "x"}).IsZero() {
		t.Error("profile with memo should not be zero")
	}
}

func TestKnownSkinType(t *testing.T) {
	if !KnownSkinType("乾燥肌") {
		t.Error("乾燥肌 should be known")
	}
	if KnownSkinType("敏感肌") {
		t.Error("敏感肌 is not in the vocabulary")
	}
}
