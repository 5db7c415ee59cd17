package note

// Choices offered to staff when filling a profile. They are suggestions
// only; the codec stores whatever text it is given.
var (
	SkinTypes = []string{"乾燥肌", "脂性肌", "混合肌", "普通肌", "わからない"}

	SkinConcerns = []string{"乾燥", "ニキビ", "吹き出物", "くすみ", "シミ", "シワ", "たるみ", "毛穴"}

	IdealSkins = []string{"保湿", "ハリ・ツヤ", "透明感", "美白ケア", "キメ", "なめらかさ"}
)

// KnownSkinType reports whether s is one of SkinTypes.
func KnownSkinType(s string) bool {
	for _, t := range SkinTypes {
		if t == s {
			return true
		}
	}
	return false
}
