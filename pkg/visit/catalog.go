// Package visit holds the visit ledger rules shared by every front end:
// the product catalog, category mapping and the draft-to-payload step.
package visit

// Category labels as staff see them.
const (
	LabelSkincare = "スキンケア"
	LabelMakeup   = "メイクアップ"
	LabelOther    = "その他"
)

// API categories.
const (
	CategorySkincare = "skincare"
	CategoryMakeup   = "makeup"
	CategoryOther    = "other"
)

// Group is a category label with the products offered under it.
type Group struct {
	Label    string   `json:"label" yaml:"label"`
	Products []string `json:"products" yaml:"products"`
}

// Catalog is the ordered product list offered when recording a visit.
var Catalog = []Group{
	{LabelSkincare, []string{"クレンジング", "洗顔", "導入美容液", "化粧水", "美容液", "乳液", "クリーム", "パック"}},
	{LabelMakeup, []string{"下地", "ファンデーション", "パウダー", "アイブロウ", "アイシャドウ", "マスカラ", "アイライナー", "リップ"}},
	{LabelOther, []string{"スキンケアサンプル", "メイクアップサンプル", "タッチアップ", "マッサージ"}},
}

// MapCategory turns a staff-facing label into the API category.
// Unknown labels map to other.
func MapCategory(label string) string {
	switch label {
	case LabelSkincare:
		return CategorySkincare
	case LabelMakeup:
		return CategoryMakeup
	}
	return CategoryOther
}

// LabelForCategory is the reverse of MapCategory.
func LabelForCategory(category string) string {
	switch category {
	case CategorySkincare:
		return LabelSkincare
	case CategoryMakeup:
		return LabelMakeup
	}
	return LabelOther
}

// CategoryLabel finds the catalog group a product belongs to.
func CategoryLabel(product string) string {
	for _, g := range Catalog {
		for _, p := range g.Products {
			if p == product {
				return g.Label
			}
		}
	}
	return LabelOther
}

// CategoryFor returns the API category of a product.
func CategoryFor(product string) string {
	return MapCategory(CategoryLabel(product))
}
