package result

// Score categories.
const (
	CategoryPerformance   = "performance"
	CategoryAccessibility = "accessibility"
	CategoryBestPractices = "best-practices"
	CategorySEO           = "seo"
)

// ScoreCategories lists score categories in display order.
var ScoreCategories = []string{CategoryPerformance, CategoryAccessibility, CategoryBestPractices, CategorySEO}

// Scores maps each category to a value in [0,1]. The same shape carries
// measured scores and the configured per-category thresholds.
type Scores struct {
	Performance   float64 `json:"performance" yaml:"performance"`
	Accessibility float64 `json:"accessibility" yaml:"accessibility"`
	BestPractices float64 `json:"best-practices" yaml:"best-practices"`
	SEO           float64 `json:"seo" yaml:"seo"`
}

// Get returns the value for a category, or 0 for an unknown one.
func (s Scores) Get(category string) float64 {
	switch category {
	case CategoryPerformance:
		return s.Performance
	case CategoryAccessibility:
		return s.Accessibility
	case CategoryBestPractices:
		return s.BestPractices
	case CategorySEO:
		return s.SEO
	default:
		return 0
	}
}
