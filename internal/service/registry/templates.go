package registry

import "github.com/TheGringo-ai/FixItFred/internal/domain"

// Template defines the per-industry module set and pricing used by quick
// deployments. Revenue is base price plus worker price per worker.
type Template struct {
	Name        string
	Modules     []string
	BasePrice   float64
	WorkerPrice float64
}

var defaultModules = []string{"operations", "memory"}

var industryTemplates = map[string]Template{
	domain.IndustryManufacturing: {
		Name:        "Manufacturing Excellence",
		Modules:     []string{"quality_control", "chatterfix", "safety", "operations", "memory"},
		BasePrice:   15000,
		WorkerPrice: 120,
	},
	domain.IndustryHealthcare: {
		Name:        "Healthcare Operations",
		Modules:     []string{"quality_control", "safety", "hr", "linesmart", "memory"},
		BasePrice:   12000,
		WorkerPrice: 100,
	},
	domain.IndustryLogistics: {
		Name:        "Logistics & Supply Chain",
		Modules:     []string{"operations", "safety", "hr", "finance", "memory"},
		BasePrice:   10000,
		WorkerPrice: 90,
	},
	domain.IndustryEnterprise: {
		Name:        "Full Enterprise Suite",
		Modules:     []string{"quality_control", "chatterfix", "linesmart", "sales", "marketing", "hr", "finance", "operations", "safety", "memory"},
		BasePrice:   25000,
		WorkerPrice: 150,
	},
}

// TemplateFor returns the template for an industry. Unknown industries get
// the generic pricing with the default module set.
func TemplateFor(industry string) Template {
	if tpl, ok := industryTemplates[industry]; ok {
		return tpl
	}
	return Template{
		Name:        "Standard Deployment",
		Modules:     append([]string(nil), defaultModules...),
		BasePrice:   10000,
		WorkerPrice: 100,
	}
}
