package registry

import "github.com/TheGringo-ai/FixItFred/internal/domain"

// demoRecords is the fixed dataset written whenever the persisted collection
// is absent or unreadable.
func demoRecords(createdDate string) []domain.DeploymentRecord {
	return []domain.DeploymentRecord{
		{
			ID:            "boeing-001",
			CompanyName:   "Boeing",
			Industry:      domain.IndustryManufacturing,
			Icon:          domain.IconFor(domain.IndustryManufacturing),
			Status:        domain.StatusActive,
			WorkerCount:   450,
			Revenue:       69000,
			Modules:       []string{"quality_control", "chatterfix", "safety", "operations", "memory"},
			CreatedDate:   createdDate,
			DeploymentURL: "https://boeing.fixitfred.app",
		},
		{
			ID:            "healthcare-002",
			CompanyName:   "Regional Medical Center",
			Industry:      domain.IndustryHealthcare,
			Icon:          domain.IconFor(domain.IndustryHealthcare),
			Status:        domain.StatusActive,
			WorkerCount:   200,
			Revenue:       32000,
			Modules:       []string{"quality_control", "safety", "hr", "linesmart", "memory"},
			CreatedDate:   createdDate,
			DeploymentURL: "https://regional-medical-center.fixitfred.app",
		},
		{
			ID:            "logistics-003",
			CompanyName:   "Swift Freight Lines",
			Industry:      domain.IndustryLogistics,
			Icon:          domain.IconFor(domain.IndustryLogistics),
			Status:        domain.StatusActive,
			WorkerCount:   150,
			Revenue:       23500,
			Modules:       []string{"operations", "safety", "hr", "finance", "memory"},
			CreatedDate:   createdDate,
			DeploymentURL: "https://swift-freight-lines.fixitfred.app",
		},
	}
}
