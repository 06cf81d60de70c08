package domain

import "strings"

// Known industry identifiers. Records created with anything else keep the
// caller-supplied value; an empty industry becomes IndustryGeneral.
const (
	IndustryManufacturing = "manufacturing"
	IndustryHealthcare    = "healthcare"
	IndustryLogistics     = "logistics"
	IndustryEnterprise    = "enterprise"
	IndustryRetail        = "retail"
	IndustryFinance       = "finance"
	IndustryEducation     = "education"
	IndustryTechnology    = "technology"
	IndustryOther         = "other"
	IndustryGeneral       = "general"
)

// Deployment record statuses.
const (
	StatusActive    = "active"
	StatusDeploying = "deploying"
)

// DeploymentRecord describes one tracked client business deployment.
type DeploymentRecord struct {
	ID            string   `json:"id"`
	CompanyName   string   `json:"company_name"`
	Industry      string   `json:"industry"`
	Icon          string   `json:"icon"`
	Status        string   `json:"status"`
	WorkerCount   int      `json:"worker_count"`
	Revenue       float64  `json:"revenue"`
	Modules       []string `json:"modules"`
	CreatedDate   string   `json:"created_date"`
	DeploymentURL string   `json:"deployment_url"`
}

// Clone returns a deep copy so callers can mutate the result freely.
func (r DeploymentRecord) Clone() DeploymentRecord {
	out := r
	out.Modules = append([]string(nil), r.Modules...)
	return out
}

// AggregateStats summarizes the current collection. Derived on demand and
// mirrored to storage for dashboards, never read back as source of truth.
type AggregateStats struct {
	TotalProjects  int     `json:"total_projects"`
	ActiveProjects int     `json:"active_projects"`
	TotalRevenue   float64 `json:"total_revenue"`
	TotalWorkers   int     `json:"total_workers"`
	AverageRevenue float64 `json:"average_revenue"`
}

var industryIcons = map[string]string{
	IndustryManufacturing: "🏭",
	IndustryHealthcare:    "🏥",
	IndustryLogistics:     "🚚",
	IndustryEnterprise:    "🏢",
	IndustryRetail:        "🛒",
	IndustryFinance:       "💰",
	IndustryEducation:     "🎓",
	IndustryTechnology:    "💻",
}

// IconFor returns the display glyph for an industry.
func IconFor(industry string) string {
	if icon, ok := industryIcons[industry]; ok {
		return icon
	}
	return "📋"
}

// DeploymentURLFor derives the default deployment URL from a company name.
func DeploymentURLFor(companyName string) string {
	slug := strings.ToLower(strings.TrimSpace(companyName))
	var b strings.Builder
	lastDash := true
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	cleaned := strings.TrimRight(b.String(), "-")
	if cleaned == "" {
		cleaned = "client"
	}
	return "https://" + cleaned + ".fixitfred.app"
}
