package catalog

// Default returns the built-in catalog used when no catalog file is configured.
func Default() *Catalog {
	return &Catalog{
		Programs: []Program{
			{Name: "Data Science", Format: "6-month course", Unit: PerMonth, UnitPrice: 1500, DurationMonths: 6, EnrollmentMin: 60, EnrollmentMax: 160},
			{Name: "Data Analysis", Format: "8-week workshop", Unit: PerWeek, UnitPrice: 700, DurationWeeks: 8, EnrollmentMin: 40, EnrollmentMax: 120},
			{Name: "No-Code Web Development", Format: "9-week workshop", Unit: PerWeek, UnitPrice: 1400, DurationWeeks: 9, EnrollmentMin: 30, EnrollmentMax: 100},
			{Name: "Excel Basics & Analytics", Format: "8-week workshop", Unit: PerWeek, UnitPrice: 500, DurationWeeks: 8, EnrollmentMin: 80, EnrollmentMax: 200},
			{Name: "Advanced MCP (AI+MCP)", Format: "12-week bootcamp", Unit: PerWeek, UnitPrice: 2500, DurationWeeks: 12, EnrollmentMin: 20, EnrollmentMax: 80},
			{Name: "AI/Data Bootcamp (Intensive)", Format: "8-month bootcamp", Unit: PerMonth, UnitPrice: 3000, DurationMonths: 8, EnrollmentMin: 25, EnrollmentMax: 90},
		},
		Regions: Vocabulary{
			Values:  []string{"CDMX (MX)", "Monterrey (MX)", "Guadalajara (MX)", "Tijuana (MX)", "Bogota (CO)", "Medellin (CO)", "Auckland (NZ)", "Madrid (ES)"},
			Weights: []float64{.66, .07, .06, .04, .06, .03, .02, .06},
		},
		Channels: Vocabulary{
			Values:  []string{"Micro-influencers", "Referrals", "Facebook Groups", "LinkedIn"},
			Weights: []float64{.70, .12, .10, .08},
		},
		Disciplines: Vocabulary{
			Values:  []string{"STEM", "Law", "Economics", "Sociology", "Design", "Business", "Teaching"},
			Weights: []float64{.55, .08, .10, .07, .07, .08, .05},
		},
		Months: Vocabulary{
			Values: []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		},
	}
}
