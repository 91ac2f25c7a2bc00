package flow_metrics

// FlowMetricCard is one dashboard KPI card
type FlowMetricCard struct {
	ID             string   `json:"id"`
	MetricKey      string   `json:"metricKey"`
	Title          string   `json:"title"`
	CanonicalStage string   `json:"canonicalStage"`
	MainMetric     string   `json:"mainMetric"`
	DisplayDays    int      `json:"displayDays"`
	TotalDeals     int      `json:"totalDeals"`
	AvgMinDays     *float64 `json:"avgMinDays,omitempty"`
	AvgMaxDays     *float64 `json:"avgMaxDays,omitempty"`
	Comment        *string  `json:"comment,omitempty"`
}

// StageSummary backs the per-stage detail table and chart
type StageSummary struct {
	CanonicalStage string            `json:"canonicalStage"`
	Period         string            `json:"period"`
	Metrics        CalculatedMetrics `json:"metrics"`
	DisplayAverage int               `json:"displayAverage"`
	DisplayBest    int               `json:"displayBest"`
	DisplayWorst   int               `json:"displayWorst"`
	Deals          []DealPerformance `json:"deals"`
	Reason         string            `json:"reason,omitempty"`
}
