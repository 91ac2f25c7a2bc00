package flow_metrics

import (
	"context"
	"fmt"
	"time"

	"flow-metrics/internal/features/stage_mapping"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const cardConcurrency = 4

type FlowMetricsService interface {
	GetCanonicalStageDeals(ctx context.Context, canonicalStage string) (*Resolution, error)
	GetStageSummary(ctx context.Context, canonicalStage string, period string) (*StageSummary, error)
	GetFlowMetrics(ctx context.Context, period string) ([]FlowMetricCard, error)
	ExportFlowMetrics(ctx context.Context, period string) ([]byte, string, error)
}

type FlowMetricsServiceImpl struct {
	mappings stage_mapping.StageMappingRepository
	resolver *Resolver
	logger   *zap.Logger
	now      func() time.Time
}

func NewFlowMetricsService(mappings stage_mapping.StageMappingRepository, resolver *Resolver, logger *zap.Logger) FlowMetricsService {
	return &FlowMetricsServiceImpl{
		mappings: mappings,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *FlowMetricsServiceImpl) GetCanonicalStageDeals(ctx context.Context, canonicalStage string) (*Resolution, error) {
	return s.resolver.Resolve(ctx, canonicalStage)
}

func (s *FlowMetricsServiceImpl) GetStageSummary(ctx context.Context, canonicalStage string, period string) (*StageSummary, error) {
	res, err := s.resolver.Resolve(ctx, canonicalStage)
	if err != nil {
		return nil, err
	}

	deals := Eligible(res.Deals, period, s.now())
	m := Summarize(deals)

	return &StageSummary{
		CanonicalStage: canonicalStage,
		Period:         normalizePeriod(period),
		Metrics:        m,
		DisplayAverage: DisplayDays(m.Average),
		DisplayBest:    DisplayDays(m.Best),
		DisplayWorst:   DisplayDays(m.Worst),
		Deals:          Classify(deals, m),
		Reason:         res.Reason,
	}, nil
}

type stageResult struct {
	mapping stage_mapping.StageMapping
	deals   []CanonicalStageDeal
}

// resolveActive resolves every active mapping, keeping the mapping sort order
func (s *FlowMetricsServiceImpl) resolveActive(ctx context.Context) ([]stageResult, error) {
	mappings, err := s.mappings.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	results := make([]stageResult, len(mappings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cardConcurrency)
	for i := range mappings {
		i := i
		g.Go(func() error {
			deals, err := s.resolver.ResolveMapping(gctx, &mappings[i])
			if err != nil {
				return err
			}
			results[i] = stageResult{mapping: mappings[i], deals: deals}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *FlowMetricsServiceImpl) GetFlowMetrics(ctx context.Context, period string) ([]FlowMetricCard, error) {
	results, err := s.resolveActive(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cards := make([]FlowMetricCard, 0, len(results))
	for _, r := range results {
		cards = append(cards, buildCard(r.mapping, Aggregate(r.deals, period, now)))
	}
	return cards, nil
}

func buildCard(mapping stage_mapping.StageMapping, m CalculatedMetrics) FlowMetricCard {
	return FlowMetricCard{
		ID:             mapping.ID.Hex(),
		MetricKey:      mapping.MetricKey,
		Title:          mapping.Title(),
		CanonicalStage: mapping.CanonicalStage,
		MainMetric:     fmt.Sprintf("%.2f", m.Average),
		DisplayDays:    DisplayDays(m.Average),
		TotalDeals:     m.TotalDeals,
		AvgMinDays:     mapping.AvgMinDays,
		AvgMaxDays:     mapping.AvgMaxDays,
		Comment:        mapping.Comment,
	}
}

// ExportFlowMetrics renders the cards and the classified deal rows of every
// active mapping as an xlsx workbook.
func (s *FlowMetricsServiceImpl) ExportFlowMetrics(ctx context.Context, period string) ([]byte, string, error) {
	results, err := s.resolveActive(ctx)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	highlight := map[string]int{}
	highlight["best"], _ = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#C6EFCE"}, Pattern: 1},
	})
	highlight["worst"], _ = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
	})

	const summarySheet = "Flow Metrics"
	const dealSheet = "Deals"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, "", err
	}
	if _, err := f.NewSheet(dealSheet); err != nil {
		return nil, "", err
	}

	writeHeader(f, summarySheet, headerStyle, []string{"Metric", "Canonical Stage", "Average Days", "Display Days", "Best Days", "Worst Days", "Total Deals", "Min Healthy", "Max Healthy", "Comment"})
	writeHeader(f, dealSheet, headerStyle, []string{"Canonical Stage", "Deal ID", "Start Date", "End Date", "Days", "Best", "Worst"})

	dealRow := 2
	for i, r := range results {
		deals := Eligible(r.deals, period, now)
		m := Summarize(deals)

		setRow(f, summarySheet, i+2, []interface{}{
			r.mapping.Title(),
			r.mapping.CanonicalStage,
			m.Average,
			DisplayDays(m.Average),
			m.Best,
			m.Worst,
			m.TotalDeals,
			optional(r.mapping.AvgMinDays),
			optional(r.mapping.AvgMaxDays),
			optionalString(r.mapping.Comment),
		})

		for _, d := range Classify(deals, m) {
			setRow(f, dealSheet, dealRow, []interface{}{
				r.mapping.CanonicalStage,
				d.DealID,
				d.StartDate.Format("2006-01-02 15:04:05"),
				d.EndDate.Format("2006-01-02 15:04:05"),
				d.PreciseDays,
				d.IsBest,
				d.IsWorst,
			})
			if d.IsBest || d.IsWorst {
				style := highlight["worst"]
				if d.IsBest {
					style = highlight["best"]
				}
				first, _ := excelize.CoordinatesToCellName(1, dealRow)
				last, _ := excelize.CoordinatesToCellName(7, dealRow)
				f.SetCellStyle(dealSheet, first, last, style)
			}
			dealRow++
		}
	}

	for _, sheet := range []string{summarySheet, dealSheet} {
		f.SetColWidth(sheet, "A", "J", 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("flow_metrics_%s_%s.xlsx", normalizePeriod(period), now.Format("20060102"))
	s.logger.Info("Exported flow metrics", zap.String("period", period), zap.Int("stages", len(results)))
	return buffer.Bytes(), filename, nil
}

func writeHeader(f *excelize.File, sheet string, style int, columns []string) {
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, col)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, v)
	}
}

func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optionalString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func normalizePeriod(period string) string {
	if IsKnownPeriod(period) {
		return period
	}
	return PeriodAll
}
