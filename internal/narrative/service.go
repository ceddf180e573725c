package narrative

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pharmsight/pharmsight/internal/alerts"
	"github.com/pharmsight/pharmsight/internal/forecast"
	"github.com/pharmsight/pharmsight/internal/replenish"
	"github.com/pharmsight/pharmsight/internal/reporting"
)

const systemPrompt = "Tu es un assistant pharmacien intelligent."

// Completer abstracts the text-generation backend. Implementations call
// out to whatever model the deployment provides.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Narrative carries the prompt sent to the completer and its reply. When
// no completer is configured Response stays empty and the caller still
// gets the prompt.
type Narrative struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response,omitempty"`
}

// Forecaster, Alerter, Reporter and Replenisher are the engine surfaces
// the narrative layer reads. They match the concrete services.
type Forecaster interface {
	ForecastConsumption(ctx context.Context, windowMonths int) ([]forecast.Forecast, error)
}

type Alerter interface {
	DetectCriticalStocks(ctx context.Context, level int) ([]alerts.Alert, error)
	DetectExpiringProducts(ctx context.Context, daysLimit int) ([]alerts.Alert, error)
	AuditInventory(ctx context.Context) ([]alerts.Alert, error)
	VerifyDeliveries(ctx context.Context, tolerance float64) ([]alerts.Alert, error)
}

type Reporter interface {
	KPIReport(ctx context.Context) (reporting.KPIReport, error)
}

type Replenisher interface {
	PurchaseProposals(ctx context.Context) ([]replenish.Proposal, error)
}

// Service builds prompts from live engine output and, when a completer
// is present, obtains the narrative response.
type Service struct {
	forecaster  Forecaster
	alerter     Alerter
	reporter    Reporter
	replenisher Replenisher
	completer   Completer
	logger      *slog.Logger
}

// NewService builds Service. completer may be nil; the service then
// returns prompt-only narratives.
func NewService(forecaster Forecaster, alerter Alerter, reporter Reporter, replenisher Replenisher, completer Completer, logger *slog.Logger) *Service {
	return &Service{
		forecaster:  forecaster,
		alerter:     alerter,
		reporter:    reporter,
		replenisher: replenisher,
		completer:   completer,
		logger:      logger,
	}
}

// ExplainForecast narrates the consumption forecast.
func (s *Service) ExplainForecast(ctx context.Context) (Narrative, error) {
	forecasts, err := s.forecaster.ForecastConsumption(ctx, forecast.DefaultWindowMonths)
	if err != nil {
		return Narrative{}, fmt.Errorf("narrative: forecast: %w", err)
	}
	return s.complete(ctx, ForecastPrompt(forecasts))
}

// HumanizeAlerts narrates the active critical and expiry alerts.
func (s *Service) HumanizeAlerts(ctx context.Context) (Narrative, error) {
	items, err := s.activeAlerts(ctx)
	if err != nil {
		return Narrative{}, err
	}
	return s.complete(ctx, AlertsPrompt(items))
}

// ExplainAudit narrates inventory gaps found by the audit.
func (s *Service) ExplainAudit(ctx context.Context) (Narrative, error) {
	items, err := s.alerter.AuditInventory(ctx)
	if err != nil {
		return Narrative{}, fmt.Errorf("narrative: audit: %w", err)
	}
	return s.complete(ctx, AuditPrompt(items))
}

// ExplainKPI narrates the monthly indicator report.
func (s *Service) ExplainKPI(ctx context.Context) (Narrative, error) {
	report, err := s.reporter.KPIReport(ctx)
	if err != nil {
		return Narrative{}, fmt.Errorf("narrative: kpi: %w", err)
	}
	return s.complete(ctx, KPIPrompt(report))
}

// ExplainProposals narrates the generated purchase proposals.
func (s *Service) ExplainProposals(ctx context.Context) (Narrative, error) {
	proposals, err := s.replenisher.PurchaseProposals(ctx)
	if err != nil {
		return Narrative{}, fmt.Errorf("narrative: proposals: %w", err)
	}
	return s.complete(ctx, ProposalsPrompt(proposals))
}

// ExplainDeliveries narrates delivery conformity checks.
func (s *Service) ExplainDeliveries(ctx context.Context) (Narrative, error) {
	items, err := s.alerter.VerifyDeliveries(ctx, alerts.DefaultDeliveryTolerance)
	if err != nil {
		return Narrative{}, fmt.Errorf("narrative: deliveries: %w", err)
	}
	return s.complete(ctx, DeliveriesPrompt(items))
}

// Chat answers a pharmacist message against the current forecast and
// alert state. The two context loads run concurrently.
func (s *Service) Chat(ctx context.Context, userMessage string) (Narrative, error) {
	var (
		forecasts []forecast.Forecast
		items     []alerts.Alert
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fs, err := s.forecaster.ForecastConsumption(gctx, forecast.DefaultWindowMonths)
		if err != nil {
			return fmt.Errorf("narrative: chat forecast: %w", err)
		}
		forecasts = fs
		return nil
	})
	g.Go(func() error {
		as, err := s.activeAlerts(gctx)
		if err != nil {
			return err
		}
		items = as
		return nil
	})
	if err := g.Wait(); err != nil {
		return Narrative{}, err
	}
	return s.complete(ctx, ChatPrompt(userMessage, forecasts, items))
}

func (s *Service) activeAlerts(ctx context.Context) ([]alerts.Alert, error) {
	critical, err := s.alerter.DetectCriticalStocks(ctx, alerts.DefaultCriticalLevel)
	if err != nil {
		return nil, fmt.Errorf("narrative: critical alerts: %w", err)
	}
	expiring, err := s.alerter.DetectExpiringProducts(ctx, alerts.DefaultExpiryDays)
	if err != nil {
		return nil, fmt.Errorf("narrative: expiry alerts: %w", err)
	}
	return append(critical, expiring...), nil
}

func (s *Service) complete(ctx context.Context, prompt string) (Narrative, error) {
	n := Narrative{Prompt: prompt}
	if s.completer == nil {
		return n, nil
	}
	response, err := s.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		// The prompt is still useful on its own; log and degrade.
		if s.logger != nil {
			s.logger.Error("narrative completion", slog.Any("error", err))
		}
		return n, nil
	}
	n.Response = response
	return n, nil
}
