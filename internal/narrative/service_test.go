package narrative

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pharmsight/pharmsight/internal/alerts"
	"github.com/pharmsight/pharmsight/internal/forecast"
	"github.com/pharmsight/pharmsight/internal/replenish"
	"github.com/pharmsight/pharmsight/internal/reporting"
)

type stubEngines struct {
	forecasts []forecast.Forecast
	critical  []alerts.Alert
	expiring  []alerts.Alert
	gaps      []alerts.Alert
	delivery  []alerts.Alert
	kpi       reporting.KPIReport
	proposals []replenish.Proposal
	err       error
}

func (s *stubEngines) ForecastConsumption(ctx context.Context, windowMonths int) ([]forecast.Forecast, error) {
	return s.forecasts, s.err
}

func (s *stubEngines) DetectCriticalStocks(ctx context.Context, level int) ([]alerts.Alert, error) {
	return s.critical, s.err
}

func (s *stubEngines) DetectExpiringProducts(ctx context.Context, daysLimit int) ([]alerts.Alert, error) {
	return s.expiring, s.err
}

func (s *stubEngines) AuditInventory(ctx context.Context) ([]alerts.Alert, error) {
	return s.gaps, s.err
}

func (s *stubEngines) VerifyDeliveries(ctx context.Context, tolerance float64) ([]alerts.Alert, error) {
	return s.delivery, s.err
}

func (s *stubEngines) KPIReport(ctx context.Context) (reporting.KPIReport, error) {
	return s.kpi, s.err
}

func (s *stubEngines) PurchaseProposals(ctx context.Context) ([]replenish.Proposal, error) {
	return s.proposals, s.err
}

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (c *stubCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	c.calls++
	return c.reply, c.err
}

func newService(engines *stubEngines, completer Completer) *Service {
	return NewService(engines, engines, engines, engines, completer, slog.New(slog.DiscardHandler))
}

func TestExplainForecastWithoutCompleter(t *testing.T) {
	engines := &stubEngines{
		forecasts: []forecast.Forecast{{ProductID: "P001", SuggestedQuantity: 12}},
	}
	svc := newService(engines, nil)

	n, err := svc.ExplainForecast(context.Background())
	require.NoError(t, err)
	require.Contains(t, n.Prompt, "- P001 : 12 unités à prévoir")
	require.Empty(t, n.Response)
}

func TestExplainForecastWithCompleter(t *testing.T) {
	engines := &stubEngines{
		forecasts: []forecast.Forecast{{ProductID: "P001", SuggestedQuantity: 12}},
	}
	completer := &stubCompleter{reply: "P001 risque la rupture."}
	svc := newService(engines, completer)

	n, err := svc.ExplainForecast(context.Background())
	require.NoError(t, err)
	require.Equal(t, "P001 risque la rupture.", n.Response)
	require.Equal(t, 1, completer.calls)
}

func TestCompleterFailureDegradesToPrompt(t *testing.T) {
	engines := &stubEngines{kpi: reporting.KPIReport{TotalRuptures: 1}}
	completer := &stubCompleter{err: errors.New("backend unavailable")}
	svc := newService(engines, completer)

	n, err := svc.ExplainKPI(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, n.Prompt)
	require.Empty(t, n.Response)
}

func TestChatCombinesForecastAndAlerts(t *testing.T) {
	engines := &stubEngines{
		forecasts: []forecast.Forecast{{ProductID: "P001", SuggestedQuantity: 5}},
		critical:  []alerts.Alert{{ProductID: "P002", Type: alerts.TypeCriticalThreshold, Message: "Stock critique pour P002 (3 unités)"}},
		expiring:  []alerts.Alert{{ProductID: "P003", Type: alerts.TypeExpiry, Message: "Produit P003 proche de péremption (2025-07-01)"}},
	}
	svc := newService(engines, nil)

	n, err := svc.Chat(context.Background(), "Quoi commander ?")
	require.NoError(t, err)
	require.Contains(t, n.Prompt, "- P001: 5 unités à commander")
	require.Contains(t, n.Prompt, "- P002 (SEUIL_CRITIQUE)")
	require.Contains(t, n.Prompt, "- P003 (PEREMPTION)")
	require.Contains(t, n.Prompt, "Message du pharmacien : Quoi commander ?")
}

func TestChatPropagatesEngineErrors(t *testing.T) {
	engines := &stubEngines{err: errors.New("store down")}
	svc := newService(engines, nil)

	_, err := svc.Chat(context.Background(), "Bonjour")
	require.Error(t, err)
}

func TestExplainDeliveriesEmptyBatch(t *testing.T) {
	svc := newService(&stubEngines{}, nil)

	n, err := svc.ExplainDeliveries(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Toutes les livraisons sont conformes. Peut-on valider la clôture de ce lot ?", n.Prompt)
}
