package narrative

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pharmsight/pharmsight/internal/alerts"
	"github.com/pharmsight/pharmsight/internal/forecast"
	"github.com/pharmsight/pharmsight/internal/replenish"
	"github.com/pharmsight/pharmsight/internal/reporting"
)

func TestForecastPrompt(t *testing.T) {
	got := ForecastPrompt([]forecast.Forecast{
		{ProductID: "P001", AverageConsumption: 10, SuggestedQuantity: 12},
		{ProductID: "P002", AverageConsumption: 4, SuggestedQuantity: 3},
	})

	want := "Voici les prévisions de consommation à analyser :\n" +
		"- P001 : 12 unités à prévoir\n" +
		"- P002 : 3 unités à prévoir\n" +
		"Explique quels produits sont à risque de rupture et pourquoi."
	require.Equal(t, want, got)
}

func TestAlertsPrompt(t *testing.T) {
	got := AlertsPrompt([]alerts.Alert{
		{ProductID: "P001", Type: alerts.TypeCriticalThreshold, Message: "Stock critique pour P001 (4 unités)"},
	})

	want := "Voici les alertes détectées par le système :\n" +
		"SEUIL_CRITIQUE – P001 : Stock critique pour P001 (4 unités)\n" +
		"Reformule ces alertes en langage clair à destination du pharmacien."
	require.Equal(t, want, got)
}

func TestAuditPromptEmpty(t *testing.T) {
	require.Equal(t,
		"Aucun écart d'inventaire détecté. Que peut-on en conclure ?",
		AuditPrompt(nil),
	)
}

func TestAuditPromptWithGaps(t *testing.T) {
	got := AuditPrompt([]alerts.Alert{
		{ProductID: "P001", Type: alerts.TypeInventoryGap, Message: "Écart détecté : stock=100, attendu=80"},
	})

	want := "Suite à un audit d'inventaire, les écarts suivants ont été identifiés :\n" +
		"- P001 : Écart détecté : stock=100, attendu=80\n" +
		"Quels sont les risques et les recommandations ?"
	require.Equal(t, want, got)
}

func TestKPIPrompt(t *testing.T) {
	got := KPIPrompt(reporting.KPIReport{
		TotalRuptures: 3,
		TotalExits:    140,
		TopProducts:   []string{"P001", "P002"},
	})

	want := "Voici les KPI du mois :\n" +
		"- Total de ruptures : 3\n" +
		"- Total des sorties : 140\n" +
		"- Top produits : P001, P002\n" +
		"Rédige un rapport synthétique et interprétatif pour le pharmacien."
	require.Equal(t, want, got)
}

func TestProposalsPromptEmpty(t *testing.T) {
	require.Equal(t,
		"Aucune suggestion de commande n’a été générée. Est-ce normal ?",
		ProposalsPrompt(nil),
	)
}

func TestProposalsPrompt(t *testing.T) {
	got := ProposalsPrompt([]replenish.Proposal{
		{ProductID: "P001", SuggestedQuantity: 12, Justification: "Basé sur la prévision de consommation moyenne"},
	})

	want := "Voici les suggestions de commande générées automatiquement :\n" +
		"P001 : 12 unités proposées – Justification : Basé sur la prévision de consommation moyenne\n" +
		"Valide ou ajuste ces suggestions selon les bonnes pratiques de gestion de stock."
	require.Equal(t, want, got)
}

func TestDeliveriesPromptEmpty(t *testing.T) {
	require.Equal(t,
		"Toutes les livraisons sont conformes. Peut-on valider la clôture de ce lot ?",
		DeliveriesPrompt(nil),
	)
}

func TestChatPromptWithContext(t *testing.T) {
	got := ChatPrompt("Que dois-je commander ?",
		[]forecast.Forecast{{ProductID: "P001", SuggestedQuantity: 12}},
		[]alerts.Alert{{ProductID: "P002", Type: alerts.TypeExpiry, Message: "Produit P002 proche de péremption (2025-07-01)"}},
	)

	want := "Voici l’état du système :\n" +
		"Prévisions :\n" +
		"- P001: 12 unités à commander\n\n" +
		"Alertes :\n" +
		"- P002 (PEREMPTION) : Produit P002 proche de péremption (2025-07-01)\n\n" +
		"Message du pharmacien : Que dois-je commander ?\n" +
		"Donne une réponse claire, contextualisée et en français."
	require.Equal(t, want, got)
}

func TestChatPromptEmptyContext(t *testing.T) {
	got := ChatPrompt("Bonjour", nil, nil)

	require.Contains(t, got, "Prévisions :\nAucune prévision critique.")
	require.Contains(t, got, "Alertes :\nAucune alerte active.")
}
