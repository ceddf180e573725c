// Package narrative turns engine output into French prompts for a text
// completion backend and, when one is configured, into pharmacist-facing
// explanations.
package narrative

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pharmsight/pharmsight/internal/alerts"
	"github.com/pharmsight/pharmsight/internal/forecast"
	"github.com/pharmsight/pharmsight/internal/replenish"
	"github.com/pharmsight/pharmsight/internal/reporting"
)

// The audience is French-speaking, so large figures get French grouping.
var frPrinter = message.NewPrinter(language.French)

// ForecastPrompt lists suggested quantities and asks for a stockout risk
// analysis.
func ForecastPrompt(forecasts []forecast.Forecast) string {
	var b strings.Builder
	b.WriteString("Voici les prévisions de consommation à analyser :\n")
	for i, f := range forecasts {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s : %d unités à prévoir", f.ProductID, f.SuggestedQuantity)
	}
	b.WriteString("\nExplique quels produits sont à risque de rupture et pourquoi.")
	return b.String()
}

// AlertsPrompt asks for a plain-language reformulation of raised alerts.
func AlertsPrompt(items []alerts.Alert) string {
	var b strings.Builder
	b.WriteString("Voici les alertes détectées par le système :\n")
	for i, a := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s – %s : %s", a.Type, a.ProductID, a.Message)
	}
	b.WriteString("\nReformule ces alertes en langage clair à destination du pharmacien.")
	return b.String()
}

// AuditPrompt describes inventory gaps and asks for risks and
// recommendations. Empty input gets its own question.
func AuditPrompt(items []alerts.Alert) string {
	if len(items) == 0 {
		return "Aucun écart d'inventaire détecté. Que peut-on en conclure ?"
	}
	var b strings.Builder
	b.WriteString("Suite à un audit d'inventaire, les écarts suivants ont été identifiés :\n")
	for i, a := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s : %s", a.ProductID, a.Message)
	}
	b.WriteString("\nQuels sont les risques et les recommandations ?")
	return b.String()
}

// KPIPrompt summarizes the monthly indicators for an interpretive report.
func KPIPrompt(report reporting.KPIReport) string {
	return frPrinter.Sprintf(
		"Voici les KPI du mois :\n- Total de ruptures : %d\n- Total des sorties : %d\n- Top produits : %s\nRédige un rapport synthétique et interprétatif pour le pharmacien.",
		report.TotalRuptures,
		report.TotalExits,
		strings.Join(report.TopProducts, ", "),
	)
}

// ProposalsPrompt asks for validation of generated purchase proposals.
func ProposalsPrompt(proposals []replenish.Proposal) string {
	if len(proposals) == 0 {
		return "Aucune suggestion de commande n’a été générée. Est-ce normal ?"
	}
	var b strings.Builder
	b.WriteString("Voici les suggestions de commande générées automatiquement :\n")
	for i, p := range proposals {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s : %d unités proposées – Justification : %s",
			p.ProductID, p.SuggestedQuantity, p.Justification)
	}
	b.WriteString("\nValide ou ajuste ces suggestions selon les bonnes pratiques de gestion de stock.")
	return b.String()
}

// DeliveriesPrompt describes delivery non-conformities, or confirms that
// the batch can be closed when there are none.
func DeliveriesPrompt(items []alerts.Alert) string {
	if len(items) == 0 {
		return "Toutes les livraisons sont conformes. Peut-on valider la clôture de ce lot ?"
	}
	var b strings.Builder
	b.WriteString("Des non-conformités ont été détectées dans les livraisons :\n")
	for i, a := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s : %s", a.ProductID, a.Message)
	}
	b.WriteString("\nComment faut-il réagir face à ces anomalies ?")
	return b.String()
}

// ChatPrompt frames a pharmacist message with the current forecast and
// alert state.
func ChatPrompt(userMessage string, forecasts []forecast.Forecast, items []alerts.Alert) string {
	summary := "Aucune prévision critique."
	if len(forecasts) > 0 {
		lines := make([]string, 0, len(forecasts))
		for _, f := range forecasts {
			lines = append(lines, fmt.Sprintf("- %s: %d unités à commander", f.ProductID, f.SuggestedQuantity))
		}
		summary = strings.Join(lines, "\n")
	}

	alertTexts := "Aucune alerte active."
	if len(items) > 0 {
		lines := make([]string, 0, len(items))
		for _, a := range items {
			lines = append(lines, fmt.Sprintf("- %s (%s) : %s", a.ProductID, a.Type, a.Message))
		}
		alertTexts = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(
		"Voici l’état du système :\nPrévisions :\n%s\n\nAlertes :\n%s\n\nMessage du pharmacien : %s\nDonne une réponse claire, contextualisée et en français.",
		summary, alertTexts, userMessage,
	)
}
