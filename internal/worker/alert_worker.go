package worker

// alert_worker.go
// Processes low-stock alert jobs from QueueAlerts and e-mails the list of
// ingredients to restock.

import (
	"context"
	"encoding/json"
	"errors"

	"teranga/internal/infra"

	"github.com/rs/zerolog/log"
)

// AlertMailer sends the rendered low-stock e-mail.
type AlertMailer interface {
	Configured() bool
	SendLowStockAlert(to string, lines []infra.LowStockLine) error
}

// AlertWorker turns JobLowStockAlert payloads into e-mails.
type AlertWorker struct {
	mailer    AlertMailer
	recipient string
}

func NewAlertWorker(mailer AlertMailer, recipient string) *AlertWorker {
	return &AlertWorker{mailer: mailer, recipient: recipient}
}

// Process is a Handler. Returning an error makes the pool retry the job.
func (w *AlertWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload LowStockAlertPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if len(payload.Items) == 0 {
		return nil
	}
	if w.recipient == "" || !w.mailer.Configured() {
		log.Warn().Int("items", len(payload.Items)).Msg("alert_worker: no recipient or SMTP host configured, alert logged only")
		for _, it := range payload.Items {
			log.Warn().Str("ingredient", it.Name).Str("quantity", it.Quantity).Str("threshold", it.Threshold).Msg("stock low")
		}
		return nil
	}

	lines := make([]infra.LowStockLine, len(payload.Items))
	for i, it := range payload.Items {
		lines[i] = infra.LowStockLine{Name: it.Name, Unit: it.Unit, Quantity: it.Quantity, Threshold: it.Threshold}
	}
	if err := w.mailer.SendLowStockAlert(w.recipient, lines); err != nil {
		if errors.Is(err, infra.ErrCircuitOpen) {
			log.Warn().Msg("alert_worker: smtp breaker open")
		}
		return err
	}
	log.Info().Str("to", w.recipient).Int("items", len(lines)).Msg("alert_worker: low-stock alert sent")
	return nil
}
