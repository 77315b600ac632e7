// Package notify composes the user facing summary of a workflow run.
package notify

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/kilianp07/batterycare/core/logger"
	"github.com/kilianp07/batterycare/core/model"
)

// Subject is the subject line of every summary.
const Subject = "Battery Health and Service Summary"

// SlotLayout formats appointment slots in messages.
const SlotLayout = "2006-01-02 15:04"

const messageTemplate = `Subject: {{.Subject}}

Dear User,

Here is the summary of your vehicle's battery health and service plan:

Battery Insight:
Battery State of Health (SoH): {{printf "%.2f" .Insight.LatestStateOfHealth}}%.
The system detected {{.Insight.AnomalyCount}} anomalies and an average SoH decline of {{.Insight.AverageLossText}} per cycle.

Service Plan:
{{.Plan.Action}}

Appointment Details:
Appointment scheduled with {{.Dealer}} on {{.Slot}} via {{.Method}}.

Best regards,
Your Vehicle Maintenance Team
`

type messageData struct {
	Subject string
	Insight model.HealthInsight
	Plan    model.ServicePlan
	Dealer  string
	Slot    string
	Method  string
}

// Composer renders notifications.
type Composer struct {
	tmpl *template.Template
	log  logger.Logger
}

// New returns a Composer using the built-in message template.
func New(log logger.Logger) *Composer {
	return &Composer{
		tmpl: template.Must(template.New("message").Parse(messageTemplate)),
		log:  logger.OrNop(log),
	}
}

// Compose returns the notification for a run. Without a booked appointment the
// message is suppressed.
func (c *Composer) Compose(insight model.HealthInsight, plan model.ServicePlan, appt model.Appointment) (model.Notification, error) {
	if !appt.Scheduled() {
		c.log.Debugf("notification suppressed: appointment status %s", appt.Status)
		return model.Notification{SuppressedReason: model.String(model.NoAppointmentReason)}, nil
	}
	if appt.Dealer == nil || appt.Slot == nil {
		return model.Notification{}, errors.New("notify: scheduled appointment without dealer or slot")
	}
	data := messageData{
		Subject: Subject,
		Insight: insight,
		Plan:    plan,
		Dealer:  *appt.Dealer,
		Slot:    formatSlot(*appt.Slot),
		Method:  model.MethodAutoSelected,
	}
	if appt.Method != nil {
		data.Method = *appt.Method
	}
	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return model.Notification{}, fmt.Errorf("notify: render: %w", err)
	}
	return model.Notification{Subject: Subject, Message: model.String(buf.String())}, nil
}

func formatSlot(t time.Time) string {
	return t.Format(SlotLayout)
}
