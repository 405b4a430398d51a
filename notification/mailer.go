package notification

import (
	"fmt"

	"asset-app/config"
	"asset-app/models"
	"asset-app/workflow"

	"gopkg.in/gomail.v2"
)

// Mailer implements workflow.Notifier over SMTP. When no SMTP host is
// configured it degrades to log printing so the workflow never depends
// on a mail server being up.
type Mailer struct {
	Recipients []string
}

func NewMailer(recipients []string) *Mailer {
	return &Mailer{Recipients: recipients}
}

func (m *Mailer) NotifyTransition(evt workflow.TransitionEvent) {
	subject := fmt.Sprintf("[Asset Tracking] %s %s: %s", evt.EntityType, evt.RequestNo, evt.ToStatus)
	body := fmt.Sprintf(`
		<html>
			<body>
				<h3>Request %s</h3>
				<p>Action <b>%s</b> moved the request from <b>%s</b> to <b>%s</b>.</p>
				<p>Actor: user %d</p>
				<p>Notes: %s</p>
			</body>
		</html>
	`, evt.RequestNo, evt.Action, evt.FromStatus, evt.ToStatus, evt.ActorID, evt.Notes)

	m.send(subject, body)
}

func (m *Mailer) NotifyIncident(incident *models.Incident) {
	subject := fmt.Sprintf("[Asset Tracking] Incident: %s on request %d", incident.Type, incident.RequestID)
	body := fmt.Sprintf(`
		<html>
			<body>
				<h3>Incident %d</h3>
				<p>Type: <b>%s</b></p>
				<p>%s</p>
				<p>Reported by user %d</p>
			</body>
		</html>
	`, incident.ID, incident.Type, incident.Description, incident.ReportedBy)

	m.send(subject, body)
}

func (m *Mailer) send(subject, body string) {
	if config.SMTPHost == "" || len(m.Recipients) == 0 {
		fmt.Println("notification (no smtp):", subject)
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", config.SMTPSender)
	msg.SetHeader("To", m.Recipients...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	dialer := gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPSender, config.SMTPPassword)
	if err := dialer.DialAndSend(msg); err != nil {
		fmt.Println("Failed to send notification email:", err)
	}
}
