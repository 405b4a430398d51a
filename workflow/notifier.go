package workflow

import (
	"fmt"

	"asset-app/models"
)

// TransitionEvent is handed to the external notification collaborator
// after a transition has committed.
type TransitionEvent struct {
	RequestID      int64
	RequestNo      string
	BatchReference string
	EntityType     string
	Action         Action
	FromStatus     string
	ToStatus       string
	ActorID        int
	Notes          string
}

// Notifier is the external notification collaborator. Implementations
// must not fail the workflow; they are invoked after commit.
type Notifier interface {
	NotifyTransition(evt TransitionEvent)
	NotifyIncident(incident *models.Incident)
}

// LogNotifier prints events; the default when SMTP is not wired.
type LogNotifier struct{}

func (LogNotifier) NotifyTransition(evt TransitionEvent) {
	fmt.Printf("workflow: %s %s %s -> %s by user %d\n",
		evt.RequestNo, evt.Action, evt.FromStatus, evt.ToStatus, evt.ActorID)
}

func (LogNotifier) NotifyIncident(incident *models.Incident) {
	fmt.Printf("workflow: incident %s opened for request %d line %d\n",
		incident.Type, incident.RequestID, incident.LineID)
}
