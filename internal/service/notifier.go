package service

import "context"

// Event describes a committed change to a template or one of its nodes.
type Event struct {
	Type       string `json:"type"` // one of the models.Action* values
	TemplateID string `json:"template_id"`
	SubjectID  string `json:"subject_id"`
	Data       any    `json:"data"`
}

// Notifier receives events after the transaction that produced them commits.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
