package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/itam/modules/inventory/domain/events"
	"github.com/iota-uz/itam/pkg/eventbus"
)

// EventLogHandler writes inventory domain events to the log.
type EventLogHandler struct {
	log *logrus.Entry
}

func NewEventLogHandler(logger *logrus.Logger) *EventLogHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EventLogHandler{log: logger.WithField("component", "events")}
}

// Subscribe attaches the handler to bus and returns a func that detaches it.
func (h *EventLogHandler) Subscribe(bus eventbus.EventBus) func() {
	unsubs := []func(){
		bus.Subscribe(h.onProjectUpdated),
		bus.Subscribe(h.onProjectManagerUpdated),
		bus.Subscribe(h.onAssetsChanged),
		bus.Subscribe(h.onTeamChanged),
		bus.Subscribe(h.onSessionExpired),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (h *EventLogHandler) onProjectUpdated(e *events.ProjectUpdated) {
	id := e.ProjectID
	if id == "" && e.Project != nil {
		id = e.Project.ID
	}
	h.log.WithFields(logrus.Fields{"project": id, "change": e.Type}).Info("project changed")
}

func (h *EventLogHandler) onProjectManagerUpdated(e *events.ProjectManagerUpdated) {
	h.log.WithFields(logrus.Fields{
		"project":  e.ProjectID,
		"manager":  e.ManagerName,
		"previous": e.PreviousManager,
	}).Info("project manager changed")
}

func (h *EventLogHandler) onAssetsChanged(e *events.AssetsChanged) {
	h.log.WithFields(logrus.Fields{"project": e.ProjectID, "count": e.Count}).Debug("assets changed")
}

func (h *EventLogHandler) onTeamChanged(e *events.TeamChanged) {
	h.log.WithField("project", e.ProjectID).Debug("team changed")
}

func (h *EventLogHandler) onSessionExpired(e *events.SessionExpired) {
	h.log.WithFields(logrus.Fields{"reason": e.Reason, "at": e.At}).Warn("session expired, sign in again")
}
