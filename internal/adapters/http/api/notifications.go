// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/chimeralabs/accolade/internal/domain/model"
)

// NotificationDependencies defines the interface for notification reads.
type NotificationDependencies interface {
	ActiveNotifications(ctx context.Context) []model.Notification
}

// NotificationsHandler handles notification read requests.
type NotificationsHandler struct {
	deps NotificationDependencies
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(deps NotificationDependencies) *NotificationsHandler {
	return &NotificationsHandler{deps: deps}
}

// notificationResponse mirrors the wire shape of one active notification.
type notificationResponse struct {
	ID            string `json:"id"`
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
	Rarity        string `json:"rarity"`
	Status        string `json:"status"`
	Priority      int    `json:"priority"`
}

// HandleActive handles GET /notifications/active requests.
func (h *NotificationsHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	active := h.deps.ActiveNotifications(r.Context())
	out := make([]notificationResponse, len(active))
	for i := range active {
		n := &active[i]
		out[i] = notificationResponse{
			ID:            n.ID,
			AchievementID: n.Achievement.ID,
			Name:          n.Achievement.Name,
			Rarity:        string(n.Achievement.Rarity),
			Status:        string(n.Status),
			Priority:      n.Priority,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
