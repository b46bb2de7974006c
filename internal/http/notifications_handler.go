package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/toast"
)

type NotificationsHandler struct {
	board   *toast.Board
	channel *notify.Channel
}

// NewNotificationsHandler accepts a nil channel when push updates are disabled.
func NewNotificationsHandler(board *toast.Board, channel *notify.Channel) *NotificationsHandler {
	return &NotificationsHandler{
		board:   board,
		channel: channel,
	}
}

type NotificationsDTO struct {
	State  notify.State  `json:"state"`
	Toasts []toast.Toast `json:"toasts"`
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	state := notify.StateDisconnected
	if h.channel != nil {
		state = h.channel.State()
	}
	toasts := h.board.Active()
	if toasts == nil {
		toasts = []toast.Toast{}
	}
	respondJSON(w, http.StatusOK, NotificationsDTO{State: state, Toasts: toasts})
}

func (h *NotificationsHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.board.Dismiss(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
