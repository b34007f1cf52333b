package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bemserver/acquisition-engine/internal/model"
	"github.com/bemserver/acquisition-engine/internal/store"
)

// EventsHandler is the read surface over the operational event log.
type EventsHandler struct {
	st *store.Store
}

func NewEventsHandler(st *store.Store) *EventsHandler {
	return &EventsHandler{st: st}
}

func (h *EventsHandler) Routes(r chi.Router) {
	r.Get("/events", h.list)
}

// list returns events matching the query filter. Absent a ?state=
// parameter it defaults to the still-open states (NEW, ONGOING), since
// that is what an operator dashboard wants by default.
func (h *EventsHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := model.EventListFilter{
		Category: q.Get("category"),
		Source:   q.Get("source"),
	}
	if states := q["state"]; len(states) > 0 {
		for _, s := range states {
			filter.States = append(filter.States, model.EventState(strings.ToUpper(s)))
		}
	} else {
		filter.States = []model.EventState{model.EventNew, model.EventOngoing}
	}
	if lvl := q.Get("level"); lvl != "" {
		filter.Level = model.EventLevel(strings.ToUpper(lvl))
	}
	if tt := q.Get("target_type"); tt != "" {
		filter.TargetType = model.EventTargetType(strings.ToUpper(tt))
	}
	if tid := q.Get("target_id"); tid != "" {
		id, err := strconv.ParseInt(tid, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "target_id must be an integer")
			return
		}
		filter.TargetID = id
	}

	events, err := h.st.ListEventsByState(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, events)
}
