package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bemserver/acquisition-engine/internal/model"
	"github.com/bemserver/acquisition-engine/internal/store"
)

// TimeseriesHandler is the administration CRUD surface over timeseries.
type TimeseriesHandler struct {
	st *store.Store
}

func NewTimeseriesHandler(st *store.Store) *TimeseriesHandler {
	return &TimeseriesHandler{st: st}
}

func (h *TimeseriesHandler) Routes(r chi.Router) {
	r.Get("/timeseries", h.list)
	r.Post("/timeseries", h.create)
	r.Patch("/timeseries/{id}", h.update)
	r.Delete("/timeseries/{id}", h.delete)
}

func (h *TimeseriesHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.st.ListTimeseries(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (h *TimeseriesHandler) create(w http.ResponseWriter, r *http.Request) {
	var ts model.Timeseries
	if err := DecodeJSON(r, &ts); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if ts.Name == "" {
		WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := h.st.CreateTimeseries(r.Context(), ts)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ts.ID = id
	WriteJSON(w, http.StatusCreated, ts)
}

func (h *TimeseriesHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt64(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var ts model.Timeseries
	if err := DecodeJSON(r, &ts); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	ts.ID = id

	found, err := h.st.UpdateTimeseries(r.Context(), ts)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		WriteError(w, http.StatusNotFound, "timeseries not found")
		return
	}
	WriteJSON(w, http.StatusOK, ts)
}

func (h *TimeseriesHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt64(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, found, err := h.st.GetTimeseriesByID(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	} else if !found {
		WriteError(w, http.StatusNotFound, "timeseries not found")
		return
	}

	if err := h.st.DeleteTimeseries(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
