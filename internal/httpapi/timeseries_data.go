package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bemserver/acquisition-engine/internal/csvio"
	"github.com/bemserver/acquisition-engine/internal/store"
)

// TimeseriesDataHandler exposes the CSV import/export surface over raw
// and bucketed timeseries data.
type TimeseriesDataHandler struct {
	st *store.Store
}

func NewTimeseriesDataHandler(st *store.Store) *TimeseriesDataHandler {
	return &TimeseriesDataHandler{st: st}
}

func (h *TimeseriesDataHandler) Routes(r chi.Router) {
	r.Get("/timeseries-data/", h.export)
	r.Get("/timeseries-data/aggregate", h.exportAggregate)
	r.Post("/timeseries-data/", h.importCSV)
}

func (h *TimeseriesDataHandler) export(w http.ResponseWriter, r *http.Request) {
	start, end, ids, ok := h.parseRangeParams(w, r)
	if !ok {
		return
	}

	body, err := csvio.Export(r.Context(), h.st, start, end, ids)
	if err != nil {
		h.writeCSVIOError(w, err)
		return
	}
	writeCSVAttachment(w, "timeseries.csv", body)
}

func (h *TimeseriesDataHandler) exportAggregate(w http.ResponseWriter, r *http.Request) {
	start, end, ids, ok := h.parseRangeParams(w, r)
	if !ok {
		return
	}

	bucketWidth, err := time.ParseDuration(r.URL.Query().Get("bucket_width"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid or missing bucket_width")
		return
	}

	tzName := r.URL.Query().Get("timezone")
	if tzName == "" {
		tzName = "UTC"
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "unknown timezone "+tzName)
		return
	}

	aggregation := r.URL.Query().Get("aggregation")
	if aggregation == "" {
		aggregation = "avg"
	}

	body, err := csvio.ExportBucket(r.Context(), h.st, start, end, ids, bucketWidth, tz, aggregation)
	if err != nil {
		h.writeCSVIOError(w, err)
		return
	}
	writeCSVAttachment(w, "timeseries.csv", body)
}

func (h *TimeseriesDataHandler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("csv_file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing csv_file field")
		return
	}
	defer file.Close()

	if err := csvio.Import(r.Context(), h.st, file); err != nil {
		h.writeCSVIOError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *TimeseriesDataHandler) parseRangeParams(w http.ResponseWriter, r *http.Request) (start, end time.Time, ids []int64, ok bool) {
	start, hasStart := QueryTime(r, "start_time")
	end, hasEnd := QueryTime(r, "end_time")
	if !hasStart || !hasEnd {
		WriteError(w, http.StatusBadRequest, "start_time and end_time are required RFC3339 timestamps")
		return time.Time{}, time.Time{}, nil, false
	}
	ids = QueryInt64List(r, "timeseries")
	if len(ids) == 0 {
		WriteError(w, http.StatusBadRequest, "at least one timeseries id is required")
		return time.Time{}, time.Time{}, nil, false
	}
	return start, end, ids, true
}

// writeCSVIOError maps a *csvio.Error by its Cause: a storage failure is a
// 500, every other cause is a malformed upload and gets a 422.
func (h *TimeseriesDataHandler) writeCSVIOError(w http.ResponseWriter, err error) {
	cerr, ok := err.(*csvio.Error)
	if !ok {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cerr.Cause == csvio.CauseStorage {
		WriteError(w, http.StatusInternalServerError, cerr.Error())
		return
	}
	WriteErrorDetail(w, http.StatusUnprocessableEntity, cerr.Cause.String(), cerr.Msg)
}

func writeCSVAttachment(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=`+filename)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
