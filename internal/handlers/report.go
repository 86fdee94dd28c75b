package handlers

import (
	"net/http"

	"github.com/petermazzocco/photo-lobby/internal/auth"
	"github.com/petermazzocco/photo-lobby/internal/service"
)

// CreateReportHandler files a report against a lobby. Anonymous callers may
// report too.
func (a *API) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	var in service.ReportInput
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	report, err := a.svc.CreateReport(r.Context(), auth.UserID(r.Context()), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}
