package handlers

import (
	"net/http"

	"notemap/internal/apperr"
)

var errBackupsDisabled = apperr.New(apperr.NotFound, "backups", "backups are not enabled")

// ListBackups returns the caller's backup history, newest first.
func (a *API) ListBackups(w http.ResponseWriter, r *http.Request) {
	if a.backups == nil {
		writeError(w, r, errBackupsDisabled)
		return
	}

	items, err := a.backups.History(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.Internal, err, "list backups", "load history"))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

// RunBackup snapshots the caller's data. A failed run still appears in
// the history with status failed.
func (a *API) RunBackup(w http.ResponseWriter, r *http.Request) {
	if a.backups == nil {
		writeError(w, r, errBackupsDisabled)
		return
	}

	rec, err := a.backups.Run(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.Internal, err, "run backup", "snapshot failed"))
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// DownloadBackup returns a short-lived link to a stored snapshot.
func (a *API) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	if a.backups == nil {
		writeError(w, r, errBackupsDisabled)
		return
	}
	id, err := pathID(r, "backup download", "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	url, err := a.backups.DownloadURL(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
