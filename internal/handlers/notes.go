package handlers

import (
	"net/http"

	"notemap/internal/service"
)

// ListNotes returns a category's notes, most recently edited first.
func (a *API) ListNotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "list notes", "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	notes, err := a.catalog.Notes(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(notes))
}

// CreateNote adds a note to a category.
func (a *API) CreateNote(w http.ResponseWriter, r *http.Request) {
	var in service.NoteInput
	if err := decodeJSON(w, r, "create note", &in); err != nil {
		writeError(w, r, err)
		return
	}

	note, err := a.catalog.CreateNote(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote saves a note. Omitting category_id keeps it where it is.
func (a *API) UpdateNote(w http.ResponseWriter, r *http.Request) {
	const op = "update note"

	id, err := pathID(r, op, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.NoteInput
	if err := decodeJSON(w, r, op, &in); err != nil {
		writeError(w, r, err)
		return
	}

	note, err := a.catalog.UpdateNote(r.Context(), userID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote removes a note.
func (a *API) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "delete note", "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := a.catalog.DeleteNote(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
