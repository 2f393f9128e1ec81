package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"mini-crm/db"
	"mini-crm/models"

	"github.com/go-chi/chi/v5"
)

func AddNote(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	clientID := chi.URLParam(r, "id")

	var req struct {
		Content string `json:"content"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if req.Content == "" {
		http.Error(w, "Content is required", http.StatusBadRequest)
		return
	}

	tx, err := db.DB.Begin()
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	var id int
	err = tx.QueryRow("SELECT id FROM clients WHERE id = ? AND owner_id = ?", clientID, user.ID).Scan(&id)
	if err != nil {
		http.Error(w, "Client not found", http.StatusNotFound)
		return
	}

	// The note and the last_contact bump commit together or not at all.
	now := time.Now().UTC()
	res, err := tx.Exec("INSERT INTO notes (client_id, content, created_at) VALUES (?, ?, ?)", id, req.Content, now)
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	if _, err = tx.Exec("UPDATE clients SET last_contact = ? WHERE id = ?", now, id); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	if err = tx.Commit(); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	noteID, _ := res.LastInsertId()
	note := models.Note{
		ID:        int(noteID),
		ClientID:  id,
		Content:   req.Content,
		CreatedAt: now,
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(note)
}

func GetNotes(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	clientID := chi.URLParam(r, "id")

	client, err := fetchClient(user.ID, clientID)
	if err != nil {
		http.Error(w, "Client not found", http.StatusNotFound)
		return
	}

	rows, err := db.DB.Query(
		"SELECT id, client_id, content, created_at FROM notes WHERE client_id = ? ORDER BY created_at DESC, id DESC",
		client.ID,
	)
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		var n models.Note
		rows.Scan(&n.ID, &n.ClientID, &n.Content, &n.CreatedAt)
		notes = append(notes, n)
	}
	json.NewEncoder(w).Encode(notes)
}

func DeleteNote(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	clientID := chi.URLParam(r, "id")
	noteID := chi.URLParam(r, "note_id")

	client, err := fetchClient(user.ID, clientID)
	if err != nil {
		http.Error(w, "Client not found", http.StatusNotFound)
		return
	}

	res, err := db.DB.Exec("DELETE FROM notes WHERE id = ? AND client_id = ?", noteID, client.ID)
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		http.Error(w, "Note not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
