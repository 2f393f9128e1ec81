package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"mini-crm/db"
	"mini-crm/models"

	"github.com/go-chi/chi/v5"
)

const clientColumns = "id, owner_id, name, email, phone, created_at, last_contact"

func currentUser(r *http.Request) models.User {
	return r.Context().Value("currentUser").(models.User)
}

func fetchClient(ownerID int, clientID string) (models.Client, error) {
	var c models.Client
	err := db.DB.QueryRow(
		"SELECT "+clientColumns+" FROM clients WHERE id = ? AND owner_id = ?",
		clientID, ownerID,
	).Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.LastContact)
	return c, err
}

func GetClients(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	rows, err := db.DB.Query(
		"SELECT "+clientColumns+" FROM clients WHERE owner_id = ? ORDER BY created_at DESC",
		user.ID,
	)
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		var c models.Client
		rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.LastContact)
		clients = append(clients, c)
	}
	json.NewEncoder(w).Encode(clients)
}

func CreateClient(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	var req struct {
		Name  string  `json:"name"`
		Email *string `json:"email"`
		Phone *string `json:"phone"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if req.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	res, err := db.DB.Exec(
		"INSERT INTO clients (owner_id, name, email, phone, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, req.Name, req.Email, req.Phone, now,
	)
	if err != nil {
		http.Error(w, "DB error", http.StatusBadRequest)
		return
	}

	id, _ := res.LastInsertId()
	client := models.Client{
		ID:        int(id),
		OwnerID:   user.ID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: now,
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(client)
}

func GetClient(w http.ResponseWriter, r *http.Request) {
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

	detail := models.ClientWithNotes{Client: client, Notes: []models.Note{}}
	for rows.Next() {
		var n models.Note
		rows.Scan(&n.ID, &n.ClientID, &n.Content, &n.CreatedAt)
		detail.Notes = append(detail.Notes, n)
	}
	json.NewEncoder(w).Encode(detail)
}

func UpdateClient(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	clientID := chi.URLParam(r, "id")

	// Omitted fields stay untouched, so decode into pointers.
	var req struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
		Phone *string `json:"phone"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	client, err := fetchClient(user.ID, clientID)
	if err != nil {
		http.Error(w, "Client not found", http.StatusNotFound)
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			http.Error(w, "Name is required", http.StatusBadRequest)
			return
		}
		client.Name = *req.Name
	}
	if req.Email != nil {
		client.Email = req.Email
	}
	if req.Phone != nil {
		client.Phone = req.Phone
	}

	_, err = db.DB.Exec(
		"UPDATE clients SET name = ?, email = ?, phone = ? WHERE id = ? AND owner_id = ?",
		client.Name, client.Email, client.Phone, client.ID, user.ID,
	)
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(client)
}

func DeleteClient(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	clientID := chi.URLParam(r, "id")

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

	// Notes go first so the cascade never depends on the driver's FK setup.
	if _, err = tx.Exec("DELETE FROM notes WHERE client_id = ?", id); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	if _, err = tx.Exec("DELETE FROM clients WHERE id = ?", id); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	if err = tx.Commit(); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
