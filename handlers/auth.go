package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"mini-crm/auth"
	"mini-crm/db"
	"mini-crm/models"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	json.NewDecoder(r.Body).Decode(&req)

	if req.Email == "" || req.Username == "" || req.Password == "" {
		http.Error(w, "Email, username and password are required", http.StatusBadRequest)
		return
	}

	var exists bool
	db.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)", req.Email).Scan(&exists)
	if exists {
		http.Error(w, "Email already registered", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	res, err := db.DB.Exec(
		"INSERT INTO users (email, username, password_hash, is_active, created_at) VALUES (?, ?, ?, ?, ?)",
		req.Email, req.Username, hash, true, now,
	)
	if err != nil {
		// Unique constraint on username lands here.
		http.Error(w, "User exists or DB error", http.StatusBadRequest)
		return
	}

	id, _ := res.LastInsertId()
	user := models.User{
		ID:        int(id),
		Email:     req.Email,
		Username:  req.Username,
		IsActive:  true,
		CreatedAt: now,
	}
	json.NewEncoder(w).Encode(user)
}

func Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	json.NewDecoder(r.Body).Decode(&req)

	var user models.User
	err := db.DB.QueryRow("SELECT id, email, password_hash FROM users WHERE email = ?", req.Email).
		Scan(&user.ID, &user.Email, &user.PasswordHash)
	if err != nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.CreateAccessToken(user.Email)
	if err != nil {
		http.Error(w, "Token generation failed", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}
