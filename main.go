package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"mini-crm/db"
	"mini-crm/handlers"
	appmw "mini-crm/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func newRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "Coaching CRM API"})
	})

	r.Post("/auth/register", handlers.Register)
	r.Post("/auth/login", handlers.Login)

	r.Group(func(r chi.Router) {
		r.Use(appmw.RequireAuth)
		r.Get("/clients/", handlers.GetClients)
		r.Post("/clients/", handlers.CreateClient)
		r.Get("/clients/{id}", handlers.GetClient)
		r.Put("/clients/{id}", handlers.UpdateClient)
		r.Delete("/clients/{id}", handlers.DeleteClient)
		r.Post("/clients/{id}/notes", handlers.AddNote)
		r.Get("/clients/{id}/notes", handlers.GetNotes)
		r.Delete("/clients/{id}/notes/{note_id}", handlers.DeleteNote)
	})

	return r
}

func main() {

	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Error loading .env file, using environment values")
	}

	db.ConnectDB()
	r := newRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Server running on http://localhost:" + port)
	http.ListenAndServe(":"+port, r)
}
