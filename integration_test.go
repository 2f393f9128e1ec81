package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"mini-crm/db"

	"github.com/go-chi/chi/v5"
)

var router *chi.Mux

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "integration-test-secret")
	os.Setenv("DB_DRIVER", "sqlite3")
	os.Setenv("DSN", "file:integrationtest?mode=memory&cache=shared")

	db.ConnectDB()
	router = newRouter()

	code := m.Run()

	db.DB.Exec("DROP TABLE IF EXISTS notes")
	db.DB.Exec("DROP TABLE IF EXISTS clients")
	db.DB.Exec("DROP TABLE IF EXISTS users")

	os.Exit(code)
}

func doJSON(t *testing.T, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func registerAndLogin(t *testing.T, email, username, password string) string {
	t.Helper()
	resp := doJSON(t, "POST", "/auth/register", "", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("Register failed with status %v: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, "POST", "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("Login failed with status %v", resp.Code)
	}
	var loginResp map[string]string
	json.Unmarshal(resp.Body.Bytes(), &loginResp)
	if loginResp["access_token"] == "" {
		t.Fatal("Login response missing access_token")
	}
	return loginResp["access_token"]
}

func TestRegisterLoginFlow(t *testing.T) {
	token := registerAndLogin(t, "flow@example.com", "flowcoach", "flow-password")

	// Duplicate registration is rejected.
	resp := doJSON(t, "POST", "/auth/register", "", map[string]string{
		"email":    "flow@example.com",
		"username": "flowcoach2",
		"password": "another-password",
	})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for duplicate email, got %v", resp.Code)
	}

	// Wrong password is rejected.
	resp = doJSON(t, "POST", "/auth/login", "", map[string]string{
		"email":    "flow@example.com",
		"password": "wrong-password",
	})
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for wrong password, got %v", resp.Code)
	}

	// The token works against a protected route.
	resp = doJSON(t, "GET", "/clients/", token, nil)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200 listing clients, got %v", resp.Code)
	}

	// No token does not.
	resp = doJSON(t, "GET", "/clients/", "", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without token, got %v", resp.Code)
	}
}

func TestClientNoteLifecycle(t *testing.T) {
	token := registerAndLogin(t, "lifecycle@example.com", "lifecoach", "lifecycle-pw")

	// Create a client.
	resp := doJSON(t, "POST", "/clients/", token, map[string]string{
		"name":  "Bob",
		"email": "bob@example.com",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 creating client, got %v", resp.Code)
	}
	var client map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &client)
	clientID := int(client["id"].(float64))
	if client["last_contact"] != nil {
		t.Errorf("New client should have no last_contact, got %v", client["last_contact"])
	}

	// Add a note; last_contact must land between the surrounding instants.
	before := time.Now().UTC()
	resp = doJSON(t, "POST", "/clients/"+strconv.Itoa(clientID)+"/notes", token, map[string]string{
		"content": "called",
	})
	after := time.Now().UTC()
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 adding note, got %v", resp.Code)
	}
	var note map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &note)
	noteID := int(note["id"].(float64))

	resp = doJSON(t, "GET", "/clients/"+strconv.Itoa(clientID), token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200 fetching client, got %v", resp.Code)
	}
	var detail struct {
		LastContact *time.Time `json:"last_contact"`
		Notes       []struct {
			ID      int    `json:"id"`
			Content string `json:"content"`
		} `json:"notes"`
	}
	json.Unmarshal(resp.Body.Bytes(), &detail)
	if detail.LastContact == nil {
		t.Fatal("last_contact not set after note creation")
	}
	if detail.LastContact.Before(before) || detail.LastContact.After(after) {
		t.Errorf("last_contact %v outside [%v, %v]", detail.LastContact, before, after)
	}
	if len(detail.Notes) != 1 || detail.Notes[0].Content != "called" {
		t.Errorf("Expected the created note on the client detail, got %v", detail.Notes)
	}

	// Delete the note, then the client.
	resp = doJSON(t, "DELETE", "/clients/"+strconv.Itoa(clientID)+"/notes/"+strconv.Itoa(noteID), token, nil)
	if resp.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 deleting note, got %v", resp.Code)
	}
	resp = doJSON(t, "DELETE", "/clients/"+strconv.Itoa(clientID), token, nil)
	if resp.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 deleting client, got %v", resp.Code)
	}
	resp = doJSON(t, "GET", "/clients/"+strconv.Itoa(clientID), token, nil)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %v", resp.Code)
	}
}

func TestTenantIsolation(t *testing.T) {
	tokenA := registerAndLogin(t, "a@x.com", "coach-a", "password-a")
	tokenB := registerAndLogin(t, "b@x.com", "coach-b", "password-b")

	resp := doJSON(t, "POST", "/clients/", tokenA, map[string]string{"name": "Bob"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 creating client, got %v", resp.Code)
	}
	var client map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &client)
	bobID := int(client["id"].(float64))

	// User B cannot see, change, or delete A's client.
	if resp = doJSON(t, "GET", "/clients/"+strconv.Itoa(bobID), tokenB, nil); resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for foreign client read, got %v", resp.Code)
	}
	if resp = doJSON(t, "PUT", "/clients/"+strconv.Itoa(bobID), tokenB, map[string]string{"name": "Mallory"}); resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for foreign client update, got %v", resp.Code)
	}
	if resp = doJSON(t, "DELETE", "/clients/"+strconv.Itoa(bobID), tokenB, nil); resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for foreign client delete, got %v", resp.Code)
	}
	if resp = doJSON(t, "POST", "/clients/"+strconv.Itoa(bobID)+"/notes", tokenB, map[string]string{"content": "spy"}); resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for foreign note creation, got %v", resp.Code)
	}

	// B's list stays empty.
	resp = doJSON(t, "GET", "/clients/", tokenB, nil)
	var clients []map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &clients)
	if len(clients) != 0 {
		t.Errorf("Expected 0 clients for user B, got %d", len(clients))
	}

	// A still owns it.
	if resp = doJSON(t, "GET", "/clients/"+strconv.Itoa(bobID), tokenA, nil); resp.Code != http.StatusOK {
		t.Errorf("Expected status 200 for owner read, got %v", resp.Code)
	}
}
