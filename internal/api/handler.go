package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"wordduel/internal/broadcast"
	"wordduel/internal/coordinator"
	"wordduel/internal/directory"
	"wordduel/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

// Handler serves the synchronous command surface.
type Handler struct {
	coord *coordinator.Coordinator
	users *directory.Directory
	hub   *broadcast.Hub
}

// NewHandler creates a new handler
func NewHandler(coord *coordinator.Coordinator, users *directory.Directory, hub *broadcast.Hub) *Handler {
	return &Handler{
		coord: coord,
		users: users,
		hub:   hub,
	}
}

// RegisterRoutes sets up the routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)

	r.Post("/users", h.handleRegisterUser)
	r.Get("/users/{id}", h.handleGetUser)

	r.Post("/rooms", h.handleCreateRoom)
	r.Get("/rooms", h.handleListRooms)
	r.Get("/rooms/{id}", h.handleGetRoom)
	r.Put("/rooms/{id}/join", h.handleJoin)
	r.Post("/rooms/{id}/start", h.handleStart)
	r.Post("/rooms/{id}/guess", h.handleGuess)

	r.Get("/games/{id}", h.handleGetGame)
}

type registerRequest struct {
	Username    string `json:"username"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type joinRequest struct {
	UserID string `json:"userId"`
}

type guessRequest struct {
	UserID string `json:"userId"`
	Letter string `json:"letter"`
}

type roomsResponse struct {
	Rooms []models.RoomSummary `json:"rooms"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	rooms, games := h.coord.Stats()
	h.respondJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"rooms":       rooms,
		"games":       games,
		"users":       h.users.Count(),
		"connections": h.hub.Connections(),
	})
}

func (h *Handler) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid-json", "invalid request body")
		return
	}
	name := req.Username
	if name == "" {
		name = req.Name
	}
	if name == "" {
		name = req.DisplayName
	}

	u, err := h.users.Register(name)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid-payload", err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, u)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Resolve(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, directory.ErrUserNotFound) {
		h.respondError(w, r, http.StatusNotFound, "not-found", "user not found")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, u)
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusCreated, h.coord.CreateRoom())
}

func (h *Handler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, roomsResponse{Rooms: h.coord.ListRooms()})
}

func (h *Handler) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	rm, err := h.coord.GetRoom(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, rm)
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid-json", "invalid request body")
		return
	}
	rm, err := h.coord.Join(r.Context(), chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, rm)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	res, err := h.coord.RequestStart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *Handler) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, coordinator.ErrInvalidPayload)
		return
	}
	res, err := h.coord.Guess(r.Context(), chi.URLParam(r, "id"), req.UserID, req.Letter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *Handler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	st, err := h.coord.GameStatus(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, st)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Str("code", code).Msg(msg)
	}
	h.respondJSON(w, status, errorBody{Error: msg, Code: code})
}

// errorStatus maps coordinator errors to HTTP statuses and stable codes.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{coordinator.ErrNotFound, http.StatusNotFound, "not-found"},
	{coordinator.ErrUnknownUser, http.StatusBadRequest, "unknown-user"},
	{coordinator.ErrInvalidPayload, http.StatusBadRequest, "invalid-payload"},
	{coordinator.ErrAlreadyJoined, http.StatusConflict, "already-joined"},
	{coordinator.ErrRoomFull, http.StatusBadRequest, "room-full"},
	{coordinator.ErrNotYourTurn, http.StatusConflict, "not-your-turn"},
	{coordinator.ErrAlreadyGuessed, http.StatusBadRequest, "already-guessed"},
	{coordinator.ErrGameNotActive, http.StatusBadRequest, "game-not-active"},
	{coordinator.ErrDependency, http.StatusServiceUnavailable, "dependency-unavailable"},
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			h.respondError(w, r, e.status, e.code, e.err.Error())
			return
		}
	}
	hlog.FromRequest(r).Error().Err(err).Msg("unhandled error")
	h.respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"})
}
