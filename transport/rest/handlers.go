package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/noughts-and-crosses/internal/apperror"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/entity"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/presenter"
)

const maxBodyBytes = 1 << 10

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)

	CreateGame(w http.ResponseWriter, r *http.Request)
	GetGame(w http.ResponseWriter, r *http.Request)
	MakeTurn(w http.ResponseWriter, r *http.Request)
	RestartGame(w http.ResponseWriter, r *http.Request)
	DeleteGame(w http.ResponseWriter, r *http.Request)
}

type gameUseCase interface {
	CreateGame(ctx context.Context) (*entity.Session, error)
	GetGame(ctx context.Context, id string) (*entity.Session, error)
	MakeTurn(ctx context.Context, id string, row, col int) (*entity.Session, entity.Outcome, error)
	RestartGame(ctx context.Context, id string) (*entity.Session, error)
	DeleteGame(ctx context.Context, id string) error
}

type turnRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
}

func NewHandlers(logger *slog.Logger, gameUseCase gameUseCase) Handlers {
	return &handlers{
		logger:      logger.With("component", "rest"),
		gameUseCase: gameUseCase,
	}
}

func (that *handlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	session, err := that.gameUseCase.CreateGame(r.Context())
	if err != nil {
		that.writeError(w, "CreateGame", err)
		return
	}

	that.writeJSON(w, http.StatusCreated, presenter.NewGameResponse(session, session.Last))
}

func (that *handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	session, err := that.gameUseCase.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, "GetGame", err)
		return
	}

	that.writeJSON(w, http.StatusOK, presenter.NewGameResponse(session, session.Last))
}

func (that *handlers) MakeTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&req); err != nil || req.Row == nil || req.Col == nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "row and col are required"})
		return
	}

	session, outcome, err := that.gameUseCase.MakeTurn(r.Context(), r.PathValue("id"), *req.Row, *req.Col)
	if err != nil {
		that.writeError(w, "MakeTurn", err)
		return
	}

	that.writeJSON(w, http.StatusOK, presenter.NewGameResponse(session, outcome))
}

func (that *handlers) RestartGame(w http.ResponseWriter, r *http.Request) {
	session, err := that.gameUseCase.RestartGame(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, "RestartGame", err)
		return
	}

	that.writeJSON(w, http.StatusOK, presenter.NewGameResponse(session, session.Last))
}

func (that *handlers) DeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := that.gameUseCase.DeleteGame(r.Context(), r.PathValue("id")); err != nil {
		that.writeError(w, "DeleteGame", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) writeError(w http.ResponseWriter, method string, err error) {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		that.writeJSON(w, http.StatusNotFound, errorResponse{Error: apperror.ErrGameNotFound.Error()})
	case errors.Is(err, apperror.ErrInvalidCell):
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: apperror.ErrInvalidCell.Error()})
	default:
		that.logger.Error("request failed", "method", method, "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
