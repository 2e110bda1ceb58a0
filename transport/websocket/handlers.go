package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/noughts-and-crosses/internal/apperror"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/presenter"
)

const (
	errMsgNotJoined   = "join a game first"
	errMsgMissingCell = "row and col are required"
	errMsgGameIDEmpty = "game_id is required"
	errMsgInternal    = "internal server error"
)

func (that *Server) handleNewGame(ctx context.Context, c *client, _ *RequestPayload) error {
	session, err := that.gameUseCase.CreateGame(ctx)
	if err != nil {
		that.sendError(c, actionGameNew, errMsgInternal)
		return fmt.Errorf("failed to create game: %w", err)
	}

	that.subscribe(c, session.ID)

	return c.send(actionGameNew, ResponsePayload{Game: presenter.NewGameResponse(session, session.Last)})
}

func (that *Server) handleJoinGame(ctx context.Context, c *client, payload *RequestPayload) error {
	if payload.GameID == "" {
		that.sendError(c, actionGameJoin, errMsgGameIDEmpty)
		return nil
	}

	unlock := that.gameLocks.Lock(payload.GameID)
	defer unlock()

	session, err := that.gameUseCase.GetGame(ctx, payload.GameID)
	if err != nil {
		return that.replyUseCaseError(c, actionGameJoin, err)
	}

	that.subscribe(c, session.ID)

	return c.send(actionGameJoin, ResponsePayload{Game: presenter.NewGameResponse(session, session.Last)})
}

// handleGameTurn - plays a move in the joined game. Accepted moves reach every
// joined client, rejected ones only the sender. The game lock spans the move
// and its broadcast.
func (that *Server) handleGameTurn(ctx context.Context, c *client, payload *RequestPayload) error {
	if c.gameID == "" {
		that.sendError(c, actionGameTurn, errMsgNotJoined)
		return nil
	}

	if payload.Row == nil || payload.Col == nil {
		that.sendError(c, actionGameTurn, errMsgMissingCell)
		return nil
	}

	unlock := that.gameLocks.Lock(c.gameID)
	defer unlock()

	session, outcome, err := that.gameUseCase.MakeTurn(ctx, c.gameID, *payload.Row, *payload.Col)
	if err != nil {
		return that.replyUseCaseError(c, actionGameTurn, err)
	}

	response := ResponsePayload{Game: presenter.NewGameResponse(session, outcome)}

	if !outcome.Changed() {
		return c.send(actionGameTurn, response)
	}

	that.broadcast(session.ID, actionGameTurn, response)

	return nil
}

func (that *Server) handleRestartGame(ctx context.Context, c *client, _ *RequestPayload) error {
	if c.gameID == "" {
		that.sendError(c, actionGameRestart, errMsgNotJoined)
		return nil
	}

	unlock := that.gameLocks.Lock(c.gameID)
	defer unlock()

	session, err := that.gameUseCase.RestartGame(ctx, c.gameID)
	if err != nil {
		return that.replyUseCaseError(c, actionGameRestart, err)
	}

	that.broadcast(session.ID, actionGameRestart, ResponsePayload{Game: presenter.NewGameResponse(session, session.Last)})

	return nil
}

func (that *Server) handleLeaveGame(_ context.Context, c *client, _ *RequestPayload) error {
	that.unsubscribe(c)

	return c.send(actionGameLeave, ResponsePayload{})
}

// replyUseCaseError - reports known errors to the client and returns the rest to be logged.
func (that *Server) replyUseCaseError(c *client, action string, err error) error {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		that.sendError(c, action, apperror.ErrGameNotFound.Error())
		return nil
	case errors.Is(err, apperror.ErrInvalidCell):
		that.sendError(c, action, apperror.ErrInvalidCell.Error())
		return nil
	default:
		that.sendError(c, action, errMsgInternal)
		return err
	}
}

func (that *Server) sendError(c *client, action, message string) {
	if err := c.send(action, ResponsePayload{Error: message}); err != nil {
		that.logger.Warn("failed to send error", "action", action, "error", err)
	}
}

func decodePayload(raw json.RawMessage) (*RequestPayload, error) {
	payload := &RequestPayload{}
	if len(raw) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return payload, nil
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
