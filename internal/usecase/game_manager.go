package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/noughts-and-crosses/internal/apperror"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/entity"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/pkg"
)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

type GameManager struct {
	logger   *slog.Logger
	gameRepo gameRepo

	locker *pkg.KeyedLocker
	now    func() time.Time
	newID  func() string
}

func NewGameManager(logger *slog.Logger, gameRepo gameRepo) *GameManager {
	return &GameManager{
		logger:   logger.With("component", "game_manager"),
		gameRepo: gameRepo,

		locker: pkg.NewKeyedLocker(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  pkg.GenerateGameID,
	}
}

// CreateGame - starts a new session with an empty board and X to move.
func (that *GameManager) CreateGame(ctx context.Context) (*entity.Session, error) {
	session := entity.NewSession(that.newID(), that.now())

	if err := that.gameRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that.logger.Info("game created", "game_id", session.ID)

	return session, nil
}

func (that *GameManager) GetGame(ctx context.Context, id string) (*entity.Session, error) {
	session, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return session, nil
}

// MakeTurn - applies a move for whoever is to play. Rejected moves are
// returned as outcomes and leave the stored session untouched.
func (that *GameManager) MakeTurn(ctx context.Context, id string, row, col int) (*entity.Session, entity.Outcome, error) {
	log := that.logger.With("method", "MakeTurn", "game_id", id)

	if !entity.InBounds(row, col) {
		return nil, entity.Outcome{}, fmt.Errorf("%w: row %d, col %d", apperror.ErrInvalidCell, row, col)
	}

	unlock := that.locker.Lock(id)
	defer unlock()

	session, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, entity.Outcome{}, fmt.Errorf("failed to get game: %w", err)
	}

	game, outcome, err := session.Game.ApplyMove(row, col)
	if err != nil {
		return nil, entity.Outcome{}, fmt.Errorf("failed make turn: %w", err)
	}

	if !outcome.Changed() {
		log.Debug("move rejected", "row", row, "col", col, "outcome", outcome.Kind)
		return session, outcome, nil
	}

	session.Game = game
	session.Last = outcome
	session.UpdatedAt = that.now()

	if err = that.gameRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, entity.Outcome{}, fmt.Errorf("failed update game: %w", err)
	}

	log.Debug("move applied", "row", row, "col", col, "outcome", outcome.Kind, "player", outcome.Player)

	if game.Ended {
		log.Info("game ended", "outcome", outcome.Kind, "winner", outcome.Player)
	}

	return session, outcome, nil
}

// RestartGame - replaces the board of an existing session with a new one.
func (that *GameManager) RestartGame(ctx context.Context, id string) (*entity.Session, error) {
	unlock := that.locker.Lock(id)
	defer unlock()

	session, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	session.Restart(that.now())

	if err = that.gameRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to restart game: %w", err)
	}

	that.logger.Info("game restarted", "game_id", id)

	return session, nil
}

func (that *GameManager) DeleteGame(ctx context.Context, id string) error {
	unlock := that.locker.Lock(id)
	defer unlock()

	if err := that.gameRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.logger.Info("game deleted", "game_id", id)

	return nil
}
