package chess

import "errors"

// Move rejections. Every one of them leaves the game exactly as it was.
var (
	ErrSquareNotOnBoard      = errors.New("square not on board")
	ErrPieceNotFound         = errors.New("no piece on square")
	ErrMoveOutOfTurn         = errors.New("move out of turn")
	ErrInvalidMove           = errors.New("invalid move")
	ErrMoveInCheck           = errors.New("cannot move while in check")
	ErrExposingCheck         = errors.New("move exposes king to check")
	ErrInvalidPromotionPiece = errors.New("invalid promotion piece")
	ErrInputDecoding         = errors.New("unable to decode input")
	ErrGameOver              = errors.New("game is already over")
	ErrNoDrawOffer           = errors.New("no draw offer to accept")
	ErrInvalidPosition       = errors.New("invalid position")
)
