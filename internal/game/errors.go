package game

import (
	"errors"
	"fmt"
)

// Code identifica a categoria de uma operação rejeitada.
type Code string

const (
	CodeAlreadyQueued    Code = "ALREADY_QUEUED"
	CodeAlreadyInMatch   Code = "ALREADY_IN_MATCH"
	CodeNotQueued        Code = "NOT_QUEUED"
	CodeNotFound         Code = "NOT_FOUND"
	CodeNotParticipant   Code = "NOT_A_PARTICIPANT"
	CodeRoomFull         Code = "ROOM_FULL"
	CodeNotAuthorized    Code = "NOT_AUTHORIZED"
	CodeGameNotActive    Code = "GAME_NOT_ACTIVE"
	CodeInvalidGameMode  Code = "INVALID_GAME_MODE"
	CodeInvalidPayload   Code = "INVALID_PAYLOAD"
	CodeNotAuthenticated Code = "NOT_AUTHENTICATED"
	CodeUnknownEvent     Code = "UNKNOWN_EVENT"
	CodeInternal         Code = "INTERNAL"
)

// Error é uma operação rejeitada: transição de estado inválida ou payload ruim.
// Não tem efeito colateral além da resposta ao chamador.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is compara apenas o código, para que errors.Is funcione contra as sentinelas abaixo.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Errorf cria um *Error com mensagem formatada.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Sentinelas para uso com errors.Is.
var (
	ErrAlreadyQueued    = &Error{Code: CodeAlreadyQueued, Message: "already in a queue"}
	ErrAlreadyInMatch   = &Error{Code: CodeAlreadyInMatch, Message: "already in a match"}
	ErrNotQueued        = &Error{Code: CodeNotQueued, Message: "not in queue"}
	ErrNotFound         = &Error{Code: CodeNotFound, Message: "not found"}
	ErrNotParticipant   = &Error{Code: CodeNotParticipant, Message: "not a participant"}
	ErrRoomFull         = &Error{Code: CodeRoomFull, Message: "room is full"}
	ErrNotAuthorized    = &Error{Code: CodeNotAuthorized, Message: "not authorized"}
	ErrGameNotActive    = &Error{Code: CodeGameNotActive, Message: "game is not active"}
	ErrInvalidGameMode  = &Error{Code: CodeInvalidGameMode, Message: "invalid game mode"}
	ErrInvalidPayload   = &Error{Code: CodeInvalidPayload, Message: "invalid payload"}
	ErrNotAuthenticated = &Error{Code: CodeNotAuthenticated, Message: "not authenticated"}
)

// CodeOf extrai o código de um erro. Erros que não são *Error contam como falha interna.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
