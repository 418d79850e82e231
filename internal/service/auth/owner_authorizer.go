package auth

import (
	"context"
	"errors"
	"fmt"

	"conduit/internal/domain"
	"conduit/internal/domain/repositories"
)

// Decision is the outcome of a turn authorization check.
type Decision int

const (
	// AllowedExisting means the chat exists and is owned by the principal.
	AllowedExisting Decision = iota
	// AllowedNew means no chat with that id exists yet; the caller may create it.
	AllowedNew
)

// OwnerBasedAuthorizer implements ownership checks against the chat
// repository. It performs pure reads: repository failures propagate as
// ErrUnavailable and are never treated as a denial.
type OwnerBasedAuthorizer struct {
	chatRepo repositories.ChatRepository
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(chatRepo repositories.ChatRepository) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{chatRepo: chatRepo}
}

// AuthorizeTurn checks whether userID may append a turn to chatID.
// Returns AllowedNew when the chat does not exist yet, AllowedExisting when
// it exists and is owned by userID, and ErrForbidden when it is owned by a
// different principal.
func (a *OwnerBasedAuthorizer) AuthorizeTurn(ctx context.Context, userID, chatID string) (Decision, error) {
	chat, err := a.chatRepo.GetChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return AllowedNew, nil
		}
		return 0, fmt.Errorf("check chat access: %w: %v", domain.ErrUnavailable, err)
	}

	if chat.UserID != userID {
		return 0, fmt.Errorf("access denied to chat %s: %w", chatID, domain.ErrForbidden)
	}

	return AllowedExisting, nil
}

// AuthorizeOwner checks that the chat exists and is owned by userID.
// Used by operations that require an existing chat (e.g. delete).
func (a *OwnerBasedAuthorizer) AuthorizeOwner(ctx context.Context, userID, chatID string) error {
	chat, err := a.chatRepo.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if chat.UserID != userID {
		return fmt.Errorf("access denied to chat %s: %w", chatID, domain.ErrForbidden)
	}
	return nil
}
