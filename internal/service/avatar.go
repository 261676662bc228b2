package service

import (
	"context"
	"io"

	"oneaccount/api/internal/apperr"
	"oneaccount/api/internal/models"
)

type UpdateAvatarInput struct {
	AccountID   string
	File        io.Reader
	Size        int64
	ContentType string
}

// UpdateAvatar uploads the new blob, points the account at it, then cleans
// up: the new blob is destroyed if the account update fails, and the old
// blob is destroyed once the account durably references the new one. Both
// destroys are compensating actions, not a transaction. A failed destroy is
// logged and may leave an orphaned blob behind.
func (s *IdentityService) UpdateAvatar(ctx context.Context, input UpdateAvatarInput) (models.Account, error) {
	if input.File == nil || input.Size <= 0 {
		return models.Account{}, apperr.BadRequest("avatar file is required")
	}

	account, err := s.accounts.GetByID(ctx, input.AccountID)
	if err != nil {
		return models.Account{}, apperr.Internal("account lookup failed").WithCause(err)
	}
	previous := account.Avatar

	blob, err := s.blobs.Upload(ctx, input.File, input.Size, input.ContentType)
	if err != nil {
		return models.Account{}, apperr.BadRequest("avatar upload failed").WithCause(err)
	}

	avatar := models.Avatar{
		BlobID:   blob.ID,
		URL:      blob.URL,
		Provider: blob.Provider,
	}
	if err := s.accounts.UpdateAvatar(ctx, account.ID, avatar); err != nil {
		if destroyErr := s.blobs.Destroy(ctx, blob.ID); destroyErr != nil {
			s.log.Warn().Err(destroyErr).Str("blob_id", blob.ID).Msg("destroy uploaded avatar after failed update")
		}
		return models.Account{}, apperr.Internal("update avatar reference").WithCause(err)
	}

	if previous != nil && previous.BlobID != "" {
		if err := s.blobs.Destroy(ctx, previous.BlobID); err != nil {
			s.log.Warn().Err(err).Str("blob_id", previous.BlobID).Msg("destroy previous avatar")
		}
	}

	updated, err := s.accounts.GetByID(ctx, account.ID)
	if err != nil {
		return models.Account{}, apperr.Internal("reload account after avatar update").WithCause(err)
	}
	return sanitizeAccount(updated), nil
}
