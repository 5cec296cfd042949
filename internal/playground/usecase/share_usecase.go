package usecase

import (
	"context"
	"strings"

	"data-playground/internal/playground/domain/model"
	sharedErrors "data-playground/internal/shared/errors"
)

// ListShares returns the collection's share list
func (uc *PlaygroundUsecase) ListShares(ctx context.Context, id string) ([]model.Share, error) {
	_, res, err := uc.authorize(ctx, id, model.AccessAdmin)
	if err != nil {
		return nil, err
	}
	shares := res.Collection.SharedWith
	if shares == nil {
		shares = []model.Share{}
	}
	return shares, nil
}

// ShareCollection grants req.Email the requested tier. Sharing the same email
// again replaces the tier; there is never more than one share per email.
func (uc *PlaygroundUsecase) ShareCollection(ctx context.Context, id string, req ShareRequest) (*model.Share, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := uc.validate.Struct(req); err != nil {
		return nil, uc.validationErrors(err)
	}

	p, res, err := uc.authorize(ctx, id, model.AccessAdmin)
	if err != nil {
		return nil, err
	}
	collection := res.Collection

	if res.IsOwner && strings.EqualFold(p.Email, req.Email) {
		return nil, ownerShareError()
	}

	share := model.Share{
		Email:       req.Email,
		AccessLevel: req.AccessLevel,
		SharedAt:    uc.now().UTC(),
	}
	if uc.directory != nil {
		user, err := uc.directory.FindByEmail(ctx, req.Email)
		if err != nil {
			return nil, sharedErrors.WrapError(err, "failed to look up share recipient")
		}
		if user != nil {
			if user.ID == collection.Owner {
				return nil, ownerShareError()
			}
			share.UserID = user.ID
		}
	}

	added := collection.UpsertShare(share)
	if err := uc.save(ctx, collection); err != nil {
		return nil, err
	}

	stored := collection.SharedWith[collection.ShareIndexByEmail(req.Email)]
	if added {
		uc.logger.WithContext(ctx).Infof("collection %s shared with %s at %s", id, req.Email, req.AccessLevel)
	} else {
		uc.logger.WithContext(ctx).Infof("share of collection %s for %s changed to %s", id, req.Email, req.AccessLevel)
	}

	evt := model.NewCollectionEvent(model.EventShareUpserted, collection.IDHex(), p.UserID)
	evt.Email = req.Email
	uc.publish(ctx, evt)
	return &stored, nil
}

func ownerShareError() error {
	ve := sharedErrors.NewValidationErrors()
	ve.Add("email", "cannot share a collection with its owner", nil)
	return ve.ToAppError()
}

// RemoveShare revokes the share addressed to email
func (uc *PlaygroundUsecase) RemoveShare(ctx context.Context, id, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	p, res, err := uc.authorize(ctx, id, model.AccessAdmin)
	if err != nil {
		return err
	}
	collection := res.Collection

	if email == "" || !collection.RemoveShare(email) {
		return sharedErrors.NewNotFoundError("share").WithCause(sharedErrors.ErrShareNotFound)
	}
	if err := uc.save(ctx, collection); err != nil {
		return err
	}

	evt := model.NewCollectionEvent(model.EventShareRemoved, collection.IDHex(), p.UserID)
	evt.Email = email
	uc.publish(ctx, evt)
	return nil
}
