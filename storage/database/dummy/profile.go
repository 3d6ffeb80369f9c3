package dummydb

import (
	"context"

	"github.com/schoolier/backend/core/identity"
)

type profileRepository struct {
	db *profileTable
}

var _ identity.ProfileRepository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) identity.ProfileRepository {
	return &profileRepository{db: db.profile}
}

func (repo *profileRepository) GetProfileByID(ctx context.Context, id string) (identity.Profile, error) {
	if err := ctx.Err(); err != nil {
		return identity.Profile{}, err
	}

	repo.db.RLock()
	defer repo.db.RUnlock()
	if prof, ok := repo.db.table[id]; ok {
		return *prof, nil
	}
	return identity.Profile{}, identity.ErrProfileNotFound
}

func (repo *profileRepository) UpsertProfile(ctx context.Context, prof identity.Profile) (identity.Profile, error) {
	if err := ctx.Err(); err != nil {
		return identity.Profile{}, err
	}

	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[prof.ID] = &prof
	return prof, nil
}
