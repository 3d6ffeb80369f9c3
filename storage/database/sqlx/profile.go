package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/schoolier/backend/core/identity"
)

type profileRow struct {
	ID        string      `db:"id"`
	Email     string      `db:"email"`
	Name      null.String `db:"name"`
	AvatarURL null.String `db:"avatar_url"`
	Role      null.String `db:"role"`
	Bio       null.String `db:"bio"`
	Phone     null.String `db:"phone"`
	CompanyID null.String `db:"company_id"`
}

func (row profileRow) profile() identity.Profile {
	return identity.Profile{
		ID:        row.ID,
		Email:     row.Email,
		Name:      row.Name.String,
		AvatarURL: row.AvatarURL.String,
		Role:      row.Role.String,
		Bio:       row.Bio.String,
		Phone:     row.Phone.String,
		CompanyID: row.CompanyID.String,
	}
}

func newProfileRow(prof identity.Profile) profileRow {
	return profileRow{
		ID:        prof.ID,
		Email:     prof.Email,
		Name:      null.NewString(prof.Name, prof.Name != ""),
		AvatarURL: null.NewString(prof.AvatarURL, prof.AvatarURL != ""),
		Role:      null.NewString(prof.Role, prof.Role != ""),
		Bio:       null.NewString(prof.Bio, prof.Bio != ""),
		Phone:     null.NewString(prof.Phone, prof.Phone != ""),
		CompanyID: null.NewString(prof.CompanyID, prof.CompanyID != ""),
	}
}

type profileRepository struct {
	db *sqlx.DB
}

var _ identity.ProfileRepository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *sql.DB, driverName string) *profileRepository {
	return &profileRepository{db: sqlx.NewDb(db, driverName)}
}

func (repo *profileRepository) GetProfileByID(ctx context.Context, id string) (identity.Profile, error) {
	var row profileRow
	query := `SELECT id, email, name, avatar_url, role, bio, phone, company_id FROM profile WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return identity.Profile{}, identity.ErrProfileNotFound
		}
		return identity.Profile{}, errors.Wrap(err, "getting profile")
	}
	return row.profile(), nil
}

func (repo *profileRepository) UpsertProfile(ctx context.Context, prof identity.Profile) (identity.Profile, error) {
	row := newProfileRow(prof)
	query := `
		INSERT INTO profile (id, email, name, avatar_url, role, bio, phone, company_id)
		VALUES (:id, :email, :name, :avatar_url, :role, :bio, :phone, :company_id)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			avatar_url = EXCLUDED.avatar_url,
			role = EXCLUDED.role,
			bio = EXCLUDED.bio,
			phone = EXCLUDED.phone,
			company_id = EXCLUDED.company_id,
			updated_at = now()`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return identity.Profile{}, errors.Wrap(err, "upserting profile")
	}
	return prof, nil
}
