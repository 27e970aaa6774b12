package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// regenerateTokenSQL rotates the one-time token in a single statement so
// issuance stays atomic per record even under concurrent saves.
var regenerateTokenSQL = `UPDATE "users" AS "usr"
SET
	"token" = ?,
	"token_created_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// Users is the bun-backed UserStore plus the generic repository surface.
type Users interface {
	repository.Repository[*User]
	UserStore

	ByIDAndTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) (*User, error)
	RegenerateTokenTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	SaveTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db            *bun.DB
	generateToken func() (string, error)
}

var (
	_ Users                        = (*users)(nil)
	_ UserStore                    = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

type UsersOption func(*users)

// WithTokenGenerator overrides the one-time token source, mostly for tests.
func WithTokenGenerator(fn func() (string, error)) UsersOption {
	return func(u *users) {
		if fn != nil {
			u.generateToken = fn
		}
	}
}

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoUsers := &users{
		Repository:    repo,
		db:            db,
		generateToken: GenerateOneTimeToken,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

func (a *users) ByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) ByEmail(ctx context.Context, email string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) ByIDAndToken(ctx context.Context, id uuid.UUID, token string) (*User, error) {
	return a.ByIDAndTokenTx(ctx, a.db, id, token)
}

// ByIDAndTokenTx matches both predicates in one SELECT; a miss on either
// yields the same not-found result.
func (a *users) ByIDAndTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Save(ctx context.Context, user *User) (*User, error) {
	return a.SaveTx(ctx, a.db, user)
}

func (a *users) SaveTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if user.ID == uuid.Nil {
		if err := a.prepareNewUser(user); err != nil {
			return nil, err
		}
		return a.Repository.CreateTx(ctx, tx, user)
	}

	return a.Repository.UpdateTx(ctx, tx, user, repository.UpdateByID(user.ID.String()))
}

func (a *users) RegenerateToken(ctx context.Context, user *User) (*User, error) {
	return a.RegenerateTokenTx(ctx, a.db, user)
}

func (a *users) RegenerateTokenTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	token, err := a.generateToken()
	if err != nil {
		return nil, err
	}

	res, err := a.Repository.RawTx(ctx, tx, regenerateTokenSQL, token, time.Now(), user.ID.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": user.ID.String()})
	}

	return res[0], nil
}

// prepareNewUser assigns the id and the initial one-time token so a freshly
// registered account can be verified from its signup email.
func (a *users) prepareNewUser(record *User) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.Token == nil {
		token, err := a.generateToken()
		if err != nil {
			return err
		}
		record.SetOneTimeToken(token)
	}

	return nil
}
