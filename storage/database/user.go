package database

import (
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/YOMIx224/student-conduct-system/core/user"
)

// userDoc is the stored form of an account. user.User keeps the bcrypt hash
// out of its JSON, so the document carries it in an explicit field.
type userDoc struct {
	user.User
	PasswordHash []byte `json:"password_hash,omitempty"`
}

func newUserDoc(usr user.User) userDoc {
	return userDoc{User: usr, PasswordHash: usr.PasswordHash}
}

func (d userDoc) toUser() user.User {
	usr := d.User
	usr.PasswordHash = d.PasswordHash
	return usr
}

type userRepository struct {
	store documentStore
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{store: documentStore{db: db}}
}

func (repo *userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	if username != "" {
		usr, err := repo.get(`doc ->> 'username' = $2`, username)
		if err == nil && !isExcludedUser(usr, excludedUsers) {
			return user.ErrUsernameExists
		}
		if err != nil && err != user.ErrNotFound {
			return err
		}
	}
	if email != "" {
		usr, err := repo.get(`doc ->> 'email' = $2`, email)
		if err == nil && !isExcludedUser(usr, excludedUsers) {
			return user.ErrEmailExists
		}
		if err != nil && err != user.ErrNotFound {
			return err
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	if err := repo.store.upsert(collUsers, usr.ID, newUserDoc(usr)); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	docs, err := repo.store.listWhere(collUsers, "")
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(docs))
	for _, raw := range docs {
		var doc userDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, errors.Wrap(err, "decoding user")
		}
		users = append(users, doc.toUser())
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	return repo.get(`id = $2`, id)
}

func (repo *userRepository) GetUserByUsername(username string) (user.User, error) {
	return repo.get(`doc ->> 'username' = $2`, username)
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.get(`doc ->> 'email' = $2`, email)
}

// GetUserByUsernameOrCode matches the username ignoring case; student codes
// keep their case and are compared verbatim.
func (repo *userRepository) GetUserByUsernameOrCode(username string) (user.User, error) {
	return repo.get(`(lower(doc ->> 'username') = lower($2) OR doc ->> 'student_code' = $2)`, username)
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	if _, err := repo.GetUserByID(usr.ID); err != nil {
		return user.User{}, err
	}
	if err := repo.store.upsert(collUsers, usr.ID, newUserDoc(usr)); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	return repo.store.deleteByID(collUsers, ids...)
}

func (repo *userRepository) get(where string, args ...interface{}) (user.User, error) {
	raw, err := repo.store.getWhere(collUsers, where, args...)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	var doc userDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return user.User{}, errors.Wrap(err, "decoding user")
	}
	return doc.toUser(), nil
}

func isExcludedUser(usr user.User, excluded []user.User) bool {
	for _, ex := range excluded {
		if ex.ID == usr.ID {
			return true
		}
	}
	return false
}
