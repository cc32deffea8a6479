package documentdb

import (
	"strings"

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
	coll *collection
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{coll: db.users}
}

func (repo *userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	repo.coll.mutex.RLock()
	defer repo.coll.mutex.RUnlock()

	var docs []userDoc
	if err := repo.coll.load(&docs); err != nil {
		return err
	}
	for _, doc := range docs {
		if isExcludedUser(doc.User, excludedUsers) {
			continue
		}
		if username != "" && doc.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && doc.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	repo.coll.mutex.Lock()
	defer repo.coll.mutex.Unlock()

	var docs []userDoc
	if err := repo.coll.load(&docs); err != nil {
		return user.User{}, err
	}
	docs = append(docs, newUserDoc(usr))
	if err := repo.coll.save(docs); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	repo.coll.mutex.RLock()
	defer repo.coll.mutex.RUnlock()

	var docs []userDoc
	if err := repo.coll.load(&docs); err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toUser())
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	repo.coll.mutex.RLock()
	defer repo.coll.mutex.RUnlock()
	return repo.find(func(usr user.User) bool { return usr.ID == id })
}

func (repo *userRepository) GetUserByUsername(username string) (user.User, error) {
	repo.coll.mutex.RLock()
	defer repo.coll.mutex.RUnlock()
	return repo.find(func(usr user.User) bool { return usr.Username == username })
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	repo.coll.mutex.RLock()
	defer repo.coll.mutex.RUnlock()
	return repo.find(func(usr user.User) bool { return usr.Email == email })
}

// GetUserByUsernameOrCode matches the username ignoring case; student codes
// keep their case and are compared verbatim.
func (repo *userRepository) GetUserByUsernameOrCode(username string) (user.User, error) {
	repo.coll.mutex.RLock()
	defer repo.coll.mutex.RUnlock()
	return repo.find(func(usr user.User) bool {
		return strings.EqualFold(usr.Username, username) ||
			(usr.StudentCode != "" && usr.StudentCode == username)
	})
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	repo.coll.mutex.Lock()
	defer repo.coll.mutex.Unlock()

	var docs []userDoc
	if err := repo.coll.load(&docs); err != nil {
		return user.User{}, err
	}
	for i := range docs {
		if docs[i].ID == usr.ID {
			docs[i] = newUserDoc(usr)
			if err := repo.coll.save(docs); err != nil {
				return user.User{}, err
			}
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	repo.coll.mutex.Lock()
	defer repo.coll.mutex.Unlock()

	var docs []userDoc
	if err := repo.coll.load(&docs); err != nil {
		return err
	}
	kept := docs[:0]
	for _, doc := range docs {
		if !containsID(ids, doc.ID) {
			kept = append(kept, doc)
		}
	}
	return repo.coll.save(kept)
}

// find runs under the caller's lock.
func (repo *userRepository) find(match func(user.User) bool) (user.User, error) {
	var docs []userDoc
	if err := repo.coll.load(&docs); err != nil {
		return user.User{}, err
	}
	for _, doc := range docs {
		usr := doc.toUser()
		if match(usr) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func isExcludedUser(usr user.User, excluded []user.User) bool {
	for _, ex := range excluded {
		if ex.ID == usr.ID {
			return true
		}
	}
	return false
}
