package fakeapi

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/givehub/console/core/association"
	"github.com/givehub/console/core/auth"
	"github.com/givehub/console/core/user"
)

var (
	errNotFound    = errors.New("not found")
	errEmailExists = errors.New("an account with this email already exists")
)

type (
	userRecord struct {
		user.User
		passwordHash []byte
	}

	associationRecord struct {
		association.Association
		passwordHash []byte
	}

	// store is the in-memory database behind the fake API.
	store struct {
		mutex        sync.RWMutex
		userPK       int
		assocPK      int
		users        map[int]*userRecord
		associations map[int]*associationRecord
		now          func() time.Time
	}
)

func newStore() *store {
	return &store{
		users:        make(map[int]*userRecord),
		associations: make(map[int]*associationRecord),
		now:          func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func hashPassword(pwd string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.MinCost)
	return hash, errors.Wrap(err, "hashing password")
}

func (s *store) emailTaken(email string, exceptUser, exceptAssoc int) bool {
	for _, rec := range s.users {
		if rec.DeletedAt == nil && rec.ID != exceptUser && strings.EqualFold(rec.Email, email) {
			return true
		}
	}
	for _, rec := range s.associations {
		if rec.DeletedAt == nil && rec.ID != exceptAssoc && strings.EqualFold(rec.Email, email) {
			return true
		}
	}
	return false
}

// users

func (s *store) createUser(usr user.User, pwd string) (user.User, error) {
	hash, err := hashPassword(pwd)
	if err != nil {
		return user.User{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.emailTaken(usr.Email, 0, 0) {
		return user.User{}, errEmailExists
	}
	s.userPK++
	now := s.now()
	usr.ID = s.userPK
	usr.CreatedAt, usr.UpdatedAt, usr.DeletedAt = now, now, nil
	s.users[usr.ID] = &userRecord{User: usr, passwordHash: hash}
	return usr, nil
}

func (s *store) getUser(id int) (user.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if rec, ok := s.users[id]; ok && rec.DeletedAt == nil {
		return rec.User, nil
	}
	return user.User{}, errNotFound
}

// filterUsers applies AND on the filter fields; search is a case-insensitive match on names and email.
func (s *store) filterUsers(search string, role auth.Role) []user.User {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	search = strings.ToLower(search)
	users := make([]user.User, 0, len(s.users))
	for _, rec := range s.users {
		if rec.DeletedAt != nil {
			continue
		}
		if role.Valid() && rec.UserType != role {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(rec.FirstName+" "+rec.LastName), search) &&
			!strings.Contains(strings.ToLower(rec.Email), search) {
			continue
		}
		users = append(users, rec.User)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (s *store) updateUser(id int, apply func(rec *userRecord) error) (user.User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rec, ok := s.users[id]
	if !ok || rec.DeletedAt != nil {
		return user.User{}, errNotFound
	}
	updated := *rec
	if err := apply(&updated); err != nil {
		return user.User{}, err
	}
	if s.emailTaken(updated.Email, id, 0) {
		return user.User{}, errEmailExists
	}
	updated.UpdatedAt = s.now()
	s.users[id] = &updated
	return updated.User, nil
}

func (s *store) deleteUser(id int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rec, ok := s.users[id]
	if !ok || rec.DeletedAt != nil {
		return errNotFound
	}
	now := s.now()
	rec.DeletedAt = &now
	return nil
}

func (s *store) authenticateUser(email, pwd string) (user.User, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, rec := range s.users {
		if rec.DeletedAt == nil && strings.EqualFold(rec.Email, email) {
			return rec.User, bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(pwd)) == nil
		}
	}
	return user.User{}, false
}

// associations

func (s *store) createAssociation(assoc association.Association, pwd string) (association.Association, error) {
	hash, err := hashPassword(pwd)
	if err != nil {
		return association.Association{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.emailTaken(assoc.Email, 0, 0) {
		return association.Association{}, errEmailExists
	}
	s.assocPK++
	now := s.now()
	assoc.ID = s.assocPK
	assoc.CreatedAt, assoc.UpdatedAt, assoc.DeletedAt = now, now, nil
	s.associations[assoc.ID] = &associationRecord{Association: assoc, passwordHash: hash}
	return assoc, nil
}

func (s *store) getAssociation(id int) (association.Association, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if rec, ok := s.associations[id]; ok && rec.DeletedAt == nil {
		return rec.Association, nil
	}
	return association.Association{}, errNotFound
}

func (s *store) filterAssociations(name string, cat association.Category) []association.Association {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	name = strings.ToLower(name)
	assocs := make([]association.Association, 0, len(s.associations))
	for _, rec := range s.associations {
		if rec.DeletedAt != nil {
			continue
		}
		if cat != "" && rec.Category != cat {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(rec.Name), name) {
			continue
		}
		assocs = append(assocs, rec.Association)
	}
	sort.Slice(assocs, func(i, j int) bool { return assocs[i].ID < assocs[j].ID })
	return assocs
}

func (s *store) updateAssociation(id int, apply func(rec *associationRecord) error) (association.Association, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rec, ok := s.associations[id]
	if !ok || rec.DeletedAt != nil {
		return association.Association{}, errNotFound
	}
	updated := *rec
	if err := apply(&updated); err != nil {
		return association.Association{}, err
	}
	if s.emailTaken(updated.Email, 0, id) {
		return association.Association{}, errEmailExists
	}
	updated.UpdatedAt = s.now()
	s.associations[id] = &updated
	return updated.Association, nil
}

func (s *store) deleteAssociation(id int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rec, ok := s.associations[id]
	if !ok || rec.DeletedAt != nil {
		return errNotFound
	}
	now := s.now()
	rec.DeletedAt = &now
	return nil
}

func (s *store) authenticateAssociation(email, pwd string) (association.Association, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, rec := range s.associations {
		if rec.DeletedAt == nil && strings.EqualFold(rec.Email, email) {
			return rec.Association, bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(pwd)) == nil
		}
	}
	return association.Association{}, false
}
