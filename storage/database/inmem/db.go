// Package inmemdb provides mutex-guarded map repositories, used by tests and
// as the dev fallback when postgres is not configured.
package inmemdb

import (
	"sync"

	"github.com/academiahq/academia/core/account"
	"github.com/academiahq/academia/core/profile"
)

type (
	DB struct {
		account *accountTable
		profile *profileTables
	}

	accountTable struct {
		t     map[string]*account.Account
		mutex sync.RWMutex
	}

	profileTables struct {
		students map[string]*profile.Student // keyed by account id
		teachers map[string]*profile.Teacher
		parents  map[string]*profile.Parent
		mutex    sync.RWMutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		account: &accountTable{t: make(map[string]*account.Account)},
		profile: &profileTables{
			students: make(map[string]*profile.Student),
			teachers: make(map[string]*profile.Teacher),
			parents:  make(map[string]*profile.Parent),
		},
	}
	return db, nil
}
