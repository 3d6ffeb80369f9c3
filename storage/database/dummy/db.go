package dummydb

import (
	"sync"

	"github.com/schoolier/backend/core/identity"
)

type (
	DB struct {
		profile *profileTable
	}

	profileTable struct {
		sync.RWMutex
		table map[string]*identity.Profile
	}
)

func Open() (*DB, error) {
	db := &DB{
		profile: &profileTable{table: make(map[string]*identity.Profile)},
	}
	return db, nil
}
