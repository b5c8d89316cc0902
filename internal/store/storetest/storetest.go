// Package storetest opens throwaway in-memory stores for tests.
package storetest

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wanderlust-stays/wanderlust/internal/db"
	"github.com/wanderlust-stays/wanderlust/internal/store/gormstore"
)

// NewSQLite returns a migrated gormstore backed by a private shared-cache
// in-memory sqlite database. It is closed when the test ends.
func NewSQLite(t testing.TB) *gormstore.Store {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	url := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	d, err := db.Connect(url, "", log)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	s := gormstore.New(d)
	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}
