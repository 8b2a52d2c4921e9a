package core

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

// StoreFixture wires every sqlite store against a fresh in-memory
// database. The database lives until tearDown closes the last connection.
type StoreFixture struct {
	ctx         context.Context
	db          *sql.DB
	t           *testing.T
	tearDown    func()
	users       UserStore
	chats       ChatStore
	invitations InvitationStore
	messages    MessageStore
	preferences PreferenceStore
}

func NewStoreFixture(t *testing.T) *StoreFixture {

	ctx, cancel := context.WithCancel(context.Background())

	db, err := sql.Open("sqlite3", "file::memory:?cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatal(err)
	}

	migrationfs := os.DirFS("../migrations")
	goose.SetBaseFS(migrationfs)

	if err := goose.SetDialect("sqlite3"); err != nil {
		t.Fatal(err)
	}

	if err := goose.Up(db, "."); err != nil {
		t.Fatal(err)
	}

	users := NewSQLiteUserStore(db)

	return &StoreFixture{
		ctx:         ctx,
		db:          db,
		t:           t,
		users:       users,
		chats:       NewSQLiteChatStore(db, users),
		invitations: NewSQLiteInvitationStore(db, users),
		messages:    NewSQLiteMessageStore(db),
		preferences: NewSQLitePreferenceStore(db),
		tearDown: func() {
			cancel()
			db.Close()
		},
	}
}
