package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/creedlang/creed/runtime"
)

// Ledger is an append-only audit trail of committed clause executions,
// backed by sqlite. It implements [runtime.Observer], so wiring it into a
// store records every commit:
//
//	led, _ := ledger.Open("audit.db")
//	store := runtime.NewStore(prog, runtime.WithObserver(led))
//
// The ledger is written strictly after commit, outside the transaction
// window; nothing here can roll back a mutation.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates a ledger database at path and applies the schema.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	led := &Ledger{db: db}
	if err := led.migrate(); err != nil {
		db.Close()

		return nil, fmt.Errorf("migrate ledger: %w", err)
	}

	return led, nil
}

// migrate creates the schema if it doesn't exist.
func (l *Ledger) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS commits (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		instance TEXT NOT NULL,
		clause TEXT NOT NULL,
		args TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		declared TEXT NOT NULL DEFAULT '',
		memos TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS mutations (
		id TEXT PRIMARY KEY,
		commit_id TEXT NOT NULL REFERENCES commits(id),
		field TEXT NOT NULL,
		before TEXT NOT NULL,
		after TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_commits_instance
		ON commits(instance, seq);
	CREATE INDEX IF NOT EXISTS idx_mutations_commit
		ON mutations(commit_id);
	`

	_, err := l.db.Exec(schema)

	return err
}

// Close closes the underlying database.
func (l *Ledger) Close() error { return l.db.Close() }

// ClauseCommitted appends one commit and one mutation row per changed
// field. Unchanged fields are not recorded.
func (l *Ledger) ClauseCommitted(
	ctx context.Context,
	commit runtime.Commit,
) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger append: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()

	args := make([]string, len(commit.Args))
	for i, a := range commit.Args {
		args[i] = a.String()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO commits (id, instance, clause, args, outcome, declared, memos)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		commit.Instance,
		commit.Clause,
		strings.Join(args, ", "),
		commit.Outcome.String(),
		commit.Declared,
		strings.Join(commit.Memos, "\n"),
	)
	if err != nil {
		return fmt.Errorf("append commit: %w", err)
	}

	for field, after := range commit.After {
		before := commit.Before[field]

		if eq, err := before.Eq(after); err == nil && eq {
			continue
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO mutations (id, commit_id, field, before, after)
			VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), id, field, before.String(), after.String(),
		)
		if err != nil {
			return fmt.Errorf("append mutation: %w", err)
		}
	}

	return tx.Commit()
}

// Entry is one recorded commit. Seq is the append position, assigned by the
// database; created_at has only second granularity and is informational.
type Entry struct {
	Seq       int64
	ID        string
	Instance  string
	Clause    string
	Args      string
	Outcome   string
	Declared  string
	Memos     []string
	CreatedAt time.Time
}

// Mutation is one recorded field change.
type Mutation struct {
	Field  string
	Before string
	After  string
}

// Commits returns every recorded commit for an instance, oldest first.
func (l *Ledger) Commits(
	ctx context.Context,
	instance string,
) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, id, instance, clause, args, outcome, declared, memos, created_at
		FROM commits
		WHERE instance = ?
		ORDER BY seq`,
		instance,
	)
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var (
			e     Entry
			memos string
		)

		err := rows.Scan(&e.Seq, &e.ID, &e.Instance, &e.Clause, &e.Args,
			&e.Outcome, &e.Declared, &memos, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}

		if memos != "" {
			e.Memos = strings.Split(memos, "\n")
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Mutations returns the field changes recorded for one commit.
func (l *Ledger) Mutations(
	ctx context.Context,
	commitID string,
) ([]Mutation, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT field, before, after
		FROM mutations
		WHERE commit_id = ?
		ORDER BY field`,
		commitID,
	)
	if err != nil {
		return nil, fmt.Errorf("query mutations: %w", err)
	}
	defer rows.Close()

	var muts []Mutation

	for rows.Next() {
		var m Mutation

		if err := rows.Scan(&m.Field, &m.Before, &m.After); err != nil {
			return nil, fmt.Errorf("scan mutation: %w", err)
		}

		muts = append(muts, m)
	}

	return muts, rows.Err()
}
