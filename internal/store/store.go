// Package store persists feed items in SQLite in feed order.
//
// Every item gets a position when first inserted. Positions start at zero,
// have no gaps and never change, so a page read with LoadPage continues
// the sequence the viewer already holds.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an item id is not in the store.
var ErrNotFound = errors.New("store: item not found")

// Store handles SQLite persistence. Safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Item is a stored feed entry.
type Item struct {
	ID         string
	Position   int
	MediaRef   string
	Caption    string
	Author     string
	SourceName string
	Link       string
	Likes      int
	Comments   int
	Liked      bool
	Published  time.Time
	Fetched    time.Time
}

// Open creates a Store at dbPath, creating tables as needed. ":memory:"
// opens a database private to this Store.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Each connection to :memory: is its own database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL UNIQUE,
		media_ref TEXT NOT NULL UNIQUE,
		caption TEXT,
		author TEXT,
		source_name TEXT,
		link TEXT,
		likes INTEGER DEFAULT 0,
		comments INTEGER DEFAULT 0,
		liked INTEGER DEFAULT 0,
		published_at DATETIME NOT NULL,
		fetched_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_source ON items(source_name);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveItems appends items to the end of the feed in slice order and
// returns how many were new. Items whose id or media ref is already
// stored are skipped and consume no position. Position on the input is
// ignored.
func (s *Store) SaveItems(items []Item) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRow("SELECT COALESCE(MAX(position) + 1, 0) FROM items").Scan(&next); err != nil {
		return 0, fmt.Errorf("next position: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO items (
			id, position, media_ref, caption, author, source_name, link,
			likes, comments, liked, published_at, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	added := 0
	for _, it := range items {
		res, err := stmt.Exec(
			it.ID, next, it.MediaRef, it.Caption, it.Author, it.SourceName, it.Link,
			it.Likes, it.Comments, boolToInt(it.Liked), it.Published, it.Fetched,
		)
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", it.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if n > 0 {
			next++
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// LoadPage returns up to limit items with position greater than after,
// in position order. Pass -1 for the first page.
func (s *Store) LoadPage(after, limit int) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryItems(`
		SELECT id, position, media_ref, caption, author, source_name, link,
			likes, comments, liked, published_at, fetched_at
		FROM items
		WHERE position > ?
		ORDER BY position
		LIMIT ?
	`, after, limit)
}

// Get returns a single item.
func (s *Store) Get(id string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, err := s.queryItems(`
		SELECT id, position, media_ref, caption, author, source_name, link,
			likes, comments, liked, published_at, fetched_at
		FROM items
		WHERE id = ?
	`, id)
	if err != nil {
		return Item{}, err
	}
	if len(items) == 0 {
		return Item{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return items[0], nil
}

// Count returns the number of stored items.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&n)
	return n, err
}

// SourceCounts returns item counts per source name.
func (s *Store) SourceCounts() (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT COALESCE(source_name, ''), COUNT(*) FROM items GROUP BY source_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

// SetLiked records the like toggle from the action column. The like
// count follows the flag.
func (s *Store) SetLiked(id string, liked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE items
		SET likes = MAX(0, likes + CASE WHEN ? = liked THEN 0 WHEN ? = 1 THEN 1 ELSE -1 END),
			liked = ?
		WHERE id = ?
	`, boolToInt(liked), boolToInt(liked), boolToInt(liked), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// queryItems runs query and scans rows into Items. Caller holds s.mu.
func (s *Store) queryItems(query string, args ...any) ([]Item, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var caption, author, source, link sql.NullString
		var liked int
		if err := rows.Scan(
			&it.ID, &it.Position, &it.MediaRef, &caption, &author, &source, &link,
			&it.Likes, &it.Comments, &liked, &it.Published, &it.Fetched,
		); err != nil {
			return nil, err
		}
		it.Caption = caption.String
		it.Author = author.String
		it.SourceName = source.String
		it.Link = link.String
		it.Liked = liked != 0
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
