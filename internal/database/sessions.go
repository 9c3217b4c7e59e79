package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PutSession stores the JSON-encoded playlist for a client, replacing any
// previous one.
func (d *Database) PutSession(ctx context.Context, clientID, playlistJSON string, createdAt float64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("put_session", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO playlists (client_ip, playlist, created_at)
		VALUES (:client_ip, :playlist, :created_at)
	`, SessionRow{ClientID: clientID, Playlist: playlistJSON, CreatedAt: createdAt})
	return err
}

// GetSession returns the stored playlist JSON and its timestamp. found is
// false when the client has no durable session.
func (d *Database) GetSession(ctx context.Context, clientID string) (playlistJSON string, createdAt float64, found bool, err error) {
	start := time.Now()
	defer func() { recordQuery("get_session", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var row SessionRow
	err = d.db.GetContext(ctx, &row,
		"SELECT client_ip, playlist, created_at FROM playlists WHERE client_ip = ?", clientID)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, err
	}
	return row.Playlist, row.CreatedAt, true, nil
}
