package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// RoomRecord is the durable snapshot of one room, written after
// successful in-memory mutations and read back only on restart.
type RoomRecord struct {
	Code     string   `json:"code"`
	Members  []string `json:"members"`
	Category string   `json:"category"`
}

// PlayerRecord is the durable snapshot of one player's attributes.
type PlayerRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Level int    `json:"level"`
	Ready bool   `json:"ready"`
}

func roomKey(code string) string { return "room:" + code }
func playerKey(id string) string { return "player:" + id }

// Put upserts a checkpoint record under a key.
func (d *DB) Put(key string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling checkpoint %s: %w", key, err)
	}
	_, err = d.conn.Exec(`
		INSERT INTO checkpoints (key, record, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET record = $2, updated_at = now()
	`, key, data)
	if err != nil {
		return fmt.Errorf("upserting checkpoint %s: %w", key, err)
	}
	return nil
}

// Get loads a checkpoint into out. The boolean reports presence.
func (d *DB) Get(key string, out any) (bool, error) {
	var data []byte
	err := d.conn.QueryRow(`
		SELECT record FROM checkpoints WHERE key = $1
	`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("getting checkpoint %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshaling checkpoint %s: %w", key, err)
	}
	return true, nil
}

// Delete removes a checkpoint. Deleting an absent key is not an error.
func (d *DB) Delete(key string) error {
	if _, err := d.conn.Exec(`DELETE FROM checkpoints WHERE key = $1`, key); err != nil {
		return fmt.Errorf("deleting checkpoint %s: %w", key, err)
	}
	return nil
}

func (d *DB) PutRoom(r RoomRecord) error {
	return d.Put(roomKey(r.Code), r)
}

func (d *DB) DeleteRoom(code string) error {
	return d.Delete(roomKey(code))
}

func (d *DB) PutPlayer(p PlayerRecord) error {
	return d.Put(playerKey(p.ID), p)
}

func (d *DB) DeletePlayer(id string) error {
	return d.Delete(playerKey(id))
}

// LoadRooms returns every checkpointed room, used to rebuild the room
// directory after a restart.
func (d *DB) LoadRooms() ([]RoomRecord, error) {
	rows, err := d.conn.Query(`
		SELECT key, record FROM checkpoints WHERE key LIKE 'room:%'
	`)
	if err != nil {
		return nil, fmt.Errorf("loading room checkpoints: %w", err)
	}
	defer rows.Close()

	var records []RoomRecord
	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("scanning checkpoint: %w", err)
		}
		var r RoomRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("unmarshaling checkpoint %s: %w", key, err)
		}
		if r.Code == "" {
			r.Code = strings.TrimPrefix(key, "room:")
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// LoadPlayers returns every checkpointed player record.
func (d *DB) LoadPlayers() ([]PlayerRecord, error) {
	rows, err := d.conn.Query(`
		SELECT record FROM checkpoints WHERE key LIKE 'player:%'
	`)
	if err != nil {
		return nil, fmt.Errorf("loading player checkpoints: %w", err)
	}
	defer rows.Close()

	var records []PlayerRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning checkpoint: %w", err)
		}
		var p PlayerRecord
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshaling player checkpoint: %w", err)
		}
		records = append(records, p)
	}
	return records, rows.Err()
}
