package store

import (
	"fmt"
	"strings"
	"time"
)

func (s *Store) CreateZone(name string, lat, lon, radius float64, kind ZoneKind) (*Zone, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyZoneName
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, ErrBadCoordinate
	}
	if radius <= 0 {
		return nil, ErrBadRadius
	}
	if !kind.Valid() {
		return nil, ErrBadKind
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO zones (name, lat, lon, radius, kind, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		name, lat, lon, radius, string(kind), now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert zone: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetZone(id)
}

func (s *Store) GetZone(id int64) (*Zone, error) {
	z := &Zone{}
	var createdAt, kind string
	err := s.db.QueryRow(
		`SELECT id, name, lat, lon, radius, kind, created_at FROM zones WHERE id = ?`, id,
	).Scan(&z.ID, &z.Name, &z.Lat, &z.Lon, &z.Radius, &kind, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("get zone %d: %w", id, err)
	}
	z.Kind = ZoneKind(kind)
	z.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return z, nil
}

// ListZones returns zones in registration order. The resolver depends on
// this order when the first-match strategy is selected.
func (s *Store) ListZones() ([]Zone, error) {
	rows, err := s.db.Query(
		`SELECT id, name, lat, lon, radius, kind, created_at FROM zones ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		var z Zone
		var createdAt, kind string
		if err := rows.Scan(&z.ID, &z.Name, &z.Lat, &z.Lon, &z.Radius, &kind, &createdAt); err != nil {
			return nil, err
		}
		z.Kind = ZoneKind(kind)
		z.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// DeleteZone removes a zone. Absent ids are a no-op.
func (s *Store) DeleteZone(id int64) error {
	_, err := s.db.Exec(`DELETE FROM zones WHERE id = ?`, id)
	return err
}
