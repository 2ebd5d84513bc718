package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrProjectNotFound is returned when no graph is stored under a name.
var ErrProjectNotFound = errors.New("project not found")

// Project represents a stored roadmap.
type Project struct {
	Name      string `json:"name"`
	IndexedAt string `json:"indexed_at"`
	RootPath  string `json:"root_path"`
	Version   int    `json:"version"`
	Digest    string `json:"graph_digest"`
}

// UpsertProject creates or updates a project record.
func (s *Store) UpsertProject(p *Project) error {
	_, err := s.q.Exec(`
		INSERT INTO projects (name, indexed_at, root_path, version, digest) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			indexed_at=excluded.indexed_at,
			root_path=excluded.root_path,
			version=excluded.version,
			digest=excluded.digest`,
		p.Name, Now(), p.RootPath, p.Version, p.Digest)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}

// GetProject returns a project by name.
func (s *Store) GetProject(name string) (*Project, error) {
	var p Project
	err := s.q.QueryRow("SELECT name, indexed_at, root_path, version, digest FROM projects WHERE name=?", name).
		Scan(&p.Name, &p.IndexedAt, &p.RootPath, &p.Version, &p.Digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all stored projects ordered by name.
func (s *Store) ListProjects() ([]*Project, error) {
	rows, err := s.q.Query("SELECT name, indexed_at, root_path, version, digest FROM projects ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	var result []*Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.Name, &p.IndexedAt, &p.RootPath, &p.Version, &p.Digest); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

// DeleteProject deletes a project and all associated rows (CASCADE).
// It reports whether a project was removed.
func (s *Store) DeleteProject(name string) (bool, error) {
	res, err := s.q.Exec("DELETE FROM projects WHERE name=?", name)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
