package memory

import (
	"context"
	"database/sql"

	"github.com/stormlightlabs/memoria/internal/index"
	"github.com/stormlightlabs/memoria/internal/shared"
)

const projectColumns = `id, name, description, asana_url, created_at`

type NewProject struct {
	Name        string
	Description string
	AsanaURL    string
}

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.AsanaURL, &p.CreatedAt)
	return p, err
}

// AddProject creates a project. Names are unique.
func (s *Service) AddProject(ctx context.Context, in NewProject) (Project, error) {
	if err := requireText("name", in.Name); err != nil {
		return Project{}, err
	}
	var p Project
	err := s.write(ctx, func(tx *sql.Tx) ([]index.Document, error) {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO projects (name, description, asana_url) VALUES (?, ?, ?)`,
			in.Name, shared.OptionalString(in.Description), shared.OptionalString(in.AsanaURL),
		)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		p, err = scanProject(tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
		return nil, err
	})
	return p, err
}

func (s *Service) GetProject(ctx context.Context, id int64) (Project, error) {
	p, err := scanProject(s.store.DB().QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return Project{}, dbErr(notFound(err, "project", id))
	}
	return p, nil
}

// ListProjects returns up to 30 projects, newest first.
func (s *Service) ListProjects(ctx context.Context, limit int) ([]Project, error) {
	rows, err := s.store.DB().QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, id DESC LIMIT ?`,
		clamp(limit, maxProjects),
	)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, dbErr(err)
		}
		projects = append(projects, p)
	}
	return projects, dbErr(rows.Err())
}
