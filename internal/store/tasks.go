package store

import (
	"fmt"
	"strings"
	"time"
)

func (s *Store) CreateTask(title, detail string, category Category) (*Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	if !category.Valid() {
		return nil, ErrBadCategory
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO tasks (title, detail, category, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		title, detail, string(category), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetTask(id)
}

func (s *Store) GetTask(id int64) (*Task, error) {
	t := &Task{}
	var createdAt, updatedAt, category string
	var completed int
	err := s.db.QueryRow(
		`SELECT id, title, detail, category, completed, created_at, updated_at FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.Title, &t.Detail, &category, &completed, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	t.Category = Category(category)
	t.Completed = completed == 1
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return t, nil
}

// ListTasks returns every task in creation order.
func (s *Store) ListTasks() ([]Task, error) {
	rows, err := s.db.Query(
		`SELECT id, title, detail, category, completed, created_at, updated_at FROM tasks ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var createdAt, updatedAt, category string
		var completed int
		if err := rows.Scan(&t.ID, &t.Title, &t.Detail, &category, &completed, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		t.Category = Category(category)
		t.Completed = completed == 1
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTask(id int64, title, detail string, category Category) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if !category.Valid() {
		return ErrBadCategory
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE tasks SET title = ?, detail = ?, category = ?, updated_at = ? WHERE id = ?`,
		title, detail, string(category), now, id,
	)
	return err
}

// ToggleTask flips the completion flag. Unknown ids are a no-op.
func (s *Store) ToggleTask(id int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE tasks SET completed = 1 - completed, updated_at = ? WHERE id = ?`, now, id,
	)
	return err
}

// DeleteTask removes a task. Deleting an absent id is a no-op, so the
// operation is idempotent.
func (s *Store) DeleteTask(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	return err
}

// DeleteCompleted removes every completed task and reports how many went.
func (s *Store) DeleteCompleted() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE completed = 1`)
	if err != nil {
		return 0, fmt.Errorf("delete completed: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
