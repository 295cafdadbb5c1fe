package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Tomone-Nomura/secure-todo/internal/store"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Tasks      []jsonTask `json:"tasks"`
}

type jsonTask struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Detail    string `json:"detail,omitempty"`
	Category  string `json:"category"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"created_at"`
}

// ToJSON writes tasks to path. Callers pass the already-filtered visible
// set: export must not leak tasks the current context hides.
func ToJSON(tasks []store.Task, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(tasks),
	}

	for _, t := range tasks {
		export.Tasks = append(export.Tasks, jsonTask{
			ID:        t.ID,
			Title:     t.Title,
			Detail:    t.Detail,
			Category:  string(t.Category),
			Completed: t.Completed,
			CreatedAt: t.CreatedAt.Local().Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
