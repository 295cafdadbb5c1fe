package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/Tomone-Nomura/secure-todo/internal/store"
)

// ToCSV writes tasks to path. Callers pass the already-filtered visible
// set: export must not leak tasks the current context hides.
func ToCSV(tasks []store.Task, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Title", "Detail", "Category", "Completed", "Created"}); err != nil {
		return err
	}

	for _, t := range tasks {
		completed := "no"
		if t.Completed {
			completed = "yes"
		}
		row := []string{
			fmt.Sprintf("%d", t.ID),
			t.Title,
			t.Detail,
			string(t.Category),
			completed,
			t.CreatedAt.Local().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
