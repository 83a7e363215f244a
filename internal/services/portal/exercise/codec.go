package exercise

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
)

func toRecord(e Exercise) (storage.Exercise, error) {
	tasks := e.Tasks
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return storage.Exercise{}, fmt.Errorf("encode tasks: %w", err)
	}
	return storage.Exercise{
		ID:             e.ID,
		Type:           string(e.Type),
		Title:          e.Title,
		Description:    e.Description,
		AllowedMinutes: e.AllowedMinutes,
		Passage:        e.Passage,
		ImageURL:       e.ImageURL,
		RecordingURL:   e.RecordingURL,
		TasksJSON:      data,
		CreatedBy:      e.CreatedBy,
		CreatedAt:      e.CreatedAt,
		UpdatedBy:      e.UpdatedBy,
		UpdatedAt:      e.UpdatedAt,
	}, nil
}

func fromRecord(r storage.Exercise) (Exercise, error) {
	var tasks []Task
	if len(r.TasksJSON) > 0 {
		if err := json.Unmarshal(r.TasksJSON, &tasks); err != nil {
			return Exercise{}, fmt.Errorf("decode tasks of exercise %s: %w", r.ID, err)
		}
	}
	return Exercise{
		ID:             r.ID,
		Type:           Type(r.Type),
		Title:          r.Title,
		Description:    r.Description,
		AllowedMinutes: r.AllowedMinutes,
		Passage:        r.Passage,
		ImageURL:       r.ImageURL,
		RecordingURL:   r.RecordingURL,
		Tasks:          tasks,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedBy:      r.UpdatedBy,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}
