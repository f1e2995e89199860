package domain

import (
	"errors"
	"time"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrStageNotFound   = errors.New("stage not found")
	ErrProjectInUse    = errors.New("project has defects and cannot be deleted")
	ErrStageInUse      = errors.New("stage has defects and cannot be deleted")
	ErrStageExists     = errors.New("stage name already used in this project")
)

// Project is a construction site or engineering object defects are tracked
// against. Deletion is refused while any defect references it.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Stage is a phase or zone within a project. Names are unique per project.
type Stage struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	ProjectName string    `json:"project_name"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}
