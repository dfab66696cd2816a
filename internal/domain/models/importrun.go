package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ImportStatus is the lifecycle state of an import run.
type ImportStatus string

const (
	ImportRunning   ImportStatus = "running"
	ImportCompleted ImportStatus = "completed"
	ImportFailed    ImportStatus = "failed"
)

// ImportRun records the progress and outcome of one bulk ingestion.
type ImportRun struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Source         string             `bson:"source" json:"source"` // uploaded file name or CLI path
	StartedBy      string             `bson:"started_by,omitempty" json:"startedBy,omitempty"`
	Status         ImportStatus       `bson:"status" json:"status"`
	Total          int                `bson:"total" json:"total"`
	Processed      int                `bson:"processed" json:"processed"`
	Progress       float64            `bson:"progress" json:"progress"` // 0..1
	FoldersCreated int                `bson:"folders_created" json:"foldersCreated"`
	NodesCreated   int                `bson:"nodes_created" json:"nodesCreated"`
	NodesUpdated   int                `bson:"nodes_updated" json:"nodesUpdated"`
	Error          string             `bson:"error,omitempty" json:"error,omitempty"`
	StartedAt      time.Time          `bson:"started_at" json:"startedAt"`
	FinishedAt     *time.Time         `bson:"finished_at,omitempty" json:"finishedAt,omitempty"`
}
