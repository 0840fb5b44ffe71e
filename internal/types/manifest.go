package types

import "time"

// Stage names recorded in a Manifest.
const (
	StageExtract   = "extract"
	StageTransform = "transform"
)

// RunDateLayout is the date format used in file names and manifests.
const RunDateLayout = "2006-01-02"

// Manifest is the sidecar written next to every table file. It carries the
// metadata that would otherwise have to be guessed from the file name.
type Manifest struct {
	NewspaperUID  string    `yaml:"newspaper_uid"`
	RunID         string    `yaml:"run_id"`
	RunDate       string    `yaml:"run_date"`
	Stage         string    `yaml:"stage"`
	Schema        string    `yaml:"schema"`
	SchemaVersion int       `yaml:"schema_version"`
	Columns       []string  `yaml:"columns"`
	Rows          int       `yaml:"rows"`
	CreatedAt     time.Time `yaml:"created_at"`
}
