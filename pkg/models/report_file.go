package models

import "time"

// ReportFile is a generated report archived for later listing and retrieval.
type ReportFile struct {
	Filename  string    `db:"filename"   json:"filename"`
	Feature   string    `db:"feature"    json:"feature"`
	Company   string    `db:"company"    json:"company"`
	Industry  string    `db:"industry"   json:"industry"`
	Content   string    `db:"content"    json:"content,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
