package profile

import "time"

// Role-specific profile records. They are owned by the administrative CRUD
// flows; the account core only resolves them at authentication time.

type Student struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"account_id"`
	StudentID    string    `json:"student_id"` // human-readable, e.g. STU-2026-0042
	ClassName    string    `json:"class_name,omitempty"`
	AcademicYear string    `json:"academic_year,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

type Teacher struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	TeacherID string    `json:"teacher_id"` // e.g. TCH-2026-0007
	Subjects  []string  `json:"subjects,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Parent struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	ParentID  string    `json:"parent_id"` // e.g. PAR-2026-0013
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}
