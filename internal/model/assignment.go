package model

// Subject is a taught discipline.
type Subject struct {
	ID   ID     `json:"id" validate:"required"`
	Name string `json:"name"`
}

// Group is a student group.
type Group struct {
	ID   ID     `json:"id" validate:"required"`
	Name string `json:"name"`
}

// Instructor is the teacher responsible for an assignment.
type Instructor struct {
	ID       ID     `json:"id,omitempty"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Assignment (a course) pairs a subject and a group with an instructor.
// Lessons, materials and tests hang off it.
type Assignment struct {
	ID         ID         `json:"id" validate:"required"`
	Subject    Subject    `json:"subject"`
	Group      Group      `json:"group"`
	Instructor Instructor `json:"instructor"`
}

// CreateAssignmentRequest is the create-course form.
type CreateAssignmentRequest struct {
	SubjectID ID `json:"subjectId" binding:"required"`
	GroupID   ID `json:"groupId" binding:"required"`
}

// Material is a downloadable resource attached to an assignment.
type Material struct {
	ID           ID        `json:"id" validate:"required"`
	Title        string    `json:"title"`
	FileURL      string    `json:"fileUrl"`
	CreatedAt    Timestamp `json:"createdAt"`
	AssignmentID ID        `json:"assignmentId,omitempty"`
}

// CreateMaterialRequest is the add-material form.
type CreateMaterialRequest struct {
	Title   string `json:"title" binding:"required,max=255"`
	FileURL string `json:"fileUrl" binding:"required,url"`
}
