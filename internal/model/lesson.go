package model

// Lesson is an HTML instructional unit of an assignment.
type Lesson struct {
	ID           ID     `json:"id" validate:"required"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Content      string `json:"content"`
	AssignmentID ID     `json:"assignmentId,omitempty"`
}

// CreateLessonRequest is the add-lesson form. AssignmentID comes from the path.
type CreateLessonRequest struct {
	Title        string `json:"title" binding:"required,max=255"`
	Content      string `json:"content" binding:"required"`
	AssignmentID ID     `json:"assignmentId"`
}
