package model

// PassScore is the minimum score that counts a test as passed.
const PassScore = 70

// TestResult is a scored submission. It is created upstream and read-only here.
type TestResult struct {
	ID        ID        `json:"id" validate:"required"`
	User      User      `json:"user"`
	Test      Test      `json:"test"`
	Score     int       `json:"score" validate:"min=0,max=100"`
	CreatedAt Timestamp `json:"createdAt"`
}

// Passed reports whether the result reaches the pass threshold.
func (r TestResult) Passed() bool {
	return r.Score >= PassScore
}
