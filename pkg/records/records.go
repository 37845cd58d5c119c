package records

// NavigationTab is one entry of a lesson's in-page tab bar.
type NavigationTab struct {
	ID    string `json:"id"`             // anchor fragment without '#'
	Label string `json:"label"`          // display text
	Icon  string `json:"icon,omitempty"` // optional icon token
}

// LessonRecord is a normalized lesson extracted from one document.
type LessonRecord struct {
	Slug       string          `json:"slug"`
	OrderIndex int             `json:"order_index"`
	ModuleID   *int            `json:"module_id"`
	ModuleName string          `json:"module_name,omitempty"`
	Title      string          `json:"title"`
	Subtitle   string          `json:"subtitle,omitempty"`
	Content    string          `json:"content"`
	Tabs       []NavigationTab `json:"tabs"`
	PrevSlug   string          `json:"prev_slug,omitempty"`
	NextSlug   string          `json:"next_slug,omitempty"`
	SourceFile string          `json:"source_file"`
}

// QuizRecord is the quiz container of one module. ID doubles as the module id.
type QuizRecord struct {
	ID               int    `json:"id"`
	ModuleID         int    `json:"module_id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	PassingScore     int    `json:"passing_score"`
	TimeLimitMinutes int    `json:"time_limit_minutes"`
	QuestionCount    int    `json:"question_count"`
	SourceFile       string `json:"source_file"`
}

// QuestionRecord is one multiple-choice question of a quiz.
type QuestionRecord struct {
	QuizID        int      `json:"quiz_id"`
	Text          string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	Explanation   string   `json:"explanation,omitempty"`
	Points        int      `json:"points"`
	OrderIndex    int      `json:"order_index"`
	SourceID      string   `json:"source_id,omitempty"`
}

// Batch is everything accepted from one run.
type Batch struct {
	Lessons   []LessonRecord
	Quizzes   []QuizRecord
	Questions []QuestionRecord
}

// ModuleKey returns the lesson's module id as a grouping key.
func (l LessonRecord) ModuleKey() (int, bool) {
	if l.ModuleID == nil {
		return 0, false
	}
	return *l.ModuleID, true
}

// IntPtr is a small helper for optional ids.
func IntPtr(v int) *int {
	return &v
}
