package activity

// Activity is one embedded quiz-service event inside a course. EventSlug and
// EditURL stay empty until the remote create call succeeds; renames are
// last-writer-wins with no version locking.
type Activity struct {
	ID       int64  `json:"id"`
	CourseID int64  `json:"course_id"`
	Name     string `json:"name"`
	Intro    string `json:"intro,omitempty"`

	EventSlug string `json:"event_slug,omitempty"`
	EditURL   string `json:"edit_url,omitempty"`

	// Grade is the configured maximum: positive means points, negative is a
	// scale id, zero means text-only feedback.
	Grade int64 `json:"grade"`

	CustomCompletion bool  `json:"custom_completion"`
	AuthorID         int64 `json:"author_id"`
	TimeCreated      int64 `json:"time_created"`
	TimeModified     int64 `json:"time_modified"`
}

// CourseModule is the course-facing handle for an activity. Endpoints and
// signed payloads address activities by cm id, never by activity id.
type CourseModule struct {
	ID         int64 `json:"id"`
	CourseID   int64 `json:"course_id"`
	ActivityID int64 `json:"activity_id"`
	Visible    bool  `json:"visible"`
}

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
}

// DisplayName renders the name the quiz service shows for this user.
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

type CompletionStatus string

const (
	CompletionPass       CompletionStatus = "pass"
	CompletionFail       CompletionStatus = "fail"
	CompletionIncomplete CompletionStatus = "incomplete"
)

// Completion records one user's participation in one activity. Unique by
// (activity, user); replays overwrite grade/status/timestamp in place.
type Completion struct {
	ActivityID   int64            `json:"activity_id"`
	UserID       int64            `json:"user_id"`
	Grade        float64          `json:"grade"` // 0-100 as reported
	Status       CompletionStatus `json:"status"`
	TimeCreated  int64            `json:"time_created"`
	TimeModified int64            `json:"time_modified"`
}

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)
