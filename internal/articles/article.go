// ABOUTME: Article model and the Result envelope returned by every API call
// ABOUTME: Result is either a success payload or a Failure, never a Go error

package articles

import "fmt"

// Status is the publication status of an article.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known publication status.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// ParseStatus converts a user supplied string into a Status.
// An empty string means "no filter" and is returned as-is.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if st == "" || st.Valid() {
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q (want %q or %q)", s, StatusDraft, StatusPublished)
}

// Article is a content item owned by the content API.
type Article struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Content     string   `json:"content,omitempty" yaml:"content,omitempty"`
	Tags        []string `json:"tags" yaml:"tags"`
	Excerpt     string   `json:"excerpt" yaml:"excerpt"`
	Status      Status   `json:"status" yaml:"status"`
	Date        string   `json:"date" yaml:"date"`
	ReadTime    int      `json:"readTime,omitempty" yaml:"read_time,omitempty"`
	Icon        string   `json:"icon,omitempty" yaml:"icon,omitempty"`
	ContentFile string   `json:"contentFile,omitempty" yaml:"content_file,omitempty"`
}

// NewArticle is the creation payload: the full record minus server-assigned id and date.
type NewArticle struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Excerpt string   `json:"excerpt"`
	Status  Status   `json:"status"`
}

// Update holds the fields to merge into an existing article.
// Nil fields are left out of the request body.
type Update struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
	Excerpt *string   `json:"excerpt,omitempty"`
	Status  *Status   `json:"status,omitempty"`
}

// FailureKind classifies why a call did not succeed.
type FailureKind string

const (
	// FailureTransport means the API could not be reached (connection, timeout).
	FailureTransport FailureKind = "transport"
	// FailureAPI means the API answered but reported or implied failure.
	FailureAPI FailureKind = "api"
)

// Failure describes an unsuccessful call in user-presentable form.
type Failure struct {
	Kind       FailureKind
	Message    string
	StatusCode int
}

func (f *Failure) Error() string {
	return f.Message
}

// Result is the outcome of an API call: exactly one of the success
// payloads is meaningful when Failure is nil.
type Result struct {
	Article  *Article
	Articles []*Article
	Total    int
	Message  string
	Failure  *Failure
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Failure == nil
}

func failure(kind FailureKind, status int, format string, args ...any) Result {
	return Result{Failure: &Failure{
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: status,
	}}
}
