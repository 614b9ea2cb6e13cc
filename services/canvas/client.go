package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
)

var (
	// errors
	ErrNotConfigured = errors.New("canvas URL or API token not configured")
	ErrAuth          = errors.New("canvas API token is invalid or expired")
)

// Assignment buckets understood by the Canvas API.
const (
	BucketUpcoming  = "upcoming"
	BucketSubmitted = "submitted"
	BucketGraded    = "graded"
)

type (
	Course struct {
		ID         int    `json:"id"`
		Name       string `json:"name"`
		CourseCode string `json:"course_code"`
	}

	// Assignment is one Canvas assignment row; DueAt is the raw UTC timestamp
	// ("2026-02-25T23:59:00Z"), empty when no due date is set.
	Assignment struct {
		ID    int    `json:"id"`
		Name  string `json:"name"`
		DueAt string `json:"due_at"`
	}

	// Client fetches from the Canvas LMS REST API, following pagination.
	Client struct {
		baseURL string
		token   string
		hc      *http.Client
	}
)

func NewClient(conf core.CanvasConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		token:   conf.Token,
		hc:      &http.Client{Timeout: conf.Timeout},
	}
}

func (c *Client) Configured() bool { return c.baseURL != "" && c.token != "" }

// ActiveCourses returns every course the student is actively enrolled in.
func (c *Client) ActiveCourses(ctx context.Context) ([]Course, error) {
	rows, err := c.getAll(ctx,
		"/api/v1/courses"+
			"?enrollment_state=active"+
			"&enrollment_type=student"+
			"&state[]=available"+
			"&per_page=50")
	if err != nil {
		return nil, err
	}

	courses := make([]Course, 0, len(rows))
	for _, row := range rows {
		var course Course
		if err := json.Unmarshal(row, &course); err != nil || course.ID == 0 {
			continue
		}
		if course.Name == "" {
			course.Name = course.CourseCode
		}
		if course.Name == "" {
			course.Name = fmt.Sprintf("Course %d", course.ID)
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// Assignments returns one course's assignments for the given bucket.
func (c *Client) Assignments(ctx context.Context, courseID int, bucket string) ([]Assignment, error) {
	path := fmt.Sprintf("/api/v1/courses/%d/assignments?bucket=%s&per_page=100", courseID, bucket)
	if bucket == BucketUpcoming {
		path += "&order_by=due_at"
	}
	rows, err := c.getAll(ctx, path)
	if err != nil {
		return nil, err
	}

	assignments := make([]Assignment, 0, len(rows))
	for _, row := range rows {
		var a Assignment
		if err := json.Unmarshal(row, &a); err != nil || a.ID == 0 {
			continue
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

// getAll fetches every page of a Canvas endpoint and returns the merged rows.
func (c *Client) getAll(ctx context.Context, path string) ([]json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var results []json.RawMessage
	url := c.baseURL + path
	for url != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.Wrap(err, "building canvas request")
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.hc.Do(req)
		if err != nil {
			return nil, errors.Wrapf(err, "could not reach Canvas (%s)", c.baseURL)
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, errors.Wrap(err, "reading canvas response")
		}
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, ErrAuth
		case resp.StatusCode >= http.StatusBadRequest:
			return nil, errors.Errorf("canvas HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}

		var page []json.RawMessage
		if err := json.Unmarshal(body, &page); err == nil {
			results = append(results, page...)
		}

		// Follow the Link: <…>; rel="next" header for pagination.
		url = nextLink(resp.Header.Get("Link"))
	}
	return results, nil
}

func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if strings.Contains(part, `rel="next"`) {
			return strings.Trim(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]), "<>")
		}
	}
	return ""
}
