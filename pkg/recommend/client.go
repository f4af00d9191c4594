package recommend

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const defaultMatchScore = 80

// Job is one externally recommended job, normalized for the liked list.
type Job struct {
	ID          string  `json:"id"`
	JobID       string  `json:"job_id"`
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	Location    string  `json:"location"`
	Salary      string  `json:"salary"`
	Description string  `json:"description"`
	MatchScore  float64 `json:"match_score"`
}

// Client calls the job matching service.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout),
	}
}

// ShowJobs fetches the recommendations for a user, highest score first.
// Failures are returned as-is; the caller decides how to surface them.
func (c *Client) ShowJobs(ctx context.Context, userID string) ([]Job, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("user_id", userID).
		Get("/show_jobs")
	if err != nil {
		return nil, fmt.Errorf("recommendation request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("recommendation service returned HTTP %d", resp.StatusCode())
	}

	body := resp.String()
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("recommendation service returned invalid JSON")
	}

	items := gjson.Get(body, "recommendations").Array()
	jobs := make([]Job, 0, len(items))
	for _, item := range items {
		title := orDefault(item.Get("JobTitle").String(), "Unknown Role")
		company := orDefault(item.Get("Company").String(), "Unknown Company")
		description := item.Get("Responsibility").String()
		id := jobID(title, company, description)
		score := item.Get("Matching Score").Float()
		if score == 0 {
			score = defaultMatchScore
		}
		location := "Remote"
		if strings.Contains(strings.ToLower(item.Get("Remote").String()), "not") {
			location = "On-site"
		}
		jobs = append(jobs, Job{
			ID:          id,
			JobID:       id,
			Title:       title,
			Company:     company,
			Location:    location,
			Salary:      orDefault(item.Get("Salary").String(), "Not specified"),
			Description: description,
			MatchScore:  score,
		})
	}

	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].MatchScore > jobs[j].MatchScore })

	log.Printf("[Recommend] Loaded %d recommendations for user %s", len(jobs), userID)
	return jobs, nil
}

// jobID is derived from the listing itself so the same job keeps its id
// across calls no matter where it lands in the result list.
func jobID(title, company, description string) string {
	key := strings.ToLower(strings.Join([]string{title, company, description}, "|"))
	return "ext-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
