package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/amishk599/jobfloor/internal/model"
)

const (
	jsearchBaseURL     = "https://jsearch.p.rapidapi.com/search"
	DefaultJSearchHost = "jsearch.p.rapidapi.com"
)

// Ensure JSearchAdapter implements model.JobSource.
var _ model.JobSource = (*JSearchAdapter)(nil)

// jsearchJob is a single posting in the JSearch API response.
type jsearchJob struct {
	JobID          string   `json:"job_id"`
	Title          string   `json:"job_title"`
	EmployerName   string   `json:"employer_name"`
	City           string   `json:"job_city"`
	State          string   `json:"job_state"`
	Country        string   `json:"job_country"`
	Description    string   `json:"job_description"`
	PostedAt       string   `json:"job_posted_at_datetime_utc"`
	MinSalary      *float64 `json:"job_min_salary"`
	MaxSalary      *float64 `json:"job_max_salary"`
	EmploymentType string   `json:"job_employment_type"`
	ApplyLink      string   `json:"job_apply_link"`
	Latitude       *float64 `json:"job_latitude"`
	Longitude      *float64 `json:"job_longitude"`
}

type jsearchResponse struct {
	Status string       `json:"status"`
	Data   []jsearchJob `json:"data"`
}

// JSearchAdapter fetches postings from the JSearch API on RapidAPI.
type JSearchAdapter struct {
	apiKey string
	host   string
	client *http.Client
}

// NewJSearchAdapter creates an adapter authenticated with a RapidAPI key.
// The client's timeout bounds every fetch.
func NewJSearchAdapter(apiKey, host string, client *http.Client) *JSearchAdapter {
	if host == "" {
		host = DefaultJSearchHost
	}
	return &JSearchAdapter{
		apiKey: apiKey,
		host:   host,
		client: client,
	}
}

func (a *JSearchAdapter) Name() string { return "jsearch" }

// Fetch runs one search page for "<query> in <location>" and normalizes the
// results. Any failure is reported as model.ErrSourceUnavailable.
func (a *JSearchAdapter) Fetch(ctx context.Context, q model.Query) ([]model.Posting, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("%s in %s", q.Text, q.Location))
	params.Set("page", "1")
	params.Set("num_pages", "1")
	if q.Recency != "" {
		params.Set("date_posted", string(q.Recency))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jsearchBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, unavailable(a.Name(), err)
	}
	req.Header.Set("X-RapidAPI-Key", a.apiKey)
	req.Header.Set("X-RapidAPI-Host", a.host)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, unavailable(a.Name(), err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, unavailable(a.Name(), statusError(resp))
	}

	var body jsearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, unavailable(a.Name(), fmt.Errorf("decoding response: %w", err))
	}

	postings := make([]model.Posting, 0, len(body.Data))
	for _, j := range body.Data {
		postings = append(postings, model.Posting{
			ID:             j.JobID,
			Title:          j.Title,
			Company:        j.EmployerName,
			Location:       joinLocation(j.City, j.State, j.Country),
			Latitude:       j.Latitude,
			Longitude:      j.Longitude,
			SalaryMin:      roundSalary(j.MinSalary),
			SalaryMax:      roundSalary(j.MaxSalary),
			EmploymentType: j.EmploymentType,
			PostedDate:     j.PostedAt,
			ApplyLink:      j.ApplyLink,
			Description:    cleanDescription(j.Description),
			Source:         a.Name(),
		})
	}
	return postings, nil
}
