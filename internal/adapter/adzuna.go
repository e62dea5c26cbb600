package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/amishk599/jobfloor/internal/model"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
)

// Ensure AdzunaAdapter implements model.JobSource.
var _ model.JobSource = (*AdzunaAdapter)(nil)

// adzunaResponse mirrors the top-level Adzuna JSON response.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

// adzunaResult mirrors a single Adzuna job listing.
type adzunaResult struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Company      adzunaCompany  `json:"company"`
	Location     adzunaLocation `json:"location"`
	SalaryMin    *float64       `json:"salary_min"`
	SalaryMax    *float64       `json:"salary_max"`
	RedirectURL  string         `json:"redirect_url"`
	Created      string         `json:"created"`
	ContractTime string         `json:"contract_time"`
	Latitude     *float64       `json:"latitude"`
	Longitude    *float64       `json:"longitude"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

// AdzunaAdapter fetches postings from the Adzuna public search API.
type AdzunaAdapter struct {
	appID   string
	appKey  string
	country string // "us", "gb", "fr", …
	client  *http.Client
}

// NewAdzunaAdapter creates an adapter for one Adzuna country index.
func NewAdzunaAdapter(appID, appKey, country string, client *http.Client) *AdzunaAdapter {
	if country == "" {
		country = "us"
	}
	return &AdzunaAdapter{
		appID:   appID,
		appKey:  appKey,
		country: country,
		client:  client,
	}
}

func (a *AdzunaAdapter) Name() string { return "adzuna" }

// maxDaysOld maps a recency window onto Adzuna's max_days_old parameter.
// Zero means no limit.
func maxDaysOld(r model.Recency) int {
	switch r {
	case model.RecencyToday:
		return 1
	case model.Recency3Days:
		return 3
	case model.RecencyWeek:
		return 7
	case model.RecencyMonth:
		return 30
	default:
		return 0
	}
}

// Fetch retrieves the first page of date-sorted results for the query.
// Any failure is reported as model.ErrSourceUnavailable.
func (a *AdzunaAdapter) Fetch(ctx context.Context, q model.Query) ([]model.Posting, error) {
	params := url.Values{}
	params.Set("app_id", a.appID)
	params.Set("app_key", a.appKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", q.Text)
	if q.Location != "" {
		params.Set("where", q.Location)
	}
	if days := maxDaysOld(q.Recency); days > 0 {
		params.Set("max_days_old", strconv.Itoa(days))
	}
	params.Set("sort_by", "date")

	endpoint := fmt.Sprintf("%s/%s/search/1?%s", adzunaBaseURL, a.country, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, unavailable(a.Name(), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, unavailable(a.Name(), err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, unavailable(a.Name(), statusError(resp))
	}

	var body adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, unavailable(a.Name(), fmt.Errorf("decoding response: %w", err))
	}

	postings := make([]model.Posting, 0, len(body.Results))
	for _, r := range body.Results {
		postings = append(postings, model.Posting{
			ID:             r.ID,
			Title:          extractText(r.Title),
			Company:        r.Company.DisplayName,
			Location:       r.Location.DisplayName,
			Latitude:       r.Latitude,
			Longitude:      r.Longitude,
			SalaryMin:      positiveSalary(r.SalaryMin),
			SalaryMax:      positiveSalary(r.SalaryMax),
			EmploymentType: r.ContractTime,
			PostedDate:     r.Created,
			ApplyLink:      r.RedirectURL,
			Description:    cleanDescription(r.Description),
			Source:         a.Name(),
		})
	}
	return postings, nil
}
