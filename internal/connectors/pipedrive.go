package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const pipedrivePageSize = 100

type Pipeline struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Active  bool   `json:"active"`
	OrderNr int    `json:"order_nr"`
}

type Stage struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	PipelineID int    `json:"pipeline_id"`
	OrderNr    int    `json:"order_nr"`
}

// StageChange is a stage_id update from a deal's flow
type StageChange struct {
	FromStageID int
	ToStageID   int
	At          time.Time
}

// APIError is a non-2xx or unsuccessful Pipedrive response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pipedrive: status %d: %s", e.StatusCode, e.Message)
}

type pagination struct {
	MoreItems bool `json:"more_items_in_collection"`
	NextStart int  `json:"next_start"`
}

type envelope struct {
	Success        bool            `json:"success"`
	Error          string          `json:"error"`
	Data           json.RawMessage `json:"data"`
	AdditionalData struct {
		Pagination *pagination `json:"pagination"`
	} `json:"additional_data"`
}

type PipedriveClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewPipedriveClient(baseURL, token string) *PipedriveClient {
	return &PipedriveClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *PipedriveClient) get(ctx context.Context, path string, params url.Values) (*envelope, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pipedrive request %s: %w", path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		}
		return nil, fmt.Errorf("pipedrive decode %s: %w", path, err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = resp.Status
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return &env, nil
}

func (c *PipedriveClient) ListPipelines(ctx context.Context) ([]Pipeline, error) {
	env, err := c.get(ctx, "/pipelines", nil)
	if err != nil {
		return nil, err
	}
	pipelines := []Pipeline{}
	if err := decodeData(env, &pipelines); err != nil {
		return nil, err
	}
	return pipelines, nil
}

// ListStages returns stages of one pipeline, or of all pipelines when pipelineID is zero
func (c *PipedriveClient) ListStages(ctx context.Context, pipelineID int) ([]Stage, error) {
	params := url.Values{}
	if pipelineID > 0 {
		params.Set("pipeline_id", strconv.Itoa(pipelineID))
	}
	env, err := c.get(ctx, "/stages", params)
	if err != nil {
		return nil, err
	}
	stages := []Stage{}
	if err := decodeData(env, &stages); err != nil {
		return nil, err
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].OrderNr < stages[j].OrderNr })
	return stages, nil
}

// GetDeal returns the raw deal object, custom field keys included
func (c *PipedriveClient) GetDeal(ctx context.Context, dealID int) (map[string]interface{}, error) {
	env, err := c.get(ctx, fmt.Sprintf("/deals/%d", dealID), nil)
	if err != nil {
		return nil, err
	}
	var deal map[string]interface{}
	if err := decodeData(env, &deal); err != nil {
		return nil, err
	}
	return deal, nil
}

// ListDeals pages through every deal of a pipeline, or all deals when pipelineID is zero
func (c *PipedriveClient) ListDeals(ctx context.Context, pipelineID int) ([]map[string]interface{}, error) {
	path := "/deals"
	params := url.Values{"status": {"all_not_deleted"}}
	if pipelineID > 0 {
		path = fmt.Sprintf("/pipelines/%d/deals", pipelineID)
		params = url.Values{}
	}

	var deals []map[string]interface{}
	err := c.paginate(ctx, path, params, func(env *envelope) error {
		var page []map[string]interface{}
		if err := decodeData(env, &page); err != nil {
			return err
		}
		deals = append(deals, page...)
		return nil
	})
	return deals, err
}

// DealStageChanges returns the deal's stage_id changes ordered by time
func (c *PipedriveClient) DealStageChanges(ctx context.Context, dealID int) ([]StageChange, error) {
	type flowItem struct {
		Object string `json:"object"`
		Data   struct {
			FieldKey string      `json:"field_key"`
			OldValue interface{} `json:"old_value"`
			NewValue interface{} `json:"new_value"`
			LogTime  string      `json:"log_time"`
		} `json:"data"`
	}

	var changes []StageChange
	params := url.Values{"items": {"dealChange"}}
	err := c.paginate(ctx, fmt.Sprintf("/deals/%d/flow", dealID), params, func(env *envelope) error {
		var items []flowItem
		if err := decodeData(env, &items); err != nil {
			return err
		}
		for _, item := range items {
			if item.Object != "dealChange" || item.Data.FieldKey != "stage_id" {
				continue
			}
			at, err := parsePipedriveTime(item.Data.LogTime)
			if err != nil {
				continue
			}
			from, _ := toInt(item.Data.OldValue)
			to, _ := toInt(item.Data.NewValue)
			changes = append(changes, StageChange{FromStageID: from, ToStageID: to, At: at})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(changes, func(i, j int) bool { return changes[i].At.Before(changes[j].At) })
	return changes, nil
}

func (c *PipedriveClient) paginate(ctx context.Context, path string, params url.Values, page func(*envelope) error) error {
	start := 0
	for {
		p := url.Values{}
		for k, v := range params {
			p[k] = v
		}
		p.Set("start", strconv.Itoa(start))
		p.Set("limit", strconv.Itoa(pipedrivePageSize))

		env, err := c.get(ctx, path, p)
		if err != nil {
			return err
		}
		if err := page(env); err != nil {
			return err
		}

		pg := env.AdditionalData.Pagination
		if pg == nil || !pg.MoreItems {
			return nil
		}
		start = pg.NextStart
	}
}

func decodeData(env *envelope, out interface{}) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// PipedriveSource rebuilds stage transitions from deal flows
type PipedriveSource struct {
	client     *PipedriveClient
	mapper     *FieldMapper
	pipelineID int
	logger     *zap.Logger
}

func NewPipedriveSource(client *PipedriveClient, mapper *FieldMapper, pipelineID int, logger *zap.Logger) *PipedriveSource {
	return &PipedriveSource{client: client, mapper: mapper, pipelineID: pipelineID, logger: logger}
}

func (s *PipedriveSource) Name() string { return "pipedrive" }

func (s *PipedriveSource) Close() error { return nil }

func (s *PipedriveSource) FetchTransitions(ctx context.Context, since time.Time) ([]StageTransition, error) {
	raw, err := s.client.ListDeals(ctx, s.pipelineID)
	if err != nil {
		return nil, err
	}

	stageNames := map[int]string{}
	if stages, err := s.client.ListStages(ctx, s.pipelineID); err == nil {
		for _, st := range stages {
			stageNames[st.ID] = st.Name
		}
	} else {
		s.logger.Warn("Could not load stage names", zap.Error(err))
	}

	var transitions []StageTransition
	for _, r := range raw {
		deal, err := s.mapper.Map(r)
		if err != nil {
			s.logger.Warn("Skipping unreadable deal", zap.Error(err))
			continue
		}
		if !deal.HasTimeline() {
			s.logger.Warn("Skipping deal without add or update time", zap.Int("deal_id", deal.ID))
			continue
		}
		if !since.IsZero() && deal.UpdateTime.Before(since) {
			continue
		}

		changes, err := s.client.DealStageChanges(ctx, deal.ID)
		if err != nil {
			return nil, fmt.Errorf("deal %d flow: %w", deal.ID, err)
		}
		for _, t := range BuildTransitions(deal, changes) {
			t.StageName = stageNames[t.StageID]
			transitions = append(transitions, t)
		}
	}
	return transitions, nil
}

// BuildTransitions replays stage changes from the deal's creation. The deal
// enters its first stage at AddTime; each change closes the current stay and
// opens the next.
func BuildTransitions(deal DealDTO, changes []StageChange) []StageTransition {
	initial := deal.StageID
	if len(changes) > 0 && changes[0].FromStageID != 0 {
		initial = changes[0].FromStageID
	}

	current := StageTransition{
		DealID:     deal.ID,
		PipelineID: deal.PipelineID,
		StageID:    initial,
		EnteredAt:  deal.AddTime,
	}

	out := make([]StageTransition, 0, len(changes)+1)
	for _, ch := range changes {
		if ch.ToStageID == current.StageID {
			continue
		}
		left := ch.At
		current.LeftAt = &left
		out = append(out, current)
		current = StageTransition{
			DealID:     deal.ID,
			PipelineID: deal.PipelineID,
			StageID:    ch.ToStageID,
			EnteredAt:  ch.At,
		}
	}
	return append(out, current)
}
