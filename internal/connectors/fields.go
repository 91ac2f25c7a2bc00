package connectors

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const pipedriveTimeLayout = "2006-01-02 15:04:05"

// DealDTO is a Pipedrive deal with custom fields exposed under configured names
type DealDTO struct {
	ID         int               `json:"id"`
	Title      string            `json:"title"`
	PipelineID int               `json:"pipelineId"`
	StageID    int               `json:"stageId"`
	Status     string            `json:"status"`
	AddTime    time.Time         `json:"addTime"`
	UpdateTime time.Time         `json:"updateTime"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// FieldMapper translates opaque custom field keys to named properties
type FieldMapper struct {
	keys map[string]string // name -> field key
}

// ParseFieldMap parses "name=fieldKey,other=fieldKey2"
func ParseFieldMap(spec string) (*FieldMapper, error) {
	m := &FieldMapper{keys: map[string]string{}}
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, key, ok := strings.Cut(pair, "=")
		name, key = strings.TrimSpace(name), strings.TrimSpace(key)
		if !ok || name == "" || key == "" {
			return nil, fmt.Errorf("invalid field mapping %q", pair)
		}
		m.keys[name] = key
	}
	return m, nil
}

func (m *FieldMapper) Names() []string {
	names := make([]string, 0, len(m.keys))
	for name := range m.keys {
		names = append(names, name)
	}
	return names
}

// Map builds a DealDTO from a raw Pipedrive deal object
func (m *FieldMapper) Map(raw map[string]interface{}) (DealDTO, error) {
	id, ok := toInt(raw["id"])
	if !ok {
		return DealDTO{}, fmt.Errorf("deal has no numeric id")
	}

	var err error
	deal := DealDTO{
		ID:     id,
		Title:  toString(raw["title"]),
		Status: toString(raw["status"]),
		Fields: map[string]string{},
	}
	deal.PipelineID, _ = toInt(raw["pipeline_id"])
	deal.StageID, _ = toInt(raw["stage_id"])
	if deal.AddTime, err = optionalTime(raw, "add_time"); err != nil {
		return DealDTO{}, fmt.Errorf("deal %d: %w", id, err)
	}
	if deal.UpdateTime, err = optionalTime(raw, "update_time"); err != nil {
		return DealDTO{}, fmt.Errorf("deal %d: %w", id, err)
	}

	for name, key := range m.keys {
		if v, present := raw[key]; present && v != nil {
			deal.Fields[name] = toString(v)
		}
	}
	return deal, nil
}

// HasTimeline reports whether both timestamps needed to replay the deal's
// stage history are known
func (d DealDTO) HasTimeline() bool {
	return !d.AddTime.IsZero() && !d.UpdateTime.IsZero()
}

// optionalTime leaves absent or null timestamps zero but rejects malformed ones
func optionalTime(raw map[string]interface{}, key string) (time.Time, error) {
	v, present := raw[key]
	if !present || v == nil {
		return time.Time{}, nil
	}
	t, err := parsePipedriveTime(toString(v))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: %w", key, toString(v), err)
	}
	return t, nil
}

func parsePipedriveTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	return time.ParseInLocation(pipedriveTimeLayout, s, time.UTC)
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	case map[string]interface{}:
		// expanded references such as {"value": 12, "name": "..."}
		return toInt(n["value"])
	}
	return 0, false
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case map[string]interface{}:
		if name, ok := s["name"]; ok {
			return toString(name)
		}
		return toString(s["value"])
	default:
		return fmt.Sprintf("%v", s)
	}
}
