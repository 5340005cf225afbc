package domain

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultMonitoringTagPrefix marks version tags that embed monitoring
// metadata as JSON.
const DefaultMonitoringTagPrefix = "mlflow.monitoring."

// MonitoringEntry is one decoded monitoring tag.
type MonitoringEntry struct {
	Key     string                 `json:"key"`
	Kind    string                 `json:"kind"`
	Payload map[string]interface{} `json:"payload"`
}

// ParseMonitoringTags decodes the tags carrying prefix. Tags whose value is
// not a JSON object are returned separately and left out of the entries.
func ParseMonitoringTags(prefix string, tags []Tag) ([]MonitoringEntry, []Tag) {
	var entries []MonitoringEntry
	var dropped []Tag

	for _, t := range tags {
		if !strings.HasPrefix(t.Key, prefix) {
			continue
		}
		if !gjson.Valid(t.Value) || !gjson.Parse(t.Value).IsObject() {
			dropped = append(dropped, t)
			continue
		}

		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(t.Value), &payload); err != nil {
			dropped = append(dropped, t)
			continue
		}

		kind := gjson.Get(t.Value, "type").String()
		if kind == "" {
			kind = strings.TrimPrefix(t.Key, prefix)
		}

		entries = append(entries, MonitoringEntry{
			Key:     t.Key,
			Kind:    kind,
			Payload: payload,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, dropped
}
