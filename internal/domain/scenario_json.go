package domain

import "encoding/json"

// UnmarshalJSON decodes the known node-schema keys and forwards everything
// else verbatim into Extra, the same forwarding rule the model level
// follows.
func (n *NodeSpec) UnmarshalJSON(b []byte) error {
	type alias struct {
		NodeID    int           `json:"nodeid"`
		Type      NodeKind      `json:"type"`
		IName     string        `json:"iname"`
		LogLevel  LogLevel      `json:"loglevel"`
		StartTime *ScenarioTime `json:"starttime,omitempty"`
		EndTime   *ScenarioTime `json:"endtime,omitempty"`
		Models    []ModelSpec   `json:"models"`
	}
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	n.NodeID, n.Type, n.IName, n.LogLevel = a.NodeID, a.Type, a.IName, a.LogLevel
	n.StartTime, n.EndTime, n.Models = a.StartTime, a.EndTime, a.Models

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	known := map[string]bool{
		"nodeid": true, "type": true, "iname": true, "loglevel": true,
		"starttime": true, "endtime": true, "models": true,
	}
	extra := map[string]any{}
	for k, v := range raw {
		if known[k] {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		extra[k] = val
	}
	n.Extra = extra
	return nil
}

// UnmarshalJSON decodes "iname" and forwards every other key verbatim into
// Extra.
func (m *ModelSpec) UnmarshalJSON(b []byte) error {
	type alias struct {
		IName string `json:"iname"`
	}
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	m.IName = a.IName

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	extra := map[string]any{}
	for k, v := range raw {
		if k == "iname" {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		extra[k] = val
	}
	m.Extra = extra
	return nil
}

// UnmarshalJSON decodes "loghandler" and forwards every other key verbatim
// into Extra.
func (l *LogSetupSpec) UnmarshalJSON(b []byte) error {
	type alias struct {
		LogHandler string `json:"loghandler"`
	}
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	l.LogHandler = a.LogHandler
	l.Extra = json.RawMessage(b)
	return nil
}
