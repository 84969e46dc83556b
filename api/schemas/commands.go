package schemas

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Action identifies one kind of browser operation. The vocabulary is closed:
// anything outside this set is rejected at validation time and never reaches
// the execution engine.
type Action string

const (
	ActionNavigate   Action = "navigate"
	ActionClick      Action = "click"
	ActionType       Action = "type"
	ActionSearch     Action = "search"
	ActionWait       Action = "wait"
	ActionScroll     Action = "scroll"
	ActionScreenshot Action = "screenshot"
	ActionExtract    Action = "extract"
)

// SupportedActions lists the closed action vocabulary in a stable order.
var SupportedActions = []Action{
	ActionNavigate,
	ActionClick,
	ActionType,
	ActionSearch,
	ActionWait,
	ActionScroll,
	ActionScreenshot,
	ActionExtract,
}

// Valid reports whether a is part of the closed vocabulary.
func (a Action) Valid() bool {
	switch a {
	case ActionNavigate, ActionClick, ActionType, ActionSearch,
		ActionWait, ActionScroll, ActionScreenshot, ActionExtract:
		return true
	}
	return false
}

// FlexInt is an int that tolerates JSON numbers, numeric strings, and null.
// Completion services are inconsistent about quoting numeric fields.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*f = FlexInt(n)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexInt(v)
	return nil
}

// FlexString is a string that also accepts a bare JSON number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var v json.Number
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexString(v.String())
	return nil
}

// Command is a single requested browser action. Field semantics depend on
// Action; the validator guarantees that exactly the fields relevant to the
// action carry validated or defaulted values.
type Command struct {
	ID          string     `json:"id,omitempty"`
	Action      Action     `json:"action"`
	Target      string     `json:"target,omitempty"`
	Value       string     `json:"value,omitempty"`
	Text        string     `json:"text,omitempty"`
	Query       string     `json:"query,omitempty"`
	DurationMs  FlexInt    `json:"duration,omitempty"`
	Direction   string     `json:"direction,omitempty"`
	Amount      FlexString `json:"amount,omitempty"`
	Attribute   string     `json:"attribute,omitempty"`
	Description string     `json:"description,omitempty"`
	Priority    int        `json:"priority,omitempty"`
}

// ParsingMetadata carries context about one interpretation run.
type ParsingMetadata struct {
	OriginalText string    `json:"original_text"`
	ParsedAt     time.Time `json:"parsed_at"`
	CommandCount int       `json:"command_count"`
	Language     string    `json:"language,omitempty"`
	Complexity   string    `json:"complexity,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// ParsingResult is the outcome of interpreting free-form text into commands.
// A malformed completion response is representable here (Success false,
// Confidence 0.1, empty Commands) rather than surfacing as an error.
type ParsingResult struct {
	Success    bool            `json:"success"`
	Intent     string          `json:"intent"`
	Confidence float64         `json:"confidence"`
	Commands   []Command       `json:"commands"`
	Metadata   ParsingMetadata `json:"metadata"`
}

// ActionResult is the payload a successfully executed command produces.
// Only the fields relevant to the action are set.
type ActionResult struct {
	Action    Action   `json:"action"`
	Target    string   `json:"target,omitempty"`
	Text      string   `json:"text,omitempty"`
	Value     string   `json:"value,omitempty"`
	URL       string   `json:"url,omitempty"`
	Direction string   `json:"direction,omitempty"`
	AmountPx  int      `json:"amount_px,omitempty"`
	Duration  int      `json:"duration,omitempty"`
	Path      string   `json:"path,omitempty"`
	Attribute string   `json:"attribute,omitempty"`
	Values    []string `json:"values,omitempty"`
	Count     int      `json:"count,omitempty"`
}

// CommandResult records the outcome of one executed command.
type CommandResult struct {
	CommandIndex int           `json:"command_index"`
	Command      Command       `json:"command"`
	Result       *ActionResult `json:"result,omitempty"`
	Error        string        `json:"error,omitempty"`
	Success      bool          `json:"success"`
}

// BrowserInfo is a best-effort snapshot of the live page, captured after a
// batch completes. Snapshot failures populate Error instead of aborting the
// report.
type BrowserInfo struct {
	CurrentURL string `json:"current_url,omitempty"`
	PageTitle  string `json:"page_title,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ReportMetadata annotates an ExecutionReport.
type ReportMetadata struct {
	BrowserInfo BrowserInfo `json:"browser_info"`
	ExecutedAt  time.Time   `json:"executed_at"`
}

// ExecutionReport summarizes one executed batch. Invariants:
// ExecutedCommands == len(Results) and SuccessfulCommands + FailedCommands ==
// ExecutedCommands. Commands skipped by stop-on-error are absent from
// Results; the report only covers what actually ran.
type ExecutionReport struct {
	ExecutedCommands   int             `json:"executed_commands"`
	SuccessfulCommands int             `json:"successful_commands"`
	FailedCommands     int             `json:"failed_commands"`
	ExecutionTimeMs    int64           `json:"execution_time_ms"`
	Results            []CommandResult `json:"results"`
	Metadata           ReportMetadata  `json:"metadata"`
}

// SessionStatus describes the engine's session state at a point in time.
type SessionStatus struct {
	Running       bool      `json:"running"`
	BrowserActive bool      `json:"browser_active"`
	PageActive    bool      `json:"page_active"`
	SessionID     string    `json:"session_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// ExecuteOptions tunes one batch execution. Nil pointers take the engine
// defaults (stop-on-error enabled, headless enabled).
type ExecuteOptions struct {
	StopOnError *bool `json:"stop_on_error,omitempty"`
	Headless    *bool `json:"headless,omitempty"`
}

// StopOnErrorOrDefault resolves the stop-on-error policy (default true).
func (o ExecuteOptions) StopOnErrorOrDefault() bool {
	if o.StopOnError == nil {
		return true
	}
	return *o.StopOnError
}

// HeadlessOrDefault resolves the headless flag against a configured default.
func (o ExecuteOptions) HeadlessOrDefault(def bool) bool {
	if o.Headless == nil {
		return def
	}
	return *o.Headless
}
