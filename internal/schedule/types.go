package schedule

import "time"

// Definition is one persisted one-shot schedule, identified by (Name, Group).
// The system always reschedules to a single future instant expressed as
// "at(YYYY-MM-DDTHH:MM:SS)" in Timezone; it never installs a recurrence rule.
type Definition struct {
	Name       string `json:"name"`
	Group      string `json:"group"`
	Expression string `json:"expression"`
	Timezone   string `json:"timezone"`
	Target     Target `json:"target"`

	// Optional fields carried forward verbatim on every update.
	Description           string     `json:"description,omitempty"`
	StartDate             *time.Time `json:"startDate,omitempty"`
	EndDate               *time.Time `json:"endDate,omitempty"`
	State                 string     `json:"state,omitempty"` // "ENABLED" or "DISABLED"
	KMSKeyARN             string     `json:"kmsKeyArn,omitempty"`
	ActionAfterCompletion string     `json:"actionAfterCompletion,omitempty"`
	FlexibleWindowMinutes int        `json:"flexibleWindowMinutes,omitempty"`
}

// Target describes what a due schedule invokes. Input is an opaque JSON
// envelope whose "Payload" field holds a second serialized JSON document;
// only the inner "input" field is ever rewritten by this package.
type Target struct {
	ARN     string `json:"arn,omitempty"`
	RoleARN string `json:"roleArn,omitempty"`
	Input   string `json:"input"`
}

// Identity returns the (name, group) pair as a single map key.
func (d *Definition) Identity() string {
	return d.Group + "/" + d.Name
}

// Clone returns a deep copy so store callers cannot mutate stored state.
func (d *Definition) Clone() *Definition {
	c := *d
	if d.StartDate != nil {
		sd := *d.StartDate
		c.StartDate = &sd
	}
	if d.EndDate != nil {
		ed := *d.EndDate
		c.EndDate = &ed
	}
	return &c
}

// Result summarizes a successful reschedule for the tool confirmation.
type Result struct {
	ScheduleARN string
	Expression  string
	Timezone    string
	Name        string
	Group       string
	NextInput   string
}
