package models

import "encoding/json"

// Stage is one step of the server-side submission pipeline.
type Stage string

const (
	StageLoad        Stage = "load"
	StageCheck       Stage = "check"
	StageFork        Stage = "fork"
	StageClone       Stage = "clone"
	StageConfigure   Stage = "configure"
	StageBranch      Stage = "branch"
	StageFeature     Stage = "feature"
	StageWrite       Stage = "write"
	StageCommit      Stage = "commit"
	StagePush        Stage = "push"
	StagePullRequest Stage = "pullrequest"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{
	StageLoad, StageCheck, StageFork, StageClone, StageConfigure, StageBranch,
	StageFeature, StageWrite, StageCommit, StagePush, StagePullRequest,
}

var stageLabels = map[Stage]string{
	StageLoad:        "⏳ Loading submission",
	StageCheck:       "🔍 Checking for valid code",
	StageFork:        "🔱 Forking upstream repository",
	StageClone:       "📥 Cloning repository",
	StageConfigure:   "🛠️ Configuring repository",
	StageBranch:      "🌳 Creating new branch",
	StageFeature:     "✨ Starting new feature",
	StageWrite:       "✒️ Adding code content",
	StageCommit:      "💍 Committing new feature",
	StagePush:        "📤 Pushing to remote",
	StagePullRequest: "🙋 Creating pull request",
}

// Label returns the human readable description of the stage.
func (s Stage) Label() string {
	if label, ok := stageLabels[s]; ok {
		return label
	}
	return string(s)
}

// SubmissionState holds the stage flags reported by the server. A flag is absent (nil) until the server mentions it.
type SubmissionState struct {
	flags map[Stage]bool
}

// NewSubmissionState builds a state with the given stages set to true.
func NewSubmissionState(done ...Stage) SubmissionState {
	s := SubmissionState{flags: make(map[Stage]bool)}
	for _, stage := range done {
		s.flags[stage] = true
	}
	return s
}

// Flag returns the tri-state value of a stage.
func (s SubmissionState) Flag(stage Stage) *bool {
	value, ok := s.flags[stage]
	if !ok {
		return nil
	}
	return &value
}

// Done reports whether the stage is known to be complete.
func (s SubmissionState) Done(stage Stage) bool {
	return s.flags[stage]
}

// Completed returns the number of stages known to be complete.
func (s SubmissionState) Completed() int {
	count := 0
	for _, stage := range Stages {
		if s.flags[stage] {
			count++
		}
	}
	return count
}

// Merge returns a copy of s updated with the flags reported in next. A flag that is already true stays true.
func (s SubmissionState) Merge(next SubmissionState) SubmissionState {
	merged := SubmissionState{flags: make(map[Stage]bool, len(Stages))}
	for stage, value := range s.flags {
		merged.flags[stage] = value
	}
	for stage, value := range next.flags {
		if merged.flags[stage] {
			continue
		}
		merged.flags[stage] = value
	}
	return merged
}

// Clone returns an independent copy.
func (s SubmissionState) Clone() SubmissionState {
	return SubmissionState{}.Merge(s)
}

func (s SubmissionState) MarshalJSON() ([]byte, error) {
	out := make(map[string]bool, len(s.flags))
	for stage, value := range s.flags {
		out[string(stage)] = value
	}
	return json.Marshal(out)
}

func (s *SubmissionState) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.flags = make(map[Stage]bool)
	for _, stage := range Stages {
		value, ok := raw[string(stage)]
		if !ok {
			continue
		}
		var flag *bool
		if err := json.Unmarshal(value, &flag); err != nil {
			return err
		}
		if flag != nil {
			s.flags[stage] = *flag
		}
	}
	return nil
}

// SubmissionResponse is the body of "submit" for both POST and GET.
type SubmissionResponse struct {
	Result    bool             `json:"result"`
	State     *SubmissionState `json:"state,omitempty"`
	URL       string           `json:"url,omitempty"`
	Message   string           `json:"message,omitempty"`
	Traceback string           `json:"tb,omitempty"`
}
