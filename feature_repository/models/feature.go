package models

// FeatureRecord is an existing feature of the repository. Code is only fetched when the record is shown to the author.
type FeatureRecord struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Author string   `json:"author"`
	Inputs []string `json:"inputs"`
	Code   string   `json:"code,omitempty"`
}

// FeatureInfo is one value of the "features" listing, keyed by feature id on the wire.
type FeatureInfo struct {
	Name   string   `json:"name"`
	Inputs []string `json:"inputs"`
	Author string   `json:"author"`
}

// FeatureCode is the body of "features/{id}".
type FeatureCode struct {
	Code string `json:"code"`
}

// NewFeatureCandidate is a feature the analysis service derived from submitted code.
type NewFeatureCandidate struct {
	Name   string   `json:"name"`
	Inputs []string `json:"inputs"`
}

// CodeContentRequest is the body of "submit" and "inspect".
type CodeContentRequest struct {
	CodeContent string `json:"codeContent"`
}

// ErrorBody is the error payload the service sends with a non-success status.
type ErrorBody struct {
	Message   string `json:"message"`
	Traceback string `json:"tb"`
}

// AuthenticatedResponse is the body of "auth/authenticated".
type AuthenticatedResponse struct {
	Result bool `json:"result"`
}

// VersionInfo is the body of "version".
type VersionInfo struct {
	Assemble string `json:"assemble"`
	Ballet   string `json:"ballet"`
	Project  string `json:"project"`
}
