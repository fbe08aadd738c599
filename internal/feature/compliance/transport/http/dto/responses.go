package dto

// ErrorResponse is the body of every rejected request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// OperationResponse is the body of a workflow operation.
type OperationResponse struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message,omitempty"`
	Regulation string   `json:"regulation,omitempty"`
	Report     string   `json:"report,omitempty"`
	Chunks     int      `json:"chunks,omitempty"`
	Files      []string `json:"files,omitempty"`
	TestResult string   `json:"test_result,omitempty"`
	Path       string   `json:"path,omitempty"`
}

// StatusResponse describes a session.
type StatusResponse struct {
	Success             bool     `json:"success"`
	AgentInitialized    bool     `json:"agent_initialized"`
	Message             string   `json:"message,omitempty"`
	CompanyDescription  string   `json:"company_description,omitempty"`
	FilesProcessed      bool     `json:"files_processed"`
	DocumentChunks      int      `json:"document_chunks"`
	RegulationsAnalyzed []string `json:"regulations_analyzed"`
	ReadyForReport      bool     `json:"ready_for_report"`
	Stage               string   `json:"stage,omitempty"`
}

// RegulationResponse is one entry of the regulation catalogue.
type RegulationResponse struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RegulationsResponse lists the supported regulations.
type RegulationsResponse struct {
	Success     bool                 `json:"success"`
	Regulations []RegulationResponse `json:"regulations"`
}

// SessionResponse carries a newly allocated session identifier.
type SessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
}
