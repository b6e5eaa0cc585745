package bridge

// result is the single outcome of a routed request. The response encoder is
// the only place a result becomes wire bytes.
type result struct {
	status  int
	payload any
	header  map[string]string
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type notFoundResponse struct {
	Success        bool     `json:"success"`
	Error          string   `json:"error"`
	Message        string   `json:"message"`
	Path           string   `json:"path"`
	ValidEndpoints []string `json:"validEndpoints"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type statusResponse struct {
	HasActiveStation       bool   `json:"hasActiveStation"`
	StationName            string `json:"stationName"`
	IsSimulationRunning    bool   `json:"isSimulationRunning"`
	VirtualControllerCount int    `json:"virtualControllerCount"`
}

type jointsResponse struct {
	Success   bool               `json:"success"`
	Timestamp string             `json:"timestamp"`
	Joints    map[string]float64 `json:"joints"`
}

type simulationResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	IsRunning bool   `json:"isRunning"`
}

type uploadResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ModuleName string `json:"moduleName"`
	TaskName   string `json:"taskName"`
}

type uploadFailureResponse struct {
	Success    bool         `json:"success"`
	Error      string       `json:"error"`
	Message    string       `json:"message"`
	RecentLogs []logPayload `json:"recentLogs"`
}

type executeResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	ExecutionStatus string `json:"executionStatus"`
}

type pointerPayload struct {
	Module  string `json:"module"`
	Routine string `json:"routine"`
	Range   string `json:"range"`
}

type taskPayload struct {
	Name            string          `json:"name"`
	ExecutionStatus string          `json:"executionStatus"`
	Type            string          `json:"type"`
	Enabled         bool            `json:"enabled"`
	ProgramPointer  *pointerPayload `json:"programPointer,omitempty"`
	MotionPointer   *pointerPayload `json:"motionPointer,omitempty"`
}

type rapidStatusResponse struct {
	Success                   bool          `json:"success"`
	ControllerExecutionStatus string        `json:"controllerExecutionStatus"`
	Tasks                     []taskPayload `json:"tasks"`
}

type logPayload struct {
	Sequence  int    `json:"sequence"`
	Timestamp string `json:"timestamp"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Category  string `json:"category"`
	Type      string `json:"type"`
}

type errorsResponse struct {
	Success  bool         `json:"success"`
	Messages []logPayload `json:"messages"`
}
