package bridge

// apiError is a fault already classified into the service's HTTP taxonomy.
// Handlers convert every failure into one of these before it reaches the
// connection layer.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.message }

func (e *apiError) result() result {
	return result{
		status: e.status,
		payload: errorResponse{
			Success: false,
			Error:   e.code,
			Message: e.message,
		},
	}
}

func errNoActiveProject() *apiError {
	return &apiError{404, "NoActiveProject", "No simulation station is currently open."}
}

func errNoController() *apiError {
	return &apiError{404, "NoController", "No reachable virtual controller found in the station."}
}

func errTaskNotFound(name string) *apiError {
	return &apiError{404, "TaskNotFound", "RAPID task '" + name + "' does not exist on the controller."}
}

func errBadRequest(code, message string) *apiError {
	return &apiError{400, code, message}
}

func errInternal(message string) *apiError {
	return &apiError{500, "InternalError", message}
}
