package domain

// Outcome is the result of dispatching one action's command.
// The engine never interprets it; checkers do.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Succeeded returns a successful outcome carrying data.
func Succeeded(data any) Outcome {
	return Outcome{Success: true, Data: data}
}

// Failed returns a failed outcome with a message.
// A failed outcome is not an error; it is routed like any other outcome.
func Failed(message string) Outcome {
	return Outcome{Success: false, Message: message}
}
