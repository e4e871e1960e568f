package tracer

// LogData is propagated into every log line of a request through ylog.Inject.
type LogData struct {
	RemoteAddr string `json:"remote_addr,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`
	Caller     string `json:"caller,omitempty"`
}
