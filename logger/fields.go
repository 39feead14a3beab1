package logger

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldRealm     = "realm"
	FieldClientID  = "client_id"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"
	FieldSubject   = "subject"
	FieldRoleSpec  = "role_spec"
	FieldEndpoint  = "endpoint"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	log.Info("grant refreshed", logger.Fields(logger.FieldRealm, "demo"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}
