package forms

// FormKey holds errors that belong to the whole form
const FormKey = "form"

// FieldErrors maps a dotted field path ("clients.0.name") to a message
type FieldErrors map[string]string

// Add keeps the first message recorded for field
func (fe FieldErrors) Add(field, message string) {
	if _, ok := fe[field]; !ok {
		fe[field] = message
	}
}

// Get returns the message for field, or ""
func (fe FieldErrors) Get(field string) string {
	return fe[field]
}

// Any reports whether at least one error was recorded
func (fe FieldErrors) Any() bool {
	return len(fe) > 0
}
