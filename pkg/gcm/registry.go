package gcm

// Registry maps the error codes GCM reports inside a 200 response to the
// failure kind the classifier should produce for them.
type Registry map[string]FailureKind

// DefaultRegistry returns a fresh copy of the codes documented for the GCM
// HTTP API. Callers may add to or trim the returned map freely.
func DefaultRegistry() Registry {
	return Registry{
		"DeviceMessageRateExceeded": KindDeviceMessageRateExceeded,
		"InternalServerError":       KindServiceInternalError,
		"InvalidRegistration":       KindInvalidRegistration,
		"InvalidParameters":         KindInvalidParameters,
		"MessageTooBig":             KindMessageTooBig,
		"MismatchSenderId":          KindMismatchSenderID,
		"NotRegistered":             KindNotRegistered,
	}
}

// Lookup builds the outcome for a service error code. Codes that are not
// registered become KindUnknownCode.
func (r Registry) Lookup(code string) *Error {
	if kind, ok := r[code]; ok {
		return &Error{Kind: kind, Code: code}
	}
	return &Error{Kind: KindUnknownCode, Code: code}
}
