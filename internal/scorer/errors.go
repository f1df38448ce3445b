package scorer

// badRequestError marks request-level failures (malformed body, schema
// mismatch) for 400 mapping.
type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

// IsBadRequest reports whether err is a failure of the request itself.
func IsBadRequest(err error) bool {
	_, ok := err.(badRequestError)
	return ok
}

// artifactUnavailableError signals a missing Model Artifact so the HTTP
// layer can return 503 Service Unavailable instead of 500.
type artifactUnavailableError struct{ dir string }

func (e artifactUnavailableError) Error() string {
	return "model artifact not found in " + e.dir
}

// IsArtifactUnavailable reports whether err indicates the model has not
// been trained or mounted yet.
func IsArtifactUnavailable(err error) bool {
	_, ok := err.(artifactUnavailableError)
	return ok
}
