package provider

import "fmt"

// AuthError means the OAuth client-credentials exchange failed. It is never
// retried automatically; the caller decides what to do with bad credentials.
type AuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("auth: token endpoint returned status %d: %s", e.Status, e.Body)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ProviderError means a create or poll call returned a non-2xx or
// unparseable response outside the "still processing" case. Carries the
// upstream status and body so the caller can render a meaningful message.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: upstream returned status %d: %s", e.Provider, e.Status, e.Body)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// TimeoutError means polling exhausted its attempt budget without the search
// reaching a terminal state. Distinct from ProviderError so callers can offer
// a "try again later" flow for slow-but-healthy providers.
type TimeoutError struct {
	Attempts int
	Provider string
}

func (e *TimeoutError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: search did not complete after %d poll attempts", e.Provider, e.Attempts)
	}
	return fmt.Sprintf("search did not complete after %d poll attempts", e.Attempts)
}
