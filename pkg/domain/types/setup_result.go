package types

// SetupResult is the outcome of the installation callback, sent to the
// dashboard as a query parameter
type SetupResult string

const (
	SetupResultInstallationComplete SetupResult = "installation_complete"
	SetupResultInstallationFailed   SetupResult = "installation_failed"
	SetupResultAccountNotFound      SetupResult = "account_not_found"
	SetupResultConnectionFailed     SetupResult = "connection_failed"
)

func (x SetupResult) String() string {
	return string(x)
}

// IsSuccess reports whether the result is sent as success= rather than error=
func (x SetupResult) IsSuccess() bool {
	return x == SetupResultInstallationComplete
}

// QueryKey returns the dashboard query parameter name for the result
func (x SetupResult) QueryKey() string {
	if x.IsSuccess() {
		return "success"
	}
	return "error"
}
