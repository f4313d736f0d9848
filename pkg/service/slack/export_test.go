package slack

import "time"

var BuildInstallationMessage = buildInstallationMessage

func NewAsyncWithTimeout(next Notifier, timeout time.Duration) Notifier {
	return &asyncNotifier{next: next, timeout: timeout}
}
