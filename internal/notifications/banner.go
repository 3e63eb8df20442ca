package notifications

// Severity grades a user-facing status message.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Banner shows a transient status message to whoever is driving the
// workspace. The CLI prints it; the daemon logs it.
type Banner interface {
	Show(severity Severity, message string)
}

// BannerFunc adapts a function to Banner.
type BannerFunc func(Severity, string)

func (f BannerFunc) Show(severity Severity, message string) {
	if f != nil {
		f(severity, message)
	}
}

// DiscardBanner drops every message.
var DiscardBanner Banner = BannerFunc(nil)
