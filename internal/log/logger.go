package log

import "github.com/sirupsen/logrus"

const timestampFormat = "Jan _2 15:04:05.000000"

// ComposeFormatter renders entries as colored text, or as JSON when analysis
// mode is on so that compose traces can be post-processed.
type ComposeFormatter struct {
	analysisMode bool
}

func NewComposeFormatter(analysisMode bool) *ComposeFormatter {
	return &ComposeFormatter{analysisMode: analysisMode}
}

func (f *ComposeFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if !f.analysisMode {
		return (&logrus.TextFormatter{ForceColors: true, DisableColors: false, TimestampFormat: timestampFormat, FullTimestamp: true}).Format(entry)
	} else {
		return (&logrus.JSONFormatter{TimestampFormat: timestampFormat}).Format(entry)
	}
}

// ForCompose returns the entry every log line of one compose call goes through.
func ForCompose(composeId string) *logrus.Entry {
	return logrus.WithField("composeId", composeId)
}

func MinimalTracef(entry *logrus.Entry, format string, computeFunc func() string) {
	if entry == nil {
		return
	}
	if entry.Logger.IsLevelEnabled(logrus.TraceLevel) {
		entry.Tracef(format, computeFunc())
	}
}
