// Package logging configures logrus for the rescue: a colored key=value
// console formatter that puts block and bundle fields first.
package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// fieldPriority orders the standard fields and the rescue fields that
// identify a cycle ahead of everything else.
var fieldPriority = map[string]int{
	"time":          1,
	"level":         2,
	"msg":           3,
	"current_block": 4,
	"target_block":  5,
	"resolution":    6,
	"bundle_hash":   7,
	"error":         8,
}

var importantFields = map[string]bool{
	"target_block": true,
	"bundle_hash":  true,
	"resolution":   true,
	"error":        true,
}

type ColoredJSONFormatter struct {
	// Include timestamp in the output
	TimestampFormat string
	// Customize field sorting
	SortingFunc func([]string) []string
	// Disable colors when not in terminal
	DisableColors bool
}

func NewColoredJSONFormatter() *ColoredJSONFormatter {
	return &ColoredJSONFormatter{
		TimestampFormat: time.RFC3339,
		SortingFunc:     defaultFieldSorting,
	}
}

// NewLogger builds a logger writing to out with the given level name and
// format (text or json).
func NewLogger(out io.Writer, level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	if level == "" {
		level = logrus.InfoLevel.String()
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", FormatText:
		f := NewColoredJSONFormatter()
		if file, ok := out.(*os.File); !ok || file != os.Stdout && file != os.Stderr {
			f.DisableColors = true
		}
		logger.SetFormatter(f)
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	return logger, nil
}

func (f *ColoredJSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := make(logrus.Fields, len(entry.Data)+3)
	for k, v := range entry.Data {
		data[k] = v
	}

	data["level"] = entry.Level.String()
	data["msg"] = entry.Message
	data["time"] = entry.Time.Format(f.TimestampFormat)

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}

	if f.SortingFunc != nil {
		keys = f.SortingFunc(keys)
	} else {
		sort.Strings(keys)
	}

	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	levelColor := f.paint(getLevelColor(entry.Level))
	timeColor := f.paint(color.New(color.FgYellow))
	valueColor := f.paint(color.New(color.FgWhite))

	b.WriteString(timeColor.Sprintf("%s", data["time"]))
	b.WriteByte(' ')
	b.WriteString(levelColor.Sprintf("%-7s", strings.ToUpper(entry.Level.String())))
	b.WriteByte(' ')
	b.WriteString(levelColor.Sprintf("%s", entry.Message))
	b.WriteByte(' ')

	for _, k := range keys {
		if k == "time" || k == "level" || k == "msg" {
			continue
		}

		var valueStr string
		switch v := data[k].(type) {
		case string:
			valueStr = fmt.Sprintf("%q", v)
		case error:
			valueStr = fmt.Sprintf("%q", v.Error())
		case fmt.Stringer:
			valueStr = fmt.Sprintf("%q", v.String())
		default:
			jsonBytes, err := json.Marshal(v)
			if err != nil {
				valueStr = fmt.Sprintf("%v", v)
			} else {
				valueStr = string(jsonBytes)
			}
		}

		// Highlight important fields
		fieldColor := color.New(color.FgCyan)
		if importantFields[k] {
			fieldColor = color.New(color.FgGreen)
		}
		fieldColor = f.paint(fieldColor)

		b.WriteString(fieldColor.Sprintf("%s=", k))
		b.WriteString(valueColor.Sprint(valueStr))
		b.WriteByte(' ')
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *ColoredJSONFormatter) paint(c *color.Color) *color.Color {
	if f.DisableColors {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c
}

func getLevelColor(level logrus.Level) *color.Color {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return color.New(color.FgBlue)
	case logrus.InfoLevel:
		return color.New(color.FgGreen)
	case logrus.WarnLevel:
		return color.New(color.FgYellow)
	case logrus.ErrorLevel:
		return color.New(color.FgRed)
	case logrus.FatalLevel, logrus.PanicLevel:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}

func defaultFieldSorting(keys []string) []string {
	sort.Slice(keys, func(i, j int) bool {
		iPriority := fieldPriority[keys[i]]
		jPriority := fieldPriority[keys[j]]
		if iPriority != 0 && jPriority != 0 {
			return iPriority < jPriority
		}
		if iPriority != 0 {
			return true
		}
		if jPriority != 0 {
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}
