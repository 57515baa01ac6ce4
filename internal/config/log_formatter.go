package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	colorRed         = 31
	colorGreen       = 32
	colorYellow      = 33
	colorBlue        = 36
	colorGray        = 37
	colorLightGreen  = 92
	colorLightYellow = 93
	colorCyan        = 96
)

// leadingFields are printed first, in this order, so entries of one object line up.
var leadingFields = []string{"object", "method", "chat_id", "user_id"}

// NbFormatter renders single-line colored key=value entries.
type NbFormatter struct {
	NoColor bool
}

func (f *NbFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b strings.Builder

	f.pair(&b, "level", levelColor(entry.Level), strings.ToUpper(entry.Level.String())[:4])
	f.pair(&b, "ts", colorLightYellow, entry.Time.Format("2006-01-02 15:04:05.000"))
	if entry.HasCaller() {
		f.pair(&b, "source", colorLightYellow, fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line))
	}

	for _, key := range sortedKeys(entry.Data) {
		s := encodeValue(entry.Data[key])
		if s == "" {
			continue
		}
		f.pair(&b, key, valueColor(s), s)
	}
	f.pair(&b, "msg", colorLightGreen, strconv.Quote(entry.Message))

	out := strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(b.String())
	return []byte(out + "\n"), nil
}

func (f *NbFormatter) pair(b *strings.Builder, key string, color int, value string) {
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	if f.NoColor {
		b.WriteString(key + "=" + value)
		return
	}
	fmt.Fprintf(b, "\x1b[%dm%s\x1b[0m=\x1b[%dm%s\x1b[0m", colorCyan, key, color, value)
}

func sortedKeys(data log.Fields) []string {
	rank := make(map[string]int, len(leadingFields))
	for i, key := range leadingFields {
		rank[key] = i + 1
	}
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := rank[keys[i]], rank[keys[j]]
		switch {
		case ri != 0 && rj != 0:
			return ri < rj
		case ri != 0:
			return true
		case rj != 0:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

func encodeValue(val any) string {
	if err, ok := val.(error); ok {
		return strconv.Quote(err.Error())
	}
	m, err := json.Marshal(val)
	if err != nil {
		return ""
	}
	return string(m)
}

func levelColor(level log.Level) int {
	switch level {
	case log.DebugLevel, log.TraceLevel:
		return colorGray
	case log.WarnLevel:
		return colorYellow
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		return colorRed
	default:
		return colorBlue
	}
}

func valueColor(s string) int {
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return colorGreen
	}
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return colorLightYellow
	}
	return colorCyan
}
