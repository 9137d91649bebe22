package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

const envVar = "LOGLEVEL"

type tagLevel struct {
	tag   string
	level Level
}

var tagLevels []tagLevel

func init() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		color.NoColor = true
	}
	parseDirectives(os.Getenv(envVar))
	DefaultLogger.Level = defaultLevel
}

// parseDirectives reads comma-separated "tag=level" directives. A directive
// without "tag=" sets the default level.
func parseDirectives(s string) {
	for _, d := range strings.Split(s, ",") {
		if d == "" {
			continue
		}
		v := strings.SplitN(d, "=", 2)
		level, err := parseLevel(v[len(v)-1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid %s directive '%s': %s\n", envVar, d, err)
			continue
		}
		if len(v) == 1 {
			defaultLevel = level
		} else {
			tagLevels = append(tagLevels, tagLevel{v[0], level})
		}
	}
}

func determineLevel(tag string, fallback Level) Level {
	for _, e := range tagLevels {
		if e.tag == tag {
			return e.level
		}
	}
	return fallback
}
