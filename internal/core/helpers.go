package core

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/ghiro/autoupload/pkg/logx"
)

// CaseDirPrefix precedes the case id in case directory names.
const CaseDirPrefix = "Case_id_"

var caseDirPattern = regexp.MustCompile(CaseDirPrefix + `(\d+)$`)

// CaseDirName returns the directory name for the case with the given id, e.g. Case_id_7.
func CaseDirName(id int64) string {
	return fmt.Sprintf("%s%d", CaseDirPrefix, id)
}

// ParseCaseDirName extracts the case id from a directory path ending in Case_id_<id>.
//
// Returns:
//   - the id and true when the path ends with the pattern and the id fits an int64.
//   - matched reports whether the pattern matched at all, so that an id too large to be
//     any case can be told apart from a foreign directory.
func ParseCaseDirName(dir string) (id int64, ok bool, matched bool) {
	m := caseDirPattern.FindStringSubmatch(dir)
	if m == nil {
		return 0, false, false
	}

	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false, true
	}

	return id, true, true
}

// ApplyDelay blocks for delay or until the context is cancelled. It reports whether the
// full delay elapsed.
func ApplyDelay(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop() // Ensure the timer is stopped to release resources

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		logx.As().Trace().Dur("delay", delay).Msg("Context cancelled during delay")
		return false
	}
}

type traceIdKey struct{}

// WithTraceId returns a context carrying the trace id of the file being processed.
func WithTraceId(ctx context.Context, traceId string) context.Context {
	return context.WithValue(ctx, traceIdKey{}, traceId)
}

// TraceId returns the trace id carried by ctx, or "" if there is none.
func TraceId(ctx context.Context) string {
	id, _ := ctx.Value(traceIdKey{}).(string)
	return id
}
