package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/throttlehq/throttle/core/throttle"
)

// errUsage is reported when the argument list has the wrong shape.
var errUsage = errors.New("usage: throttle <bucket> <max_burst> <count> <period> [<quantity>]")

// request is one parsed throttle invocation: admit quantity actions against
// bucket under a quota of max_burst extra actions over count per period
// seconds.
type request struct {
	bucket   string
	maxBurst int64
	count    int64
	period   int64
	quantity int64
}

// parseRequest decodes command arguments into a typed request. Parse errors
// name the offending token so the caller can tell which argument was wrong.
func parseRequest(args []string) (request, error) {
	if len(args) != 4 && len(args) != 5 {
		return request{}, errUsage
	}

	req := request{bucket: args[0], quantity: 1}

	var err error
	if req.maxBurst, err = parseInt(args[1]); err != nil {
		return request{}, err
	}
	if req.count, err = parseInt(args[2]); err != nil {
		return request{}, err
	}
	if req.period, err = parseInt(args[3]); err != nil {
		return request{}, err
	}
	if len(args) == 5 {
		if req.quantity, err = parseInt(args[4]); err != nil {
			return request{}, err
		}
	}

	return req, nil
}

func parseInt(arg string) (int64, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("couldn't parse as integer: %s", arg)
	}
	return n, nil
}

// quota derives the rate limiting policy from the request. Non-positive
// count or period surfaces as ErrInvalidQuota.
func (r request) quota() (throttle.RateQuota, error) {
	rate, err := throttle.NewRate(r.count, time.Duration(r.period)*time.Second)
	if err != nil {
		return throttle.RateQuota{}, err
	}
	return throttle.RateQuota{MaxBurst: r.maxBurst, MaxRate: rate}, nil
}

// run evaluates the request against the store and writes the reply: five
// integers on separate lines: throttled (0 or 1), limit, remaining,
// retry-after seconds (-1 when a retry can never succeed), and reset-after
// seconds.
func run(ctx context.Context, store throttle.Store, req request, out io.Writer) error {
	quota, err := req.quota()
	if err != nil {
		return err
	}

	limiter, err := throttle.New(store, quota)
	if err != nil {
		return err
	}

	throttled, res, err := limiter.RateLimit(ctx, req.bucket, req.quantity)
	if err != nil {
		return err
	}

	flag := int64(0)
	if throttled {
		flag = 1
	}

	_, err = fmt.Fprintf(out, "%d\n%d\n%d\n%d\n%d\n",
		flag, res.Limit, res.Remaining, seconds(res.RetryAfter), seconds(res.ResetAfter))
	return err
}

// seconds converts a duration to whole seconds for the reply, rounding up so
// a caller that waits the advertised time is guaranteed to pass. Negative
// durations mean "not applicable" and are reported as -1.
func seconds(d time.Duration) int64 {
	if d < 0 {
		return -1
	}
	return int64(math.Ceil(d.Seconds()))
}
