package reqid

import (
	"fmt"
	"os"
	"sync/atomic"
)

var prefix string
var reqid atomic.Uint64

func init() {
	hostname, err := os.Hostname()
	if hostname == "" || err != nil {
		hostname = "localhost"
	}

	prefix = hostname
}

// NextRequestID returns a process-unique request id of the form "<hostname>-<sequence>".
func NextRequestID() string {
	return fmt.Sprintf("%s-%09d", prefix, reqid.Add(1))
}
