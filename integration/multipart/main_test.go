//go:build integration

package multipart

import (
	"testing"

	"github.com/LeeDigitalWorks/ossmpu/integration/testutil"

	"go.uber.org/goleak"
)

var ossConfig = testutil.DefaultOSSConfig()

func TestMain(m *testing.M) {
	// Ignore HTTP transport goroutines from keep-alive connections
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func newOSSClient(t *testing.T) *testutil.OSSClient {
	return testutil.NewOSSClient(t, ossConfig)
}

func uniqueKey(prefix string) string {
	return testutil.UniqueID("ossmpu-it/" + prefix)
}
