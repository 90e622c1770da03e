package utils

import (
	"testing"

	"github.com/notargets/vecadd/occa"
)

// testDevices is the order CreateTestDevice tries, preferring parallel backends
var testDevices = []string{
	`{"mode": "OpenMP"}`,
	`{"mode": "CUDA", "device_id": 0}`,
	`{"mode": "Serial"}`,
}

// CreateTestDevice opens an OCCA device for testing and frees it when the
// test ends. The test is skipped when no backend opens.
func CreateTestDevice(t testing.TB) *occa.Device {
	t.Helper()
	dev, err := occa.CreateDevice(testDevices...)
	if err != nil {
		t.Skipf("no OCCA device available: %v", err)
	}
	t.Logf("Created %s Device", dev.Mode())
	t.Cleanup(dev.Free)
	return dev
}
