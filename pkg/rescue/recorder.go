package rescue

import (
	"math/big"

	"github.com/lisanmuaddib/rescue-go/pkg/relay"
)

// Recorder receives loop events for metrics. Implementations must be safe
// for concurrent use.
type Recorder interface {
	CycleStarted(target uint64)
	BundlePriced(gasPrice *big.Int)
	SimulationFailed()
	Resolved(res relay.Resolution)
}

type nopRecorder struct{}

func (nopRecorder) CycleStarted(uint64)       {}
func (nopRecorder) BundlePriced(*big.Int)     {}
func (nopRecorder) SimulationFailed()         {}
func (nopRecorder) Resolved(relay.Resolution) {}
