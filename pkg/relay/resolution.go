package relay

import "fmt"

// Resolution is the outcome of one submitted bundle once its target block
// has been mined.
type Resolution int

const (
	// BundleIncluded means every bundle transaction landed in the target block
	BundleIncluded Resolution = iota
	// BlockPassedWithoutInclusion means the target block was mined without the bundle
	BlockPassedWithoutInclusion
	// AccountNonceTooHigh means a signer's nonce moved past the bundle's nonce
	AccountNonceTooHigh
)

func (r Resolution) String() string {
	switch r {
	case BundleIncluded:
		return "included"
	case BlockPassedWithoutInclusion:
		return "block_passed_without_inclusion"
	case AccountNonceTooHigh:
		return "account_nonce_too_high"
	default:
		return fmt.Sprintf("resolution(%d)", int(r))
	}
}
