package preview

// Capability is an access-control token granted by an external
// collaborator. This package never computes capabilities, it only
// checks the set it is handed.
type Capability string

const (
	CapabilityRead     Capability = "read"
	CapabilityDownload Capability = "download"
	CapabilityComment  Capability = "comment"
)

// PermissionSet is an enumerable set of capability tokens.
type PermissionSet []Capability

// Has reports whether the set contains the capability.
func (p PermissionSet) Has(c Capability) bool {
	for _, got := range p {
		if got == c {
			return true
		}
	}
	return false
}
