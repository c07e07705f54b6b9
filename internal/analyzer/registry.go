package analyzer

import "fmt"

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string, opts Options) (Detector, error) {
	switch variant {
	case "screentone", "":
		return NewScreentoneDetector(opts)
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
