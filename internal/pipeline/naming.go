package pipeline

import (
	"fmt"
	"strings"
)

const memberSuffix = "_4k"

// MemberName builds the archive member name for the seq-th image (1-based) of
// a batch: the original name without its last extension, then "_4k_<seq>.png".
// Directory components are dropped so a member never leaves the archive root.
func MemberName(original string, seq int) string {
	base := original
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSpace(base)
	if base == "" || base == "." || base == ".." {
		base = "image"
	}
	return fmt.Sprintf("%s%s_%d.png", base, memberSuffix, seq)
}
