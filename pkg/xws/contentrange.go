package xws

import (
	"fmt"
	"regexp"
	"strconv"
)

// ContentRangeHeader is the header XWS sets on every paginated response.
const ContentRangeHeader = "Xing-Content-Range"

var contentRangePattern = regexp.MustCompile(`^items ((\d+)-(\d+)|\*)/(\d+|\*)$`)

// ContentRange describes the window of a paginated collection returned by XWS:
//
//	items <offset>-<last>/<total>   total known
//	items <offset>-<last>/*         total unknown
//	items */0                       empty collection
//
// Unknown parts are -1.
type ContentRange struct {
	Offset int
	Last   int
	Total  int
}

// ParseContentRange parses a Xing-Content-Range header value. It returns nil
// when the value is empty or malformed.
func ParseContentRange(header string) *ContentRange {
	m := contentRangePattern.FindStringSubmatch(header)
	if m == nil {
		return nil
	}

	r := &ContentRange{Offset: -1, Last: -1, Total: -1}
	if m[1] != "*" {
		r.Offset = atoi(m[2])
		r.Last = atoi(m[3])
	}
	if m[4] != "*" {
		r.Total = atoi(m[4])
	}
	return r
}

// IsEmpty reports whether the range describes an empty collection.
func (r *ContentRange) IsEmpty() bool {
	return r.Total == 0
}

func (r *ContentRange) String() string {
	head := "*"
	if r.Offset >= 0 && r.Last >= 0 {
		head = fmt.Sprintf("%d-%d", r.Offset, r.Last)
	}
	tail := "*"
	if r.Total >= 0 {
		tail = strconv.Itoa(r.Total)
	}
	return fmt.Sprintf("%s: items %s/%s", ContentRangeHeader, head, tail)
}

// atoi is only fed digit runs matched by contentRangePattern; overflow maps to -1.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
